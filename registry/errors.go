/*
errors.go - Error taxonomy for a sync run

ERROR CATEGORIES:
  1. Configuration - missing identifiers or credentials (fatal, before I/O)
  2. Schema        - no usable header row (fatal)
  3. Parse         - unparseable cell (never returned; becomes an empty date)
  4. Delivery      - transport rejected a send (collected, retried next run)
  5. Persistence   - table write failed (fatal, no rollback)

USAGE:
  if errors.Is(err, registry.ErrPersistence) {
      // run stopped part-way; tables may be partially updated
  }
*/
package registry

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned when the configuration bundle is unusable.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrSchema is returned when the source table has no usable header row.
	ErrSchema = errors.New("unusable table schema")

	// ErrParse marks an unparseable cell. It is attached to the record and
	// logged, never returned as a run error.
	ErrParse = errors.New("unparseable value")

	// ErrDelivery is returned by transports when a message could not be sent.
	ErrDelivery = errors.New("delivery failed")

	// ErrPersistence is returned when the table backend rejects a read or write.
	ErrPersistence = errors.New("persistence failed")

	// ErrSheetNotFound is returned by stores reading a sheet that does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ConfigError names the offending option.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// SchemaError reports why a sheet's header row could not be used.
type SchemaError struct {
	Sheet  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// DeliveryError wraps a transport failure for one recipient and tier.
type DeliveryError struct {
	Recipient string
	Tier      string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("send %s to %s: %v", e.Tier, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrDelivery, e.Err} }

// PersistenceError wraps a failed store operation.
type PersistenceError struct {
	Op    string
	Sheet string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Sheet, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal reports whether err must abort a run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrSchema) ||
		errors.Is(err, ErrPersistence)
}

// IsRetryable reports whether the next run may succeed where this one failed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDelivery)
}
