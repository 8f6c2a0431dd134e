/*
Package registry provides the customer-registry reconciliation core.

PURPOSE:
  Turns a snapshot of an externally-owned customer table ("Master") into
  typed CustomerRecords with derived service dates, and defines the narrow
  interfaces the engine uses to talk to the table backend and to the
  message transport.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: a canonical calendar date (no time-of-day, no timezone)
  - Clock: source of "today", injectable for tests

DESIGN PRINCIPLES:
  1. Dates are values. The zero Date means "no date" and is what every
     unparseable cell becomes.
  2. All arithmetic happens on UTC midnight so that DST and zone offsets
     never move a date.

SEE ALSO:
  - normalize.go: raw cell -> Date
  - due.go: next-service arithmetic
  - record.go: CustomerRecord and the reconciler
*/
package registry

import (
	"time"
)

// =============================================================================
// DATE - Canonical calendar date
// =============================================================================

// DateLayout is the textual form used whenever a Date is written to a table.
const DateLayout = "2006-01-02"

// Date is a calendar date. The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate builds a date. Out-of-range days normalize the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Properties
func (d Date) Year() int          { return d.t.Year() }
func (d Date) Month() time.Month  { return d.t.Month() }
func (d Date) Day() int           { return d.t.Day() }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// EndOfMonth returns the last day of the given month.
func EndOfMonth(year int, month time.Month) Date {
	return Date{t: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// =============================================================================
// CLOCK
// =============================================================================

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the calendar date of clock's instant in loc (UTC when nil).
func Today(clock Clock, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(clock.Now().In(loc))
}
