package reminder

import (
	"fmt"
	"strings"
)

// =============================================================================
// MANUAL STATUS
// =============================================================================

// ManualStatus is what a hand-edited status cell says about a record.
type ManualStatus int

const (
	ManualNone ManualStatus = iota
	ManualOptedOut
	ManualOverdue
	ManualDone
)

var manualStatusWords = map[string]ManualStatus{
	"unsubscribed": ManualOptedOut,
	"opted out":    ManualOptedOut,
	"opted-out":    ManualOptedOut,
	"opt-out":      ManualOptedOut,
	"optout":       ManualOptedOut,
	"opt out":      ManualOptedOut,
	"baja":         ManualOptedOut,
	"overdue":      ManualOverdue,
	"vencido":      ManualOverdue,
	"done":         ManualDone,
	"serviced":     ManualDone,
	"completed":    ManualDone,
	"atendido":     ManualDone,
}

// ParseManualStatus reads a status cell. Unknown words are ManualNone.
func ParseManualStatus(s string) ManualStatus {
	return manualStatusWords[strings.ToLower(strings.TrimSpace(s))]
}

// =============================================================================
// STATUS POLICY
// =============================================================================

// StatusPolicy decides how a manual status combines with date tiering.
// Opt-out always wins regardless of policy.
type StatusPolicy string

const (
	// PolicyDateOnly ignores manual tier hints.
	PolicyDateOnly StatusPolicy = "date_only"
	// PolicySupplement lets a manual "overdue" escalate a record the dates
	// leave NOT_DUE (or undated). Manual "done" is ignored.
	PolicySupplement StatusPolicy = "supplement"
	// PolicyOverride makes any recognised manual status win.
	PolicyOverride StatusPolicy = "override"
)

// ParseStatusPolicy accepts the policy names; empty means date_only.
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch p := StatusPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyDateOnly, nil
	case PolicyDateOnly, PolicySupplement, PolicyOverride:
		return p, nil
	default:
		return "", fmt.Errorf("unknown status policy %q", s)
	}
}

// Apply combines the date tier with the manual status.
func (p StatusPolicy) Apply(dateTier Tier, manual ManualStatus) Tier {
	switch p {
	case PolicySupplement:
		if manual == ManualOverdue && dateTier == TierNotDue {
			return TierOverdue
		}
	case PolicyOverride:
		switch manual {
		case ManualOverdue:
			return TierOverdue
		case ManualDone:
			return TierNotDue
		}
	}
	return dateTier
}
