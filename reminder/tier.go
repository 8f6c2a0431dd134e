/*
Package reminder classifies customer records into notification tiers and
drives the send cascade.

TIERS (daysUntilDue = nextReminder - today):
  NOT_DUE    daysUntilDue > advance window       no action
  ADVANCE    0 < daysUntilDue <= advance window  heads-up
  DUE_TODAY  daysUntilDue == 0
  OVERDUE    daysUntilDue < 0

DE-DUPLICATION:
  A tier is sent unless the record was already notified today with that
  same tier. Success stamps (today, tier) on the record; failure leaves the
  stamp alone so the next run retries.

SEE ALSO:
  - status.go: opt-out and manual status policy
  - machine.go: the send loop
*/
package reminder

import "github.com/warp/reminder-engine/registry"

// DefaultAdvanceDays is the width of the advance-notice window.
const DefaultAdvanceDays = 7

// Tier is a notification classification.
type Tier string

const (
	TierNotDue   Tier = "NOT_DUE"
	TierAdvance  Tier = "ADVANCE"
	TierDueToday Tier = "DUE_TODAY"
	TierOverdue  Tier = "OVERDUE"
)

// Notifiable reports whether the tier triggers a message.
func (t Tier) Notifiable() bool {
	return t == TierAdvance || t == TierDueToday || t == TierOverdue
}

// Classification is the date-based view of one record.
type Classification struct {
	Tier         Tier
	DaysUntilDue int
	Dated        bool
}

// Classify tiers a due date against today. An undated record is NOT_DUE.
func Classify(due, today registry.Date, advanceDays int) Classification {
	if due.IsZero() {
		return Classification{Tier: TierNotDue}
	}
	if advanceDays < 0 {
		advanceDays = DefaultAdvanceDays
	}

	days := registry.DaysBetween(today, due)
	c := Classification{DaysUntilDue: days, Dated: true}
	switch {
	case days < 0:
		c.Tier = TierOverdue
	case days == 0:
		c.Tier = TierDueToday
	case days <= advanceDays:
		c.Tier = TierAdvance
	default:
		c.Tier = TierNotDue
	}
	return c
}

// AlreadyNotified is the de-duplication guard.
func AlreadyNotified(rec *registry.CustomerRecord, tier Tier, today registry.Date) bool {
	return rec.LastNotifiedDate.Equal(today) && Tier(rec.LastNotifiedTier) == tier
}
