package reminder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/reminder"
)

func day(y int, m time.Month, d int) registry.Date { return registry.NewDate(y, m, d) }

func TestClassify_Tiers(t *testing.T) {
	today := day(2024, time.June, 10)
	cases := []struct {
		due  registry.Date
		tier reminder.Tier
		days int
	}{
		{day(2024, time.June, 15), reminder.TierAdvance, 5},
		{day(2024, time.June, 17), reminder.TierAdvance, 7},
		{day(2024, time.June, 18), reminder.TierNotDue, 8},
		{day(2024, time.June, 11), reminder.TierAdvance, 1},
		{day(2024, time.June, 10), reminder.TierDueToday, 0},
		{day(2024, time.June, 5), reminder.TierOverdue, -5},
	}
	for _, tc := range cases {
		c := reminder.Classify(tc.due, today, 7)
		assert.Equal(t, tc.tier, c.Tier, tc.due.String())
		assert.Equal(t, tc.days, c.DaysUntilDue, tc.due.String())
		assert.True(t, c.Dated)
	}
}

func TestClassify_Undated(t *testing.T) {
	c := reminder.Classify(registry.Date{}, day(2024, time.June, 10), 7)
	assert.Equal(t, reminder.TierNotDue, c.Tier)
	assert.False(t, c.Dated)
}

func TestAlreadyNotified_PerTierPerDay(t *testing.T) {
	today := day(2024, time.June, 10)
	rec := &registry.CustomerRecord{LastNotifiedDate: today, LastNotifiedTier: "ADVANCE"}

	assert.True(t, reminder.AlreadyNotified(rec, reminder.TierAdvance, today))
	assert.False(t, reminder.AlreadyNotified(rec, reminder.TierDueToday, today), "other tier same day is allowed")
	assert.False(t, reminder.AlreadyNotified(rec, reminder.TierAdvance, today.AddDays(1)), "same tier next day is allowed")
}

func TestStatusPolicy_Apply(t *testing.T) {
	cases := []struct {
		policy reminder.StatusPolicy
		date   reminder.Tier
		manual reminder.ManualStatus
		want   reminder.Tier
	}{
		{reminder.PolicyDateOnly, reminder.TierNotDue, reminder.ManualOverdue, reminder.TierNotDue},
		{reminder.PolicyDateOnly, reminder.TierOverdue, reminder.ManualDone, reminder.TierOverdue},
		{reminder.PolicySupplement, reminder.TierNotDue, reminder.ManualOverdue, reminder.TierOverdue},
		{reminder.PolicySupplement, reminder.TierAdvance, reminder.ManualOverdue, reminder.TierAdvance},
		{reminder.PolicySupplement, reminder.TierOverdue, reminder.ManualDone, reminder.TierOverdue},
		{reminder.PolicyOverride, reminder.TierAdvance, reminder.ManualOverdue, reminder.TierOverdue},
		{reminder.PolicyOverride, reminder.TierOverdue, reminder.ManualDone, reminder.TierNotDue},
		{reminder.PolicyOverride, reminder.TierDueToday, reminder.ManualNone, reminder.TierDueToday},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.policy.Apply(tc.date, tc.manual), "%s %s %d", tc.policy, tc.date, tc.manual)
	}
}

func TestParseStatusPolicy(t *testing.T) {
	p, err := reminder.ParseStatusPolicy("")
	require.NoError(t, err)
	assert.Equal(t, reminder.PolicyDateOnly, p)

	p, err = reminder.ParseStatusPolicy(" Override ")
	require.NoError(t, err)
	assert.Equal(t, reminder.PolicyOverride, p)

	_, err = reminder.ParseStatusPolicy("sometimes")
	assert.Error(t, err)
}

func TestParseManualStatus(t *testing.T) {
	assert.Equal(t, reminder.ManualOptedOut, reminder.ParseManualStatus("Unsubscribed"))
	assert.Equal(t, reminder.ManualOptedOut, reminder.ParseManualStatus(" opt-out "))
	assert.Equal(t, reminder.ManualOverdue, reminder.ParseManualStatus("VENCIDO"))
	assert.Equal(t, reminder.ManualDone, reminder.ParseManualStatus("serviced"))
	assert.Equal(t, reminder.ManualNone, reminder.ParseManualStatus("vip"))
}
