package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/reminder"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type sentMessage struct {
	To, Subject, Body string
}

type fakeSender struct {
	sent   []sentMessage
	failTo map[string]error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if err := f.failTo[to]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func recordDue(pos int, name, email string, due registry.Date) *registry.CustomerRecord {
	return &registry.CustomerRecord{
		SourcePosition:   pos,
		Name:             name,
		Email:            email,
		NextReminderDate: due,
		ContactStatus:    registry.ContactStatusOf(email, ""),
	}
}

var june10 = day(2024, time.June, 10)

// =============================================================================
// TESTS
// =============================================================================

func TestMachine_SendsEachTierInSourceOrder(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{AdvanceDays: 7}, nil)

	records := []*registry.CustomerRecord{
		recordDue(0, "Later", "later@example.com", day(2024, time.July, 30)),
		recordDue(1, "Soon", "soon@example.com", day(2024, time.June, 15)),
		recordDue(2, "Today", "today@example.com", june10),
		recordDue(3, "Late", "late@example.com", day(2024, time.June, 5)),
	}

	res := m.Run(context.Background(), records, june10)

	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, sender.sent, 3)
	assert.Equal(t, "soon@example.com", sender.sent[0].To)
	assert.Equal(t, "today@example.com", sender.sent[1].To)
	assert.Equal(t, "late@example.com", sender.sent[2].To)
	assert.Contains(t, sender.sent[2].Body, "5 days ago")

	assert.Equal(t, reminder.OutcomeNotDue, res.Attempts[0].Outcome)
	assert.True(t, records[0].LastNotifiedDate.IsZero())
	assert.True(t, records[1].LastNotifiedDate.Equal(june10))
	assert.Equal(t, "ADVANCE", records[1].LastNotifiedTier)
	assert.Equal(t, "DUE_TODAY", records[2].LastNotifiedTier)
	assert.Equal(t, "OVERDUE", records[3].LastNotifiedTier)
}

func TestMachine_SameDayRerunDoesNotResend(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{}, nil)
	records := []*registry.CustomerRecord{recordDue(0, "Ana", "ana@example.com", june10)}

	first := m.Run(context.Background(), records, june10)
	second := m.Run(context.Background(), records, june10)

	assert.Equal(t, 1, first.Sent)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, reminder.OutcomeDuplicate, second.Attempts[0].Outcome)
	assert.Len(t, sender.sent, 1)
}

func TestMachine_FailureIsRetriedSameDay(t *testing.T) {
	sender := &fakeSender{failTo: map[string]error{"ana@example.com": errors.New("mailbox unavailable")}}
	m := reminder.NewMachine(sender, reminder.Config{}, nil)
	records := []*registry.CustomerRecord{recordDue(4, "Ana", "ana@example.com", june10)}

	first := m.Run(context.Background(), records, june10)
	require.Equal(t, 1, first.Failed)
	require.Len(t, first.Failures, 1)
	assert.Equal(t, 4, first.Failures[0].Position)
	assert.Equal(t, reminder.TierDueToday, first.Failures[0].Tier)
	assert.Contains(t, first.Failures[0].Reason, "mailbox unavailable")
	assert.True(t, first.Failures[0].Retryable)
	assert.ErrorIs(t, first.Attempts[0].Err, registry.ErrDelivery)
	var de *registry.DeliveryError
	require.ErrorAs(t, first.Attempts[0].Err, &de)
	assert.Equal(t, "ana@example.com", de.Recipient)
	assert.Equal(t, "DUE_TODAY", de.Tier)
	assert.True(t, records[0].LastNotifiedDate.IsZero(), "state untouched on failure")

	delete(sender.failTo, "ana@example.com")
	second := m.Run(context.Background(), records, june10)
	assert.Equal(t, 1, second.Sent)
	assert.Equal(t, "DUE_TODAY", records[0].LastNotifiedTier)
}

func TestMachine_DifferentTierSameDayIsSent(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{}, nil)
	rec := recordDue(0, "Ana", "ana@example.com", june10)
	rec.LastNotifiedDate = june10
	rec.LastNotifiedTier = "ADVANCE"

	res := m.Run(context.Background(), []*registry.CustomerRecord{rec}, june10)
	assert.Equal(t, 1, res.Sent)
}

func TestMachine_SkipsOptedOutAndMissingEmail(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{Policy: reminder.PolicyOverride}, nil)

	optedOut := recordDue(0, "Opt", "opt@example.com", june10)
	optedOut.Status = "Unsubscribed"
	phoneOnly := recordDue(1, "Phone", "", june10)
	phoneOnly.Phone = "555-0100"
	emailOnly := recordDue(2, "Mail", "mail@example.com", june10)

	res := m.Run(context.Background(), []*registry.CustomerRecord{optedOut, phoneOnly, emailOnly}, june10)

	assert.Equal(t, reminder.OutcomeOptedOut, res.Attempts[0].Outcome)
	assert.Equal(t, reminder.OutcomeNoEmail, res.Attempts[1].Outcome)
	assert.Equal(t, reminder.OutcomeSent, res.Attempts[2].Outcome, "email without phone is eligible")
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Sent)
}

func TestMachine_ManualOverdueUnderSupplement(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{Policy: reminder.PolicySupplement}, nil)
	rec := recordDue(0, "Undated", "u@example.com", registry.Date{})
	rec.Status = "overdue"

	res := m.Run(context.Background(), []*registry.CustomerRecord{rec}, june10)
	require.Equal(t, 1, res.Sent)
	assert.Equal(t, reminder.TierOverdue, res.Attempts[0].Tier)
	assert.Contains(t, sender.sent[0].Body, "is overdue")
}

func TestTemplates_RenderMissingTier(t *testing.T) {
	_, _, err := reminder.DefaultTemplates().Render(reminder.TierNotDue, reminder.MessageData{})
	assert.Error(t, err)
}

func TestMachine_DecideHasNoSideEffects(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{AdvanceDays: 7}, nil)
	rec := recordDue(0, "Ana", "ana@example.com", day(2024, time.June, 12))

	c, outcome := m.Decide(rec, june10)

	assert.Equal(t, reminder.TierAdvance, c.Tier)
	assert.Equal(t, 2, c.DaysUntilDue)
	assert.Equal(t, reminder.OutcomeDue, outcome)
	assert.Empty(t, sender.sent)
	assert.True(t, rec.LastNotifiedDate.IsZero())
}

func TestMachine_ZeroAdvanceDaysDisablesAdvanceNotices(t *testing.T) {
	sender := &fakeSender{}
	m := reminder.NewMachine(sender, reminder.Config{AdvanceDays: 0}, nil)
	soon := recordDue(0, "Zoe", "zoe@example.com", day(2024, time.June, 15))
	today := recordDue(1, "Ana", "ana@example.com", june10)

	res := m.Run(context.Background(), []*registry.CustomerRecord{soon, today}, june10)

	assert.Equal(t, reminder.OutcomeNotDue, res.Attempts[0].Outcome)
	assert.Equal(t, reminder.TierNotDue, res.Attempts[0].Tier)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
}

func TestMachine_TemplateFailureIsNotRetryable(t *testing.T) {
	sender := &fakeSender{}
	templates := reminder.DefaultTemplates()
	delete(templates, reminder.TierDueToday)
	m := reminder.NewMachine(sender, reminder.Config{Templates: templates}, nil)

	res := m.Run(context.Background(), []*registry.CustomerRecord{recordDue(0, "Ana", "ana@example.com", june10)}, june10)

	require.Len(t, res.Failures, 1)
	assert.False(t, res.Failures[0].Retryable)
	assert.Empty(t, sender.sent)
}
