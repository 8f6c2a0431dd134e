package reminder

import (
	"context"
	"fmt"

	"github.com/warp/reminder-engine/logger"
	"github.com/warp/reminder-engine/registry"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Outcome is what happened to one record this run.
type Outcome string

const (
	OutcomeNotDue    Outcome = "not_due"
	OutcomeDue       Outcome = "due"
	OutcomeSent      Outcome = "sent"
	OutcomeFailed    Outcome = "failed"
	OutcomeOptedOut  Outcome = "opted_out"
	OutcomeNoEmail   Outcome = "no_email"
	OutcomeDuplicate Outcome = "already_notified"
)

// Attempt records the decision for one record.
type Attempt struct {
	Record  *registry.CustomerRecord
	Tier    Tier
	Outcome Outcome
	Err     error
}

// Failure describes a send that did not go through.
type Failure struct {
	Position  int    `json:"position"`
	Customer  string `json:"customer"`
	Recipient string `json:"recipient"`
	Tier      Tier   `json:"tier"`
	Reason    string `json:"reason"`
	// Retryable is false when the next run would fail the same way, such
	// as a template that cannot render.
	Retryable bool `json:"retryable"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s <%s> %s: %s", f.Customer, f.Recipient, f.Tier, f.Reason)
}

// Result aggregates a run of the machine.
type Result struct {
	Attempts []Attempt
	Sent     int
	Failed   int
	Skipped  int
	Failures []Failure
}

// =============================================================================
// MACHINE
// =============================================================================

// Config tunes the machine.
type Config struct {
	AdvanceDays int
	Policy      StatusPolicy
	Templates   Templates
}

// Machine walks records in source order and sends at most one message per
// record per run.
type Machine struct {
	sender registry.Sender
	cfg    Config
	log    *logger.Logger
}

// NewMachine creates a machine. Missing templates and policy take defaults.
// AdvanceDays 0 disables advance notices; a negative value takes
// DefaultAdvanceDays.
func NewMachine(sender registry.Sender, cfg Config, log *logger.Logger) *Machine {
	if cfg.Templates == nil {
		cfg.Templates = DefaultTemplates()
	}
	if cfg.AdvanceDays < 0 {
		cfg.AdvanceDays = DefaultAdvanceDays
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyDateOnly
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Machine{sender: sender, cfg: cfg, log: log}
}

// Evaluate decides a record's tier without side effects.
func (m *Machine) Evaluate(rec *registry.CustomerRecord, today registry.Date) (Classification, ManualStatus) {
	c := Classify(rec.NextReminderDate, today, m.cfg.AdvanceDays)
	manual := ParseManualStatus(rec.Status)
	c.Tier = m.cfg.Policy.Apply(c.Tier, manual)
	return c, manual
}

// Run classifies every record against today and sends what is due, one at
// a time in slice order. Tiers are fixed by today, not re-read between sends.
// Successful sends stamp LastNotifiedDate/LastNotifiedTier on the record;
// failures leave it untouched.
func (m *Machine) Run(ctx context.Context, records []*registry.CustomerRecord, today registry.Date) Result {
	var res Result
	for _, rec := range records {
		a := m.step(ctx, rec, today)
		res.Attempts = append(res.Attempts, a)

		switch a.Outcome {
		case OutcomeSent:
			res.Sent++
		case OutcomeFailed:
			res.Failed++
			res.Failures = append(res.Failures, Failure{
				Position:  rec.SourcePosition,
				Customer:  rec.Label(),
				Recipient: rec.Email,
				Tier:      a.Tier,
				Reason:    a.Err.Error(),
				Retryable: registry.IsRetryable(a.Err),
			})
		case OutcomeOptedOut, OutcomeNoEmail, OutcomeDuplicate:
			res.Skipped++
		}
	}
	return res
}

// Decide returns what a run would do for rec today without sending.
// A record that would be messaged comes back as OutcomeDue.
func (m *Machine) Decide(rec *registry.CustomerRecord, today registry.Date) (Classification, Outcome) {
	c, manual := m.Evaluate(rec, today)
	switch {
	case !c.Tier.Notifiable():
		return c, OutcomeNotDue
	case manual == ManualOptedOut:
		return c, OutcomeOptedOut
	case rec.Email == "":
		return c, OutcomeNoEmail
	case AlreadyNotified(rec, c.Tier, today):
		return c, OutcomeDuplicate
	}
	return c, OutcomeDue
}

func (m *Machine) step(ctx context.Context, rec *registry.CustomerRecord, today registry.Date) Attempt {
	c, outcome := m.Decide(rec, today)
	a := Attempt{Record: rec, Tier: c.Tier, Outcome: outcome}
	if outcome != OutcomeDue {
		return a
	}

	log := m.log.WithContext(ctx)
	if err := m.send(ctx, rec, c); err != nil {
		log.SendAttempt(rec.SourcePosition, rec.Email, string(c.Tier), err)
		a.Outcome = OutcomeFailed
		a.Err = err
		return a
	}

	log.SendAttempt(rec.SourcePosition, rec.Email, string(c.Tier), nil)
	rec.LastNotifiedDate = today
	rec.LastNotifiedTier = string(c.Tier)
	a.Outcome = OutcomeSent
	return a
}

func (m *Machine) send(ctx context.Context, rec *registry.CustomerRecord, c Classification) error {
	data := MessageData{
		Name:         rec.Name,
		Plate:        rec.PlateOrID,
		LastService:  rec.LastServiceDate.String(),
		DueDate:      rec.NextReminderDate.String(),
		DaysUntilDue: c.DaysUntilDue,
	}
	if c.DaysUntilDue < 0 {
		data.DaysOverdue = -c.DaysUntilDue
	}

	subject, body, err := m.cfg.Templates.Render(c.Tier, data)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, rec.Email, subject, body); err != nil {
		return &registry.DeliveryError{Recipient: rec.Email, Tier: string(c.Tier), Err: err}
	}
	return nil
}
