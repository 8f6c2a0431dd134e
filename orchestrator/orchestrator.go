/*
orchestrator.go - One sync run over the customer table

PURPOSE:
  Sequences a run end to end and reports what happened:

    1. read the source sheet            (fatal on failure, nothing written yet)
    2. resolve the header, extend it    (header persisted before any data)
    3. reconcile rows into records
    4. write nextReminder + contactFlag (only those columns)
    5. regenerate the presentation sheet (full overwrite, sorted by name)
    6. run the reminder machine         (source order, sequential)
    7. write notifiedDate + notifiedTier
    8. append one audit row

FAILURE MODEL:
  Configuration and schema errors abort before any write. A persistence
  error aborts wherever it happens; earlier writes stay (no rollback).
  Delivery failures never abort: they are counted, listed in the summary
  and audit row, and retried on the next run because state only advances
  on success.

CONCURRENCY:
  A run is sequential. The Orchestrator does not serialize overlapping
  runs against the same workbook; callers that may overlap (API and
  scheduler) must share one runner (see api.Runner).

SEE ALSO:
  - registry/: schema, normalization, reconciliation
  - reminder/machine.go: send cascade
  - audit.go, presentation.go: the two generated sheets
*/
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/reminder-engine/logger"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/reminder"
)

// Options is the explicit configuration of a run.
type Options struct {
	SourceSheet       string
	PresentationSheet string
	AuditSheet        string

	IntervalMonths int
	AdvanceDays    int
	Policy         reminder.StatusPolicy
	Templates      reminder.Templates
	Synonyms       registry.Synonyms

	// Location decides which calendar day "today" is.
	Location *time.Location
}

// Validate rejects options a run cannot start with.
func (o Options) Validate() error {
	switch {
	case strings.TrimSpace(o.SourceSheet) == "":
		return &registry.ConfigError{Field: "SourceSheet", Reason: "required"}
	case strings.TrimSpace(o.PresentationSheet) == "":
		return &registry.ConfigError{Field: "PresentationSheet", Reason: "required"}
	case strings.TrimSpace(o.AuditSheet) == "":
		return &registry.ConfigError{Field: "AuditSheet", Reason: "required"}
	case o.SourceSheet == o.PresentationSheet:
		return &registry.ConfigError{Field: "PresentationSheet", Reason: "must differ from the source sheet"}
	case o.AdvanceDays < 0:
		return &registry.ConfigError{Field: "AdvanceDays", Reason: "negative"}
	}
	return nil
}

// Summary is the caller-facing result of a run.
type Summary struct {
	RunID     string             `json:"run_id"`
	StartedAt time.Time          `json:"started_at"`
	Today     string             `json:"today"`
	Processed int                `json:"processed"`
	Sent      int                `json:"sent"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped"`
	Failures  []reminder.Failure `json:"failures"`
	Appended  []registry.Field   `json:"appended_columns,omitempty"`
}

// Orchestrator runs syncs against one store and one sender.
type Orchestrator struct {
	opts    Options
	store   registry.TableStore
	machine *reminder.Machine
	clock   registry.Clock
	log     *logger.Logger
}

// New validates opts and builds an orchestrator. Nil clock and logger take
// the system clock and a no-op logger.
func New(opts Options, store registry.TableStore, sender registry.Sender, clock registry.Clock, log *logger.Logger) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, &registry.ConfigError{Field: "store", Reason: "required"}
	}
	if sender == nil {
		return nil, &registry.ConfigError{Field: "sender", Reason: "required"}
	}
	if opts.Synonyms == nil {
		opts.Synonyms = registry.DefaultSynonyms()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if clock == nil {
		clock = registry.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("orchestrator")

	m := reminder.NewMachine(sender, reminder.Config{
		AdvanceDays: opts.AdvanceDays,
		Policy:      opts.Policy,
		Templates:   opts.Templates,
	}, log)

	return &Orchestrator{opts: opts, store: store, machine: m, clock: clock, log: log}, nil
}

// Options returns the run configuration.
func (o *Orchestrator) Options() Options { return o.opts }

// =============================================================================
// SYNC
// =============================================================================

// Sync performs one full run. The summary is returned even on error and
// holds whatever was counted before the failure.
func (o *Orchestrator) Sync(ctx context.Context) (Summary, error) {
	today := registry.Today(o.clock, o.opts.Location)
	sum := Summary{
		RunID:     uuid.NewString(),
		StartedAt: o.clock.Now().In(o.opts.Location),
		Today:     today.String(),
	}
	ctx = context.WithValue(ctx, logger.RunIDKey, sum.RunID)
	log := o.log.WithContext(ctx)

	log.Info("sync_started", slog.String("today", sum.Today))

	snap, err := o.load(ctx)
	if err != nil {
		log.Error("sync_aborted", slog.String("error", err.Error()))
		return sum, err
	}
	sum.Appended = snap.resolution.Appended
	sum.Processed = len(snap.records.Records)

	if err := o.persistHeader(ctx, snap); err != nil {
		return sum, o.abort(log, err)
	}
	if err := o.persistDerived(ctx, snap); err != nil {
		return sum, o.abort(log, err)
	}
	if err := o.persistPresentation(ctx, snap, today); err != nil {
		return sum, o.abort(log, err)
	}

	result := o.machine.Run(ctx, snap.records.Records, today)
	sum.Sent, sum.Failed, sum.Skipped = result.Sent, result.Failed, result.Skipped
	sum.Failures = append([]reminder.Failure{}, result.Failures...)

	// Messages may already be out. The notified-today stamps are the only
	// thing preventing a resend, so they are written even if ctx is done.
	wctx := context.WithoutCancel(ctx)
	if err := o.persistNotified(wctx, snap, result); err != nil {
		return sum, o.abort(log, err)
	}
	if err := o.appendAudit(wctx, sum); err != nil {
		return sum, o.abort(log, err)
	}

	log.Info("sync_completed",
		slog.Int("processed", sum.Processed),
		slog.Int("sent", sum.Sent),
		slog.Int("failed", sum.Failed),
		slog.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

func (o *Orchestrator) abort(log *logger.Logger, err error) error {
	var pe *registry.PersistenceError
	if errors.As(err, &pe) {
		log.StoreError(pe.Op, pe.Sheet, pe.Err)
	}
	log.Error("sync_aborted", slog.String("error", err.Error()))
	return err
}

// =============================================================================
// SNAPSHOT
// =============================================================================

type snapshot struct {
	table      registry.Table
	resolution registry.Resolution
	records    registry.Reconciliation
}

func (s snapshot) schema() registry.SchemaMap { return s.resolution.Schema }

// load reads the source sheet and reconciles it. Nothing is written.
func (o *Orchestrator) load(ctx context.Context) (snapshot, error) {
	sheet := o.opts.SourceSheet
	table, err := o.store.ReadTable(ctx, sheet)
	if errors.Is(err, registry.ErrSheetNotFound) {
		return snapshot{}, &registry.SchemaError{Sheet: sheet, Reason: "sheet does not exist"}
	}
	if err != nil {
		return snapshot{}, &registry.PersistenceError{Op: "read", Sheet: sheet, Err: err}
	}
	if blankHeader(table.Header) {
		return snapshot{}, &registry.SchemaError{Sheet: sheet, Reason: "no header row"}
	}

	res := registry.ResolveSchema(table.Header, o.opts.Synonyms)
	if _, ok := res.Schema.Index(registry.FieldName); !ok {
		o.log.WithContext(ctx).Warn("schema_field_unresolved", slog.String("field", string(registry.FieldName)))
	}
	if _, ok := res.Schema.Index(registry.FieldLastService); !ok {
		o.log.WithContext(ctx).Warn("schema_field_unresolved", slog.String("field", string(registry.FieldLastService)))
	}

	records := registry.Reconcile(res.Schema, table.Rows, o.opts.IntervalMonths)
	for _, rec := range records.Records {
		if rec.DateErr != nil {
			o.log.WithContext(ctx).Warn("record_date_unparseable",
				slog.Int("row", rec.SheetRow()+1),
				slog.String("customer", rec.Label()),
				slog.String("error", rec.DateErr.Error()),
			)
		}
	}

	return snapshot{
		table:      table,
		resolution: res,
		records:    records,
	}, nil
}

func blankHeader(h []string) bool {
	for _, c := range h {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITES
// =============================================================================

// persistHeader writes only the appended header cells.
func (o *Orchestrator) persistHeader(ctx context.Context, s snapshot) error {
	if !s.resolution.Extended() {
		return nil
	}
	header := s.schema().Header()
	from := len(s.table.Header)
	cells := make([]any, 0, len(header)-from)
	for _, h := range header[from:] {
		cells = append(cells, h)
	}
	return o.write(ctx, registry.At(o.opts.SourceSheet, 0, from), [][]any{cells})
}

// persistDerived writes the recomputed columns, one column at a time, so
// no other cell of the source rows is touched.
func (o *Orchestrator) persistDerived(ctx context.Context, s snapshot) error {
	return o.writeColumns(ctx, s, []registry.Field{registry.FieldNextReminder, registry.FieldContactFlag},
		func(rec *registry.CustomerRecord, f registry.Field) any {
			if f == registry.FieldNextReminder {
				return rec.NextReminderDate.String()
			}
			return string(rec.ContactStatus)
		})
}

// persistNotified writes the notification state. Records not stamped this
// run keep their original cells.
func (o *Orchestrator) persistNotified(ctx context.Context, s snapshot, res reminder.Result) error {
	if res.Sent == 0 {
		return nil
	}
	stamped := make(map[int]bool, res.Sent)
	for _, a := range res.Attempts {
		if a.Outcome == reminder.OutcomeSent {
			stamped[a.Record.SourcePosition] = true
		}
	}
	schema := s.schema()
	return o.writeColumns(ctx, s, []registry.Field{registry.FieldNotifiedDate, registry.FieldNotifiedTier},
		func(rec *registry.CustomerRecord, f registry.Field) any {
			if !stamped[rec.SourcePosition] {
				if v := schema.Cell(s.table.Rows[rec.SourcePosition], f); v != nil {
					return v
				}
				return ""
			}
			if f == registry.FieldNotifiedDate {
				return rec.LastNotifiedDate.String()
			}
			return rec.LastNotifiedTier
		})
}

func (o *Orchestrator) writeColumns(ctx context.Context, s snapshot, fields []registry.Field, value func(*registry.CustomerRecord, registry.Field) any) error {
	records := s.records.Records
	if len(records) == 0 {
		return nil
	}
	for _, f := range fields {
		col, ok := s.schema().Index(f)
		if !ok {
			continue
		}
		cells := make([][]any, len(records))
		for i, rec := range records {
			cells[i] = []any{value(rec, f)}
		}
		if err := o.write(ctx, registry.At(o.opts.SourceSheet, 1, col), cells); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) persistPresentation(ctx context.Context, s snapshot, today registry.Date) error {
	sheet := o.opts.PresentationSheet
	if _, err := o.store.EnsureSheet(ctx, sheet); err != nil {
		return &registry.PersistenceError{Op: "ensure", Sheet: sheet, Err: err}
	}
	return o.write(ctx, registry.WholeSheet(sheet), presentationGrid(s.records.Sorted, o.machine, today))
}

func (o *Orchestrator) write(ctx context.Context, r registry.Range, cells [][]any) error {
	if err := o.store.WriteRange(ctx, r, cells); err != nil {
		return &registry.PersistenceError{Op: "write", Sheet: r.Sheet, Err: err}
	}
	return nil
}
