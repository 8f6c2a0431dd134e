package orchestrator

import (
	"context"
	"log/slog"

	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/reminder"
)

// PresentationHeader is the header row of the generated sheet.
var PresentationHeader = []string{
	"Name", "Plate/ID", "Email", "Phone", "Last Service",
	"Next Reminder", "Days Until Due", "Tier", "Contact",
}

// Row is one record as shown in the presentation sheet and in previews.
type Row struct {
	Position     int              `json:"position"`
	Name         string           `json:"name"`
	PlateOrID    string           `json:"plate_or_id"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	LastService  string           `json:"last_service"`
	NextReminder string           `json:"next_reminder"`
	DaysUntilDue *int             `json:"days_until_due"`
	Tier         reminder.Tier    `json:"tier"`
	Contact      string           `json:"contact"`
	Action       reminder.Outcome `json:"action"`
}

func rowOf(rec *registry.CustomerRecord, m *reminder.Machine, today registry.Date) Row {
	c, action := m.Decide(rec, today)
	r := Row{
		Position:     rec.SourcePosition,
		Name:         rec.Name,
		PlateOrID:    rec.PlateOrID,
		Email:        rec.Email,
		Phone:        rec.Phone,
		LastService:  rec.LastServiceDate.String(),
		NextReminder: rec.NextReminderDate.String(),
		Tier:         c.Tier,
		Contact:      string(rec.ContactStatus),
		Action:       action,
	}
	if c.Dated {
		days := c.DaysUntilDue
		r.DaysUntilDue = &days
	}
	return r
}

func (r Row) cells() []any {
	var days any = ""
	if r.DaysUntilDue != nil {
		days = *r.DaysUntilDue
	}
	return []any{
		r.Name, r.PlateOrID, r.Email, r.Phone, r.LastService,
		r.NextReminder, days, string(r.Tier), r.Contact,
	}
}

// presentationGrid renders sorted records under PresentationHeader.
func presentationGrid(sorted []*registry.CustomerRecord, m *reminder.Machine, today registry.Date) [][]any {
	grid := make([][]any, 0, len(sorted)+1)
	header := make([]any, len(PresentationHeader))
	for i, h := range PresentationHeader {
		header[i] = h
	}
	grid = append(grid, header)
	for _, rec := range sorted {
		grid = append(grid, rowOf(rec, m, today).cells())
	}
	return grid
}

// =============================================================================
// PREVIEW
// =============================================================================

// Preview is a read-only reconciliation: what the next sync would derive
// and who it would message.
type Preview struct {
	Today    string           `json:"today"`
	Header   []string         `json:"header"`
	Appended []registry.Field `json:"appended_columns,omitempty"`
	Rows     []Row            `json:"rows"`
	Due      int              `json:"due"`
}

// Preview reads the source sheet and classifies every record without
// writing or sending anything. Rows are sorted by name.
func (o *Orchestrator) Preview(ctx context.Context) (Preview, error) {
	today := registry.Today(o.clock, o.opts.Location)
	snap, err := o.load(ctx)
	if err != nil {
		return Preview{}, err
	}

	p := Preview{
		Today:    today.String(),
		Header:   snap.schema().Header(),
		Appended: snap.resolution.Appended,
		Rows:     make([]Row, 0, len(snap.records.Sorted)),
	}
	for _, rec := range snap.records.Sorted {
		r := rowOf(rec, o.machine, today)
		if r.Action == reminder.OutcomeDue {
			p.Due++
		}
		p.Rows = append(p.Rows, r)
	}

	o.log.WithContext(ctx).Debug("preview_built",
		slog.Int("records", len(p.Rows)),
		slog.Int("due", p.Due),
	)
	return p, nil
}
