package registry

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// =============================================================================
// CUSTOMER RECORD
// =============================================================================

// ContactStatus says whether any contact channel is on file.
type ContactStatus string

const (
	ContactComplete ContactStatus = "COMPLETE"
	ContactMissing  ContactStatus = "MISSING"
)

// ContactStatusOf is MISSING exactly when both email and phone are blank.
func ContactStatusOf(email, phone string) ContactStatus {
	if strings.TrimSpace(email) == "" && strings.TrimSpace(phone) == "" {
		return ContactMissing
	}
	return ContactComplete
}

// CustomerRecord is one source row plus its derived fields. It lives for a
// single run.
type CustomerRecord struct {
	// SourcePosition is the zero-based data-row index in the source table.
	// The record's sheet row is SourcePosition+1 (row 0 is the header).
	SourcePosition int

	Name      string
	PlateOrID string
	Email     string
	Phone     string
	Status    string

	LastServiceRaw   any
	LastServiceDate  Date
	// DateErr is set when the last-service cell holds something that is not
	// a date. The derived dates are then empty.
	DateErr error
	NextReminderDate Date
	ContactStatus    ContactStatus

	LastNotifiedDate Date
	LastNotifiedTier string
}

// SheetRow is the record's row in the source sheet.
func (r *CustomerRecord) SheetRow() int { return r.SourcePosition + 1 }

// Label identifies the record in logs and failure details.
func (r *CustomerRecord) Label() string {
	switch {
	case r.Name != "" && r.PlateOrID != "":
		return r.Name + " (" + r.PlateOrID + ")"
	case r.Name != "":
		return r.Name
	case r.PlateOrID != "":
		return r.PlateOrID
	default:
		return "row " + strconv.Itoa(r.SheetRow()+1)
	}
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciliation holds both projections of one snapshot. Both slices share
// the same record pointers.
type Reconciliation struct {
	Records []*CustomerRecord // source order
	Sorted  []*CustomerRecord // by name, stable
}

// Reconcile builds one record per row and derives next-reminder date and
// contact status. Rows shorter than the header read as empty trailing cells.
// The next reminder is always recomputed; a stored value is never trusted.
func Reconcile(schema SchemaMap, rows [][]any, intervalMonths int) Reconciliation {
	records := make([]*CustomerRecord, 0, len(rows))
	for i, row := range rows {
		rec := &CustomerRecord{
			SourcePosition:   i,
			Name:             schema.Text(row, FieldName),
			PlateOrID:        schema.Text(row, FieldPlate),
			Email:            schema.Text(row, FieldEmail),
			Phone:            schema.Text(row, FieldPhone),
			Status:           schema.Text(row, FieldStatus),
			LastServiceRaw:   schema.Cell(row, FieldLastService),
			LastNotifiedTier: strings.ToUpper(schema.Text(row, FieldNotifiedTier)),
		}
		var ok bool
		rec.LastServiceDate, ok = NormalizeDate(rec.LastServiceRaw)
		if raw := CellText(rec.LastServiceRaw); !ok && raw != "" {
			rec.DateErr = fmt.Errorf("%w: last service %q", ErrParse, raw)
		}
		rec.NextReminderDate = NextServiceDate(rec.LastServiceDate, intervalMonths)
		rec.ContactStatus = ContactStatusOf(rec.Email, rec.Phone)
		rec.LastNotifiedDate, _ = NormalizeDate(schema.Cell(row, FieldNotifiedDate))
		records = append(records, rec)
	}
	return Reconciliation{Records: records, Sorted: SortByName(records)}
}

// SortByName returns a new slice ordered by case-folded name. Equal names
// keep their relative order, so sorting a sorted slice is a no-op.
func SortByName(records []*CustomerRecord) []*CustomerRecord {
	keys := make(map[*CustomerRecord]string, len(records))
	for _, r := range records {
		keys[r] = fold(r.Name)
	}
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b *CustomerRecord) int {
		return strings.Compare(keys[a], keys[b])
	})
	return sorted
}
