/*
store.go - Collaborator interfaces: tabular store and message transport

PURPOSE:
  The engine never owns its data. The customer table, the presentation
  table and the audit log all live in an external workbook reached through
  TableStore; messages leave through Sender.

RANGE MODEL:
  A Range anchors a block of cells at (Row, Col) of a sheet, both zero-based.
  Row 0 is the header row. Writes overwrite only the cells they cover unless
  Replace is set, in which case the sheet is cleared first.

IMPLEMENTATIONS:
  - store/memory:  in-process, for tests and dry runs
  - store/sqlite:  SQLite workbook
  - store/csvdir:  directory of CSV files
  - notify:        SMTP, Brevo API, log-only senders

SEE ALSO:
  - orchestrator/orchestrator.go: the only caller of these interfaces
*/
package registry

import "context"

// Table is a sheet snapshot: the first row split from the data rows.
// Data rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]any
}

// Range addresses a block of cells.
type Range struct {
	Sheet   string
	Row     int
	Col     int
	Replace bool
}

// At anchors a range at (row, col) of sheet.
func At(sheet string, row, col int) Range {
	return Range{Sheet: sheet, Row: row, Col: col}
}

// WholeSheet replaces the whole content of sheet.
func WholeSheet(sheet string) Range {
	return Range{Sheet: sheet, Replace: true}
}

// TableStore is the tabular backend.
type TableStore interface {
	// ReadTable returns the sheet's header and data rows.
	// Returns ErrSheetNotFound when the sheet does not exist.
	ReadTable(ctx context.Context, sheet string) (Table, error)

	// WriteRange overwrites cells starting at r's anchor, growing the
	// sheet as needed.
	WriteRange(ctx context.Context, r Range, cells [][]any) error

	// AppendRow adds a row after the last non-empty row.
	AppendRow(ctx context.Context, sheet string, cells []any) error

	// EnsureSheet creates sheet if missing and reports whether it did.
	EnsureSheet(ctx context.Context, sheet string) (bool, error)
}

// Sender delivers one message. Any error is a delivery failure.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
