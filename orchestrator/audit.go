package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/warp/reminder-engine/registry"
)

// AuditHeader is written once when the audit sheet is created.
var AuditHeader = []any{"Timestamp", "Run ID", "Processed", "Sent", "Failed", "Skipped", "Details"}

// AuditEntry is one audit row read back.
type AuditEntry struct {
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Details   string `json:"details"`
}

func auditRow(sum Summary) []any {
	details := make([]string, 0, len(sum.Failures))
	for _, f := range sum.Failures {
		details = append(details, f.String())
	}
	return []any{
		sum.StartedAt.Format(time.RFC3339),
		sum.RunID,
		sum.Processed,
		sum.Sent,
		sum.Failed,
		sum.Skipped,
		strings.Join(details, "; "),
	}
}

func (o *Orchestrator) appendAudit(ctx context.Context, sum Summary) error {
	sheet := o.opts.AuditSheet
	created, err := o.store.EnsureSheet(ctx, sheet)
	if err != nil {
		return &registry.PersistenceError{Op: "ensure", Sheet: sheet, Err: err}
	}
	if created {
		if err := o.store.AppendRow(ctx, sheet, AuditHeader); err != nil {
			return &registry.PersistenceError{Op: "append", Sheet: sheet, Err: err}
		}
	}
	if err := o.store.AppendRow(ctx, sheet, auditRow(sum)); err != nil {
		return &registry.PersistenceError{Op: "append", Sheet: sheet, Err: err}
	}
	return nil
}

// Runs returns the most recent audit entries, newest first. limit <= 0
// returns all of them. A missing audit sheet means no runs yet.
func (o *Orchestrator) Runs(ctx context.Context, limit int) ([]AuditEntry, error) {
	sheet := o.opts.AuditSheet
	table, err := o.store.ReadTable(ctx, sheet)
	if err != nil {
		if errors.Is(err, registry.ErrSheetNotFound) {
			return []AuditEntry{}, nil
		}
		return nil, &registry.PersistenceError{Op: "read", Sheet: sheet, Err: err}
	}

	entries := make([]AuditEntry, 0, len(table.Rows))
	for i := len(table.Rows) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) == limit {
			break
		}
		entries = append(entries, parseAudit(table.Rows[i]))
	}
	return entries, nil
}

func parseAudit(row []any) AuditEntry {
	text := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return registry.CellText(row[i])
	}
	num := func(i int) int {
		n, _ := strconv.Atoi(text(i))
		return n
	}
	return AuditEntry{
		Timestamp: text(0),
		RunID:     text(1),
		Processed: num(2),
		Sent:      num(3),
		Failed:    num(4),
		Skipped:   num(5),
		Details:   text(6),
	}
}
