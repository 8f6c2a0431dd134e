package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/warp/reminder-engine/orchestrator"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) json(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Summary prints a sync summary.
func (f *OutputFormatter) Summary(sum orchestrator.Summary) error {
	if f.Format == "json" {
		return f.json(sum)
	}
	fmt.Fprintf(f.Writer, "run %s (%s)\n", sum.RunID, sum.Today)
	fmt.Fprintf(f.Writer, "  processed: %d\n  sent:      %d\n  failed:    %d\n  skipped:   %d\n",
		sum.Processed, sum.Sent, sum.Failed, sum.Skipped)
	if len(sum.Appended) > 0 {
		fmt.Fprintf(f.Writer, "  appended columns: %v\n", sum.Appended)
	}
	for _, fl := range sum.Failures {
		fmt.Fprintf(f.Writer, "  ! %s\n", fl)
	}
	return nil
}

// Preview prints the classified records.
func (f *OutputFormatter) Preview(p orchestrator.Preview) error {
	if f.Format == "json" {
		return f.json(p)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPLATE\tEMAIL\tNEXT REMINDER\tDAYS\tTIER\tACTION")
	for _, r := range p.Rows {
		days := "-"
		if r.DaysUntilDue != nil {
			days = fmt.Sprint(*r.DaysUntilDue)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.PlateOrID, r.Email, r.NextReminder, days, r.Tier, r.Action)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "%d record(s), %d due today (%s)\n", len(p.Rows), p.Due, p.Today)
	return nil
}

// Runs prints audit history.
func (f *OutputFormatter) Runs(runs []orchestrator.AuditEntry) error {
	if f.Format == "json" {
		return f.json(runs)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tRUN\tPROCESSED\tSENT\tFAILED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.Timestamp, r.RunID, r.Processed, r.Sent, r.Failed, r.Skipped)
	}
	return tw.Flush()
}
