package cli

import (
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync",
		Long: `Run one full sync: recompute derived columns, regenerate the reminder
view, send due reminders and append an audit row.

Delivery failures are reported but do not fail the command; they are
retried on the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.build()
			if err != nil {
				return err
			}
			defer a.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			sum, err := a.Orchestrator.Sync(cmd.Context())
			if err != nil {
				return exitFor(err)
			}
			return out.Summary(sum)
		},
	}
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show what the next sync would do, without writing or sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.build()
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Orchestrator.Preview(cmd.Context())
			if err != nil {
				return exitFor(err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Preview(p)
		},
	}
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the audit sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.build()
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.Orchestrator.Runs(cmd.Context(), limit)
			if err != nil {
				return exitFor(err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Runs(runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show (0 for all)")
	return cmd
}
