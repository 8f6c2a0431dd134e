// Package cli implements the remindctl command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/reminder-engine/app"
	"github.com/warp/reminder-engine/config"
	"github.com/warp/reminder-engine/logger"
	"github.com/warp/reminder-engine/registry"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // run completed (delivery failures included)
	ExitFailure      = 1 // fatal run error: schema or persistence
	ExitCommandError = 2 // bad flags or configuration
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func exitFor(err error) error {
	if errors.Is(err, registry.ErrConfiguration) {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	return &ExitError{Code: ExitFailure, Err: err}
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile     string
	Format      string // "json" | "text"
	StoreDriver string
	StoreDSN    string
	DryRun      bool
	Verbose     bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "remindctl",
		Short: "Service reminder sync engine",
		Long: `remindctl reconciles a customer table, regenerates the reminder view
and emails customers whose service is coming due.

Configuration comes from the environment and an optional .env file; the
store flags override STORE_DRIVER and STORE_DSN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return &ExitError{Code: ExitCommandError,
					Err: fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "env file to load instead of ./.env")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.StoreDriver, "store", "", "store driver (memory|sqlite|csv)")
	cmd.PersistentFlags().StringVar(&opts.StoreDSN, "dsn", "", "store location (sqlite file or csv directory)")
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "log messages instead of sending them")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// build loads configuration, applies flag overrides and wires the app.
func (o *RootOptions) build() (*app.App, error) {
	var files []string
	if o.EnvFile != "" {
		files = append(files, o.EnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, exitFor(err)
	}
	if o.StoreDriver != "" {
		cfg.StoreDriver = o.StoreDriver
	}
	if o.StoreDSN != "" {
		cfg.StoreDSN = o.StoreDSN
	}
	if o.DryRun {
		cfg.EmailProvider = config.ProviderLog
	}

	env := "production"
	if o.Verbose {
		env = "development"
	}
	log := logger.NewWithWriter(env, os.Stderr)
	if !o.Verbose && !o.DryRun {
		log = logger.Nop()
	}

	a, err := app.New(cfg, nil, log)
	if err != nil {
		return nil, exitFor(err)
	}
	return a, nil
}
