/*
Package app wires a configuration bundle into a ready orchestrator.

STARTUP SEQUENCE:
  1. Validate configuration (no I/O before this succeeds)
  2. Open the table store for STORE_DRIVER
  3. Build the sender for EMAIL_PROVIDER, throttled
  4. Build the orchestrator

Both cmd/server and cmd/remindctl start here so the two entry points can
never disagree about wiring.
*/
package app

import (
	"fmt"

	"github.com/warp/reminder-engine/config"
	"github.com/warp/reminder-engine/logger"
	"github.com/warp/reminder-engine/notify"
	"github.com/warp/reminder-engine/orchestrator"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/store"
	"github.com/warp/reminder-engine/store/csvdir"
	"github.com/warp/reminder-engine/store/sqlite"
)

// App holds the wired components. Close releases the store.
type App struct {
	Config       *config.Config
	Store        registry.TableStore
	Sender       registry.Sender
	Orchestrator *orchestrator.Orchestrator

	close func() error
}

// New builds an App from cfg. clock may be nil for the system clock.
func New(cfg *config.Config, clock registry.Clock, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	st, closeStore, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	sender := NewSender(cfg, log)
	orch, err := orchestrator.New(Options(cfg), st, sender, clock, log)
	if err != nil {
		closeStore()
		return nil, err
	}

	log.Info("app_ready",
		"store", cfg.StoreDriver,
		"provider", cfg.EmailProvider,
		"source_sheet", cfg.SourceSheet,
	)
	return &App{Config: cfg, Store: st, Sender: sender, Orchestrator: orch, close: closeStore}, nil
}

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Options maps the configuration bundle onto orchestrator options.
func Options(cfg *config.Config) orchestrator.Options {
	return orchestrator.Options{
		SourceSheet:       cfg.SourceSheet,
		PresentationSheet: cfg.PresentationSheet,
		AuditSheet:        cfg.AuditSheet,
		IntervalMonths:    cfg.ServiceIntervalMonths,
		AdvanceDays:       cfg.AdvanceNoticeDays,
		Policy:            cfg.StatusPolicy,
		Synonyms:          cfg.Synonyms,
		Location:          cfg.Location,
	}
}

// OpenStore opens the configured table store.
func OpenStore(cfg *config.Config) (registry.TableStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), noop, nil
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.StoreDSN)
		if err != nil {
			return nil, nil, &registry.PersistenceError{Op: "open", Sheet: cfg.StoreDSN, Err: err}
		}
		return st, st.Close, nil
	case config.DriverCSV:
		st, err := csvdir.New(cfg.StoreDSN)
		if err != nil {
			return nil, nil, &registry.PersistenceError{Op: "open", Sheet: cfg.StoreDSN, Err: err}
		}
		return st, noop, nil
	default:
		return nil, nil, &registry.ConfigError{Field: "STORE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", cfg.StoreDriver)}
	}
}

// NewSender builds the configured transport. Real providers are throttled;
// the log sender is not.
func NewSender(cfg *config.Config, log *logger.Logger) registry.Sender {
	switch cfg.EmailProvider {
	case config.ProviderSMTP:
		s := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.EmailFromAddress, cfg.EmailFromName)
		return notify.Throttled(s, cfg.SendRatePerSecond, cfg.SendBurst)
	case config.ProviderBrevo:
		s := notify.NewBrevoSender(cfg.BrevoAPIKey, cfg.EmailFromAddress, cfg.EmailFromName)
		return notify.Throttled(s, cfg.SendRatePerSecond, cfg.SendBurst)
	default:
		return notify.NewLogSender(log)
	}
}
