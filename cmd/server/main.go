/*
main.go - Application entry point

PURPOSE:
  Starts the reminder engine as a long-running service: an HTTP API to
  trigger and inspect runs, plus a scheduler that syncs on an interval.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (.env + environment) and validate it
  3. Open the table store and build the sender + orchestrator
  4. Start the sync scheduler
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr       HTTP listen address (overrides HTTP_ADDR)
  -env-file   env file to load instead of ./.env
  -no-sched   disable the scheduler regardless of SYNC_INTERVAL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (an in-flight run is cancelled)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the store

EXAMPLES:
  # SQLite workbook, Brevo delivery
  STORE_DRIVER=sqlite STORE_DSN=./data/workbook.db EMAIL_PROVIDER=brevo ./server

  # Folder of CSV exports, dry run, no scheduler
  STORE_DRIVER=csv STORE_DSN=./export EMAIL_PROVIDER=log ./server -no-sched

SEE ALSO:
  - api/server.go: Router configuration
  - app/app.go: Wiring
  - config/config.go: Environment variables
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/reminder-engine/api"
	"github.com/warp/reminder-engine/app"
	"github.com/warp/reminder-engine/config"
	"github.com/warp/reminder-engine/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup happens before exit.
func run(args []string) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := fs.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	envFile := fs.String("env-file", "", "env file to load instead of ./.env")
	noSched := fs.Bool("no-sched", false, "disable the sync scheduler")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 2
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	log := logger.New(cfg.Env)

	a, err := app.New(cfg, nil, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		return 2
	}
	defer a.Close()

	runner := api.NewRunner(a.Orchestrator)

	interval := cfg.SyncInterval
	if *noSched {
		interval = 0
	}
	scheduler := api.NewSyncScheduler(runner, interval, log)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(runner, scheduler, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // POST /api/sync waits for the whole run
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server_starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		log.Error("server_failed", "error", err)
		return 1
	}

	log.Info("server_shutting_down")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server_forced_shutdown", "error", err)
	}

	log.Info("server_stopped")
	return 0
}
