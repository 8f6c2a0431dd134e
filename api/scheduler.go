/*
scheduler.go - Periodic sync trigger

PURPOSE:
  Runs a sync every Interval so reminders go out without an external cron.

DESIGN:
  - Runs a background goroutine with a ticker
  - Runs once immediately on start
  - Goes through the shared Runner, so a tick that lands while an HTTP
    triggered run is active is skipped, not queued
  - Each tick gets its own timeout context; Stop cancels an in-flight run

CONFIGURATION:
  - Interval: time between runs (SYNC_INTERVAL, default 24h)
  - Enabled:  false when Interval is 0

USAGE:
  scheduler := NewSyncScheduler(runner, 24*time.Hour, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - runner.go: in-process run serialization
  - handlers.go: TriggerSync endpoint (manual run)
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/reminder-engine/logger"
)

// SyncScheduler triggers syncs on a fixed interval.
type SyncScheduler struct {
	Runner   *Runner
	Interval time.Duration
	Timeout  time.Duration
	Enabled  bool

	log    *logger.Logger
	ticker *time.Ticker
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	tickMu   sync.Mutex
	lastTick time.Time // zero while stopped
}

// NewSyncScheduler creates a scheduler. A non-positive interval disables it.
func NewSyncScheduler(runner *Runner, interval time.Duration, log *logger.Logger) *SyncScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncScheduler{
		Runner:   runner,
		Interval: interval,
		Timeout:  30 * time.Minute,
		Enabled:  interval > 0,
		log:      log.WithComponent("scheduler"),
	}
}

// Start begins the scheduler.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Info("scheduler_disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ticker = time.NewTicker(s.Interval)
	s.setLastTick(time.Now())
	s.wg.Add(1)

	go s.run()

	s.log.Info("scheduler_started", slog.Duration("interval", s.Interval))
}

// Stop stops the scheduler and waits for an in-flight run to return.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.cancel()
	s.wg.Wait()
	s.ticker = nil
	s.setLastTick(time.Time{})
	s.log.Info("scheduler_stopped")
}

func (s *SyncScheduler) run() {
	defer s.wg.Done()

	s.tick()

	for {
		select {
		case t := <-s.ticker.C:
			s.setLastTick(t)
			s.tick()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *SyncScheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.Timeout)
	defer cancel()
	s.RunNow(ctx)
}

// RunNow triggers an immediate run and logs its outcome.
func (s *SyncScheduler) RunNow(ctx context.Context) {
	sum, err := s.Runner.Run(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Info("scheduled_run_skipped", slog.String("reason", err.Error()))
	case err != nil:
		s.log.Error("scheduled_run_failed", slog.String("error", err.Error()))
	default:
		s.log.Info("scheduled_run_completed",
			slog.String("run_id", sum.RunID),
			slog.Int("sent", sum.Sent),
			slog.Int("failed", sum.Failed),
		)
	}
}

func (s *SyncScheduler) setLastTick(t time.Time) {
	s.tickMu.Lock()
	s.lastTick = t
	s.tickMu.Unlock()
}

// NextRunTime returns when the ticker fires next, one interval after the
// last tick. It is zero while the scheduler is not running.
func (s *SyncScheduler) NextRunTime() time.Time {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.lastTick.IsZero() {
		return time.Time{}
	}
	return s.lastTick.Add(s.Interval)
}
