package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/reminder-engine/orchestrator"
)

// ErrRunInProgress is returned when a sync is requested while one is running.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// Syncer is the part of the orchestrator the API drives.
type Syncer interface {
	Sync(ctx context.Context) (orchestrator.Summary, error)
	Preview(ctx context.Context) (orchestrator.Preview, error)
	Runs(ctx context.Context, limit int) ([]orchestrator.AuditEntry, error)
}

// Runner serializes sync runs within the process. The HTTP trigger and the
// scheduler share one Runner; a second request while a run is active is
// rejected rather than queued.
type Runner struct {
	syncer Syncer

	running sync.Mutex
	mu      sync.RWMutex
	last    *LastRun
}

// LastRun is the outcome of the most recent run.
type LastRun struct {
	Summary    orchestrator.Summary `json:"summary"`
	Error      string               `json:"error,omitempty"`
	FinishedAt time.Time            `json:"finished_at"`
}

func NewRunner(s Syncer) *Runner {
	return &Runner{syncer: s}
}

// Run performs one sync unless another is in flight.
func (r *Runner) Run(ctx context.Context) (orchestrator.Summary, error) {
	if !r.running.TryLock() {
		return orchestrator.Summary{}, ErrRunInProgress
	}
	defer r.running.Unlock()

	sum, err := r.syncer.Sync(ctx)

	last := &LastRun{Summary: sum, FinishedAt: time.Now().UTC()}
	if err != nil {
		last.Error = err.Error()
	}
	r.mu.Lock()
	r.last = last
	r.mu.Unlock()

	return sum, err
}

// Last returns the most recent run, nil before the first one.
func (r *Runner) Last() *LastRun {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Syncer exposes the underlying syncer for read-only operations.
func (r *Runner) Syncer() Syncer { return r.syncer }
