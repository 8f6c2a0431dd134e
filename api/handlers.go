/*
handlers.go - HTTP API handlers for the reminder engine

ENDPOINTS:
  POST /api/sync      Run a sync now (409 if one is running)
  GET  /api/preview   Reconcile and classify without writing or sending
  GET  /api/runs      Audit history, newest first (?limit=N, default 20)
  GET  /api/status    Last run and next scheduled run
  GET  /healthz       Liveness

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the runner / orchestrator
  3. Serialize response
  4. Map errors (see dto.go)

SECURITY NOTE:
  No authentication. Deploy behind a private network or an auth proxy.

SEE ALSO:
  - dto.go: error mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/warp/reminder-engine/logger"
	"github.com/warp/reminder-engine/registry"
)

const defaultRunsLimit = 20

// Handler holds the API dependencies.
type Handler struct {
	Runner    *Runner
	Scheduler *SyncScheduler

	log *logger.Logger
}

// NewHandler creates a handler. scheduler may be nil.
func NewHandler(runner *Runner, scheduler *SyncScheduler, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{Runner: runner, Scheduler: scheduler, log: log.WithComponent("api")}
}

// TriggerSync handles POST /api/sync. The run outlives a client that
// disconnects mid-request.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		h.log.WithContext(r.Context()).Warn("sync_request_failed", slog.String("error", err.Error()))
		var details any
		if errors.Is(err, registry.ErrPersistence) {
			details = sum
		}
		writeError(w, err, details)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GetPreview handles GET /api/preview.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	p, err := h.Runner.Syncer().Preview(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Code: "bad_request"})
			return
		}
		limit = n
	}

	runs, err := h.Runner.Syncer().Runs(r.Context(), limit)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := StatusDTO{LastRun: h.Runner.Last()}
	if h.Scheduler != nil && h.Scheduler.Enabled {
		st.SchedulerEnabled = true
		if next := h.Scheduler.NextRunTime(); !next.IsZero() {
			st.NextRunAt = &next
		}
	}
	writeJSON(w, http.StatusOK, st)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
