/*
dto.go - Response types and error mapping

PURPOSE:
  Defines the JSON envelopes the API returns that are not domain types
  themselves. Summaries, previews and audit entries are serialized as-is
  from the orchestrator package.

ERROR MAPPING:
  ErrRunInProgress         409 Conflict
  ConfigError, SchemaError 422 Unprocessable Entity
  PersistenceError         502 Bad Gateway (the store is an upstream)
  anything else            500

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/warp/reminder-engine/registry"
)

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// StatusDTO reports scheduler and last-run state.
type StatusDTO struct {
	LastRun          *LastRun   `json:"last_run"`
	SchedulerEnabled bool       `json:"scheduler_enabled"`
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error, details any) {
	status, code := statusFor(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code, Details: details})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict, "run_in_progress"
	case errors.Is(err, registry.ErrConfiguration):
		return http.StatusUnprocessableEntity, "configuration"
	case errors.Is(err, registry.ErrSchema):
		return http.StatusUnprocessableEntity, "schema"
	case errors.Is(err, registry.ErrPersistence):
		return http.StatusBadGateway, "persistence"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
