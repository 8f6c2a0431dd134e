// Package logger provides structured logging for the engine.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

// RunIDKey is the context key for the current sync run ID.
const RunIDKey contextKey = "run_id"

// Logger wraps slog.Logger for structured logging.
type Logger struct {
	*slog.Logger
}

// New creates a logger for env. Development gets human-readable text at
// debug level, everything else JSON at info.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New writing to w.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger carrying the run ID stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		return l.WithRun(runID)
	}
	return l
}

// WithRun returns a logger tagged with runID.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{Logger: l.With(slog.String("run_id", runID))}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.With(slog.String("component", name))}
}

// SendAttempt logs the outcome of one notification.
func (l *Logger) SendAttempt(position int, recipient, tier string, err error) {
	if err == nil {
		l.Info("reminder_sent",
			slog.Int("position", position),
			slog.String("recipient", recipient),
			slog.String("tier", tier),
		)
		return
	}
	l.Warn("reminder_failed",
		slog.Int("position", position),
		slog.String("recipient", recipient),
		slog.String("tier", tier),
		slog.String("error", err.Error()),
	)
}

// StoreError logs a failed table operation.
func (l *Logger) StoreError(operation, sheet string, err error) {
	l.Error("store_error",
		slog.String("operation", operation),
		slog.String("sheet", sheet),
		slog.String("error", err.Error()),
	)
}
