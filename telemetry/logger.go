// Package telemetry provides structured logging and Prometheus metrics.
package telemetry

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger creates a structured JSON logger.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
