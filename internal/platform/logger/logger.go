package logger

import (
	"log/slog"
	"os"
)

// New returns the service-wide structured logger. Handlers and services log
// through slog with request_id attributes added by middleware.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
