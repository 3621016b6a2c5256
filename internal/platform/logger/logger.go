package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Production environments log
// JSON; everything else gets the text handler for readability.
func New(environment string) *slog.Logger {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
