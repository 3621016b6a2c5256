package otp

import (
	"context"
	"log/slog"
)

// LogSender writes codes to the log instead of delivering them. It stands
// in for the email and SMS providers in development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, identifier string, channel Channel, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "otp code issued",
		"identifier", identifier,
		"channel", string(channel),
		"code", code,
	)
	return nil
}
