package audit

import (
	"context"
	"log/slog"
)

// Sink receives audit events bound for systems outside the gateway.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel and forwards them to an
// external sink. Sink failures are logged and skipped; the store copy
// written by the publisher remains the source of truth.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink publish failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
