package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses
// the store for persistence so tests can swap sinks easily. When an inbox
// is attached, events also fan out to the background worker for external
// sinks; a full inbox drops the fan-out rather than blocking domain logic.
type Publisher struct {
	store  Store
	inbox  chan<- Event
	logger *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithInbox attaches the worker channel used for external fan-out.
func WithInbox(inbox chan<- Event) PublisherOption {
	return func(p *Publisher) { p.inbox = inbox }
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.WarnContext(ctx, "audit inbox full, dropping fan-out", "action", event.Action)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, userID string) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}
