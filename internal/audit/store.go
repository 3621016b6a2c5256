package audit

import "context"

// Store is the append-only persistence behind the publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
