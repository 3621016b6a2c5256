package otp

import "context"

// Store persists outstanding challenges keyed by identifier. One challenge
// per identifier: issuing again replaces the previous code.
type Store interface {
	Save(ctx context.Context, challenge Challenge) error
	Find(ctx context.Context, identifier string) (Challenge, error)
	Delete(ctx context.Context, identifier string) error
}
