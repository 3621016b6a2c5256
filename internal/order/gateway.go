package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SimulatedGateway accepts or rejects every submission after an optional
// delay. It stands in for the exchange-facing payment collaborator in
// development.
type SimulatedGateway struct {
	Delay  time.Duration
	Accept bool
	Reason string
}

func (g *SimulatedGateway) Submit(ctx context.Context, _ OrderLine, _ Totals) (SubmitResult, error) {
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return SubmitResult{}, ctx.Err()
		}
	}
	if !g.Accept {
		return SubmitResult{Accepted: false, Reason: g.Reason}, nil
	}
	return SubmitResult{Accepted: true, Reference: uuid.NewString()}, nil
}
