package kyc

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SignResult is the provider's asynchronous outcome, surfaced to the flow
// as a plain value.
type SignResult struct {
	Succeeded bool
	Reference string
	Reason    string
}

// Provider abstracts the external eSign integration. A real Aadhaar eSign
// provider is a drop-in substitution with no change to the gating logic.
type Provider interface {
	Sign(ctx context.Context, flowID uuid.UUID, signerName string) (SignResult, error)
}

// SimulatedProvider stands in for the real integration during development.
// It answers after a fixed delay, honoring context cancellation, which
// mirrors the timer-driven callback of the production provider.
type SimulatedProvider struct {
	Delay   time.Duration
	Succeed bool
}

func (p *SimulatedProvider) Sign(ctx context.Context, flowID uuid.UUID, _ string) (SignResult, error) {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return SignResult{}, ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	if !p.Succeed {
		return SignResult{Succeeded: false, Reason: "signature declined"}, nil
	}
	return SignResult{Succeeded: true, Reference: "sim-" + flowID.String()}, nil
}
