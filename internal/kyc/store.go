package kyc

import (
	"context"

	"github.com/google/uuid"
)

// Store persists KYC flows. Progress survives navigation; the resume token
// only identifies the flow, never carries form state.
type Store interface {
	Save(ctx context.Context, flow *Flow) error
	FindByID(ctx context.Context, id uuid.UUID) (*Flow, error)
}
