package register

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"investgate/pkg/platform/sentinel"
)

// Store persists registration flows.
type Store interface {
	Save(ctx context.Context, reg *Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*Registration, error)
}

type InMemoryStore struct {
	mu    sync.RWMutex
	flows map[uuid.UUID]Registration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{flows: make(map[uuid.UUID]Registration)}
}

func (s *InMemoryStore) Save(_ context.Context, reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[reg.ID] = *reg
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if reg, ok := s.flows[id]; ok {
		copied := reg
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
