package kyc

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"investgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	flows map[uuid.UUID]Flow
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{flows: make(map[uuid.UUID]Flow)}
}

func (s *InMemoryStore) Save(_ context.Context, flow *Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.ID] = *flow
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if flow, ok := s.flows[id]; ok {
		copied := flow
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
