package otp

import (
	"context"
	"sync"

	"investgate/pkg/platform/sentinel"
)

// InMemoryStore keeps challenges in a map. Expiry is enforced by the
// service, not the store, so tests can inject a clock.
type InMemoryStore struct {
	mu         sync.RWMutex
	challenges map[string]Challenge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{challenges: make(map[string]Challenge)}
}

func (s *InMemoryStore) Save(_ context.Context, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.Identifier] = challenge
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, identifier string) (Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ch, ok := s.challenges[identifier]; ok {
		return ch, nil
	}
	return Challenge{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, identifier)
	return nil
}
