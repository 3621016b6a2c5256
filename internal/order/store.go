package order

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"investgate/pkg/platform/sentinel"
)

// Store persists review sessions. Sessions are short-lived; a memory
// store is the normal deployment shape.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[uuid.UUID]Session)}
}

func (s *InMemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sess
	stored.Acknowledgments = copyAcks(sess.Acknowledgments)
	s.sessions[sess.ID] = stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		copied := sess
		copied.Acknowledgments = copyAcks(sess.Acknowledgments)
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func copyAcks(acks map[string]bool) map[string]bool {
	copied := make(map[string]bool, len(acks))
	for k, v := range acks {
		copied[k] = v
	}
	return copied
}
