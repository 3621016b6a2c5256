package storage

import (
	"context"
	"sync"
)

// InMemoryBlobStore keeps documents in process memory. It intentionally
// favors clarity over performance; real deployments swap in object storage
// behind the same interface.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string]Blob)}
}

func (s *InMemoryBlobStore) Put(_ context.Context, blob Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(blob.Data))
	copy(copied, blob.Data)
	blob.Data = copied
	s.blobs[blob.Key] = blob
	return nil
}

func (s *InMemoryBlobStore) Get(_ context.Context, key string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if blob, ok := s.blobs[key]; ok {
		return blob, nil
	}
	return Blob{}, ErrNotFound
}

func (s *InMemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}
