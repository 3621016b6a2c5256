package storage

import "context"

// Blob is an uploaded proof document held as opaque bytes. The gateway
// validates type and size before storage and never interprets the content.
type Blob struct {
	Key         string
	ContentType string
	Data        []byte
}

// BlobStore is interface-driven to keep the domain logic testable and to
// allow swapping in-memory, file-based, or external persistence without
// rewiring business code.
type BlobStore interface {
	Put(ctx context.Context, blob Blob) error
	Get(ctx context.Context, key string) (Blob, error)
	Delete(ctx context.Context, key string) error
}
