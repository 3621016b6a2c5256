package storage

import "investgate/pkg/platform/sentinel"

// ErrNotFound keeps storage-specific misses consistent across in-memory and
// future implementations.
var ErrNotFound = sentinel.ErrNotFound
