// Package cache provides a small byte-oriented cache used to avoid
// recomputing recommendation lists and user profiles per request.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL'd key-value cache. Values are opaque bytes; callers
// own serialization. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value and whether it was present and live.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL uses the
	// implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the cache's resources.
	Close() error
}
