// Package cache defines the session-cache interface and type constants.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for session-cache operations.
//
// The cache is a best-effort accelerator: every implementation must
// tolerate losing entries at any time, because the durable repository
// is the source of truth.
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns nil if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Sweep evicts entries whose TTL has passed and returns the number
	// evicted. Backends with server-side expiry may report zero.
	Sweep(ctx context.Context) (int, error)

	// Ping checks if the cache backend is alive.
	Ping(ctx context.Context) error

	// Close releases cache resources.
	Close() error
}
