// Package cache provides the cache type constants.
package cache

// Type represents the type of cache backend.
type Type string

const (
	// TypeMemory represents the in-process cache.
	TypeMemory Type = "memory"
	// TypeRedis represents a Redis cache.
	TypeRedis Type = "redis"
)
