// Package counter provides clients for the atomic counter store that backs
// rate limiting.
//
// The store is the single shared mutable resource of the quota engine: all
// mutation goes through the atomic Incr and Expire primitives it exposes.
// The engine never reads, modifies, and writes a counter value itself.
//
// Implementations:
// - RESTStore: HTTP counter service with bearer-token auth (production)
// - RedisStore: directly reachable Redis (production, self-hosted)
// - MemoryStore: in-process map (development and tests)
package counter

import (
	"context"
	"time"
)

// Store defines the atomic counter operations required by the rate limiter.
//
// All methods are context-aware; no method retries internally. Callers decide
// what a failure means (the limiter engine fails closed).
type Store interface {
	// Incr atomically increments the counter at key and returns the new
	// value. A key that has never been set starts at zero.
	Incr(ctx context.Context, key string) (int64, error)

	// Get returns the current counter value. The second return value is
	// false if the key has never been set or has expired.
	Get(ctx context.Context, key string) (int64, bool, error)

	// Expire sets a TTL on the key. The key is evicted once the TTL elapses.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
