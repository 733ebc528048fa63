package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled: checkout
// Idempotency-Key headers and payment webhook event ids.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been recorded
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets the key so the same work can be attempted again.
	// Callers release a key when the work it guarded failed.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// DefaultIdempotencyTTL is how long idempotency keys are remembered
const DefaultIdempotencyTTL = 24 * time.Hour
