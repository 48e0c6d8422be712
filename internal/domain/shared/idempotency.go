package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys so retried payment
// submissions are not recorded twice.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already known.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a key has already been processed.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases resources held by the store.
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered. After it expires the
	// same key is accepted again.
	TTL time.Duration

	// Enabled toggles idempotency checking.
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
