package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer. Implementations must be safe
// for concurrent use. The cache is advisory everywhere it is used: a miss or
// an error never changes the outcome of a submission.
type Cache interface {
	// Get reads a key and unmarshals the stored value into dest.
	// Returns (false, nil) on a miss; dest is untouched on a miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping checks the backing connection.
	Ping(ctx context.Context) error
}
