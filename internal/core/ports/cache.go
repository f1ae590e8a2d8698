package ports

import (
	"context"
	"time"
)

// CacheService is the contract for response caching backends.
type CacheService interface {
	// Get retrieves a value from the cache, unmarshalling into dest.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in the cache with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error
}
