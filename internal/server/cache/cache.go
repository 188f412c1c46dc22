// Package cache defines the small key-value cache contract used by services
// for hot read paths, plus a Redis-backed implementation.
package cache

import (
	"context"
	"time"
)

// Cache is a minimal TTL'd key-value store. Implementations must treat a
// missing key as an error distinct from an empty value.
type Cache interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}
