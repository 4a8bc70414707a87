// Package cache stores rendered image variants keyed by their canonical
// processing path, so repeated requests skip the imaging pipeline.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is not in the cache.
var ErrMiss = errors.New("cache miss")

// Store is a byte cache with per-entry TTL. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the cached bytes for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
