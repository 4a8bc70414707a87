// Package storage retrieves original image bytes for the catalog, either
// from the local filesystem or from Aliyun OSS.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an original does not exist in the backing
// store.
var ErrNotFound = errors.New("original not found")

// Provider fetches original image bytes by object name. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Get returns the raw bytes of the named object, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether the named object is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Name identifies the provider ("local", "oss").
	Name() string
}
