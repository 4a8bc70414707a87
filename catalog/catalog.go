// Package catalog defines the image catalog: the set of source images the
// service can serve, with their authorship and dimensions.
package catalog

import "errors"

// ErrNotFound is returned when an image ID does not exist in the catalog.
var ErrNotFound = errors.New("image does not exist")

// Image is one catalog entry.
type Image struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// File names the original object in storage. Empty means "<id>.jpg".
	File string `json:"file,omitempty"`
}

// Provider supplies catalog entries. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Get returns the image with the given ID, or ErrNotFound.
	Get(id string) (Image, error)

	// GetRandom returns a random image.
	GetRandom() (Image, error)

	// GetRandomWithSeed returns the image deterministically selected by
	// the seed: the same seed always maps to the same image.
	GetRandomWithSeed(seed string) (Image, error)

	// List returns one page of images. Pages start at 1.
	List(page, limit int) ([]Image, error)

	// ListAll returns every image.
	ListAll() ([]Image, error)
}
