// Package file implements a catalog provider backed by a JSON manifest on
// disk. The manifest is read once at startup; the catalog is immutable
// afterwards.
package file

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/pixelforge/pixelforge/catalog"
	"github.com/pixelforge/pixelforge/json"
)

// Provider is a file-backed catalog.
type Provider struct {
	mu     sync.Mutex
	rng    *rand.Rand
	images []catalog.Image
	byID   map[string]catalog.Image
}

// New loads the manifest at path.
func New(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read manifest: %w", err)
	}

	var images []catalog.Image
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("catalog: parse manifest: %w", err)
	}

	byID := make(map[string]catalog.Image, len(images))
	for _, img := range images {
		if _, dup := byID[img.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate image id %q", img.ID)
		}
		byID[img.ID] = img
	}

	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })

	return &Provider{
		rng:    rand.New(rand.NewSource(rand.Int63())),
		images: images,
		byID:   byID,
	}, nil
}

// Get returns the image with the given ID.
func (p *Provider) Get(id string) (catalog.Image, error) {
	img, ok := p.byID[id]
	if !ok {
		return catalog.Image{}, catalog.ErrNotFound
	}
	return img, nil
}

// GetRandom returns a random image.
func (p *Provider) GetRandom() (catalog.Image, error) {
	if len(p.images) == 0 {
		return catalog.Image{}, catalog.ErrNotFound
	}
	p.mu.Lock()
	i := p.rng.Intn(len(p.images))
	p.mu.Unlock()
	return p.images[i], nil
}

// GetRandomWithSeed maps the seed onto an image deterministically.
func (p *Provider) GetRandomWithSeed(seed string) (catalog.Image, error) {
	if len(p.images) == 0 {
		return catalog.Image{}, catalog.ErrNotFound
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	return p.images[h.Sum64()%uint64(len(p.images))], nil
}

// List returns one page of images; pages start at 1.
func (p *Provider) List(page, limit int) ([]catalog.Image, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("catalog: invalid page %d limit %d", page, limit)
	}

	start := (page - 1) * limit
	if start >= len(p.images) {
		return []catalog.Image{}, nil
	}
	end := start + limit
	if end > len(p.images) {
		end = len(p.images)
	}

	out := make([]catalog.Image, end-start)
	copy(out, p.images[start:end])
	return out, nil
}

// ListAll returns every image.
func (p *Provider) ListAll() ([]catalog.Image, error) {
	out := make([]catalog.Image, len(p.images))
	copy(out, p.images)
	return out, nil
}
