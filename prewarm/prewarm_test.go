package prewarm

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelforge/pixelforge/cache"
	"github.com/pixelforge/pixelforge/catalog"
	catalogfile "github.com/pixelforge/pixelforge/catalog/file"
	catalogmock "github.com/pixelforge/pixelforge/catalog/mock"
	"github.com/pixelforge/pixelforge/imageops"
	"github.com/pixelforge/pixelforge/imageops/native"
	"github.com/pixelforge/pixelforge/json"
	"github.com/pixelforge/pixelforge/render"
	"github.com/pixelforge/pixelforge/storage"
)

func setup(t *testing.T) (*Prewarmer, cache.Store) {
	t.Helper()

	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x + y), G: 80, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	for _, name := range []string{"1.jpg", "2.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644))
	}

	manifest, err := json.Marshal([]catalog.Image{
		{ID: "1", Author: "A", Width: 100, Height: 100, File: "1.jpg"},
		{ID: "2", Author: "B", Width: 100, Height: 100, File: "2.jpg"},
	})
	require.NoError(t, err)
	manifestPath := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(manifestPath, manifest, 0644))

	provider, err := catalogfile.New(manifestPath)
	require.NoError(t, err)

	originals, err := storage.NewLocalProvider(dir)
	require.NoError(t, err)
	variants := cache.NewMemoryStore()
	t.Cleanup(variants.Close)

	ops := imageops.NewOps(native.New(native.DefaultConfig()))
	renderer := render.New(ops, originals, variants, nil, time.Minute, "Pixelforge")

	return &Prewarmer{
		Catalog:  provider,
		Renderer: renderer,
		Workers:  2,
		Sizes:    []int{16, 32},
	}, variants
}

func TestRunWarmsAllVariants(t *testing.T) {
	p, variants := setup(t)

	done, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, done)

	for _, id := range []string{"1", "2"} {
		for _, size := range []int{16, 32} {
			task := render.Task{Width: size, Height: size}
			_, err := variants.Get(context.Background(), task.Path(id))
			assert.NoError(t, err, "missing %s at %d", id, size)
		}
	}
}

func TestRunWithoutSizes(t *testing.T) {
	p, _ := setup(t)
	p.Sizes = nil

	done, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, done)
}

func TestRunCatalogFailure(t *testing.T) {
	p, _ := setup(t)
	p.Catalog = catalogmock.Provider{}

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, catalogmock.ErrMock)
}

func TestRunCancelled(t *testing.T) {
	p, _ := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
