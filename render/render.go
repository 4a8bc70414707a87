// Package render turns catalog originals into encoded variants: fetch the
// original, thumbnail it, apply the requested operations, scrub metadata,
// encode, and cache the result under the variant's canonical path.
package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pixelforge/pixelforge/cache"
	"github.com/pixelforge/pixelforge/catalog"
	"github.com/pixelforge/pixelforge/imageops"
	"github.com/pixelforge/pixelforge/logging"
	"github.com/pixelforge/pixelforge/metrics"
	"github.com/pixelforge/pixelforge/storage"
)

// Format is the variant output format.
type Format int

const (
	// JPEG output.
	JPEG Format = iota
	// WebP output.
	WebP
)

// Extension returns the format's canonical file extension.
func (f Format) Extension() string {
	if f == WebP {
		return ".webp"
	}
	return ".jpg"
}

// ContentType returns the format's MIME type.
func (f Format) ContentType() string {
	if f == WebP {
		return "image/webp"
	}
	return "image/jpeg"
}

// Task describes one variant of a catalog image.
type Task struct {
	Width     int
	Height    int
	Blur      int // 0 disables
	Grayscale bool
	Format    Format
}

// Path returns the canonical processing path for the task, also used as
// the cache key and the HMAC signing input, e.g.
// /id/1/200/300.jpg?blur=5&grayscale.
func (t Task) Path(imageID string) string {
	var b strings.Builder
	b.WriteString("/id/")
	b.WriteString(imageID)
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(t.Width))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(t.Height))
	b.WriteString(t.Format.Extension())

	sep := byte('?')
	if t.Blur > 0 {
		b.WriteByte(sep)
		b.WriteString("blur=")
		b.WriteString(strconv.Itoa(t.Blur))
		sep = '&'
	}
	if t.Grayscale {
		b.WriteByte(sep)
		b.WriteString("grayscale")
	}
	return b.String()
}

// Renderer runs the imaging pipeline for catalog images.
type Renderer struct {
	ops         *imageops.Ops
	originals   storage.Provider
	variants    cache.Store
	collector   *metrics.Collector
	log         logging.Logger
	ttl         time.Duration
	attribution string
}

// New creates a renderer. collector may be nil to disable metrics.
func New(ops *imageops.Ops, originals storage.Provider, variants cache.Store, collector *metrics.Collector, ttl time.Duration, attribution string) *Renderer {
	return &Renderer{
		ops:         ops,
		originals:   originals,
		variants:    variants,
		collector:   collector,
		log:         logging.Global().Named("render"),
		ttl:         ttl,
		attribution: attribution,
	}
}

// Render returns the encoded variant for the task, from cache when
// possible.
func (r *Renderer) Render(ctx context.Context, img catalog.Image, task Task) ([]byte, error) {
	key := task.Path(img.ID)

	if cached, err := r.variants.Get(ctx, key); err == nil {
		r.count("variant_cache", map[string]string{"result": "hit"})
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		// A broken cache should degrade to rendering, not fail requests.
		r.log.WithError(err).Warn("variant cache get failed", zap.String("key", key))
	}
	r.count("variant_cache", map[string]string{"result": "miss"})

	start := time.Now()
	encoded, err := r.render(ctx, img, task)
	if err != nil {
		r.count("render_errors", nil)
		return nil, err
	}
	if r.collector != nil {
		r.collector.ObserveHistogram("render_ms", float64(time.Since(start).Milliseconds()), nil)
	}

	if err := r.variants.Set(ctx, key, encoded, r.ttl); err != nil {
		r.log.WithError(err).Warn("variant cache set failed", zap.String("key", key))
	}
	return encoded, nil
}

// render runs the pipeline without consulting the cache.
func (r *Renderer) render(ctx context.Context, img catalog.Image, task Task) ([]byte, error) {
	name := img.File
	if name == "" {
		name = img.ID + ".jpg"
	}
	raw, err := r.originals.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", img.ID, err)
	}

	h, err := r.ops.Thumbnail(raw, task.Width, task.Height, imageops.InterestCentre)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", img.ID, err)
	}
	r.count("images_processed", map[string]string{"op": "thumbnail"})

	if task.Grayscale {
		if h, err = r.ops.Colourspace(h, imageops.InterpretationBW); err != nil {
			return nil, fmt.Errorf("render %s: %w", img.ID, err)
		}
		r.count("images_processed", map[string]string{"op": "colourspace"})
	}

	if task.Blur > 0 {
		if h, err = r.ops.Blur(h, float64(task.Blur)); err != nil {
			return nil, fmt.Errorf("render %s: %w", img.ID, err)
		}
		r.count("images_processed", map[string]string{"op": "gaussblur"})
	}

	imageops.ScrubMetadata(h, r.attribution)

	var encoded []byte
	switch task.Format {
	case WebP:
		encoded, err = r.ops.EncodeWebP(h)
	default:
		encoded, err = r.ops.EncodeJPEG(h)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", img.ID, err)
	}
	return encoded, nil
}

func (r *Renderer) count(name string, labels map[string]string) {
	if r.collector != nil {
		r.collector.IncCounter(name, labels)
	}
}
