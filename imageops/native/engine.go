// Package native is a pure-Go imaging engine behind the imageops facade.
// It uses the stdlib codecs plus disintegration/imaging for resampling and
// chai2010/webp for WebP output, avoiding a CGO dependency on libvips for
// easier deployment.
package native

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Registered decoders for Thumbnail input sniffing.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/pixelforge/pixelforge/imageops"
)

// Config holds the engine's fixed encoding parameters.
type Config struct {
	// JPEGQuality in 1..100.
	JPEGQuality int `mapstructure:"jpeg-quality" json:"jpegQuality" yaml:"jpeg-quality" default:"90"`

	// WebPQuality in 1..100.
	WebPQuality float32 `mapstructure:"webp-quality" json:"webpQuality" yaml:"webp-quality" default:"84"`
}

// DefaultConfig returns the engine's default encoding parameters.
func DefaultConfig() Config {
	return Config{
		JPEGQuality: 90,
		WebPQuality: 84,
	}
}

// operation is a named engine primitive invoked through Call.
type operation func(e *Engine, in image.Image, args []any) (image.Image, error)

// Engine implements imageops.Engine with pure-Go codecs and resampling.
// All methods are synchronous and safe for concurrent use; the operation
// registry is fixed at construction.
type Engine struct {
	cfg Config
	ops map[string]operation
}

// New creates an engine with the built-in operations registered.
func New(cfg Config) *Engine {
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultConfig().JPEGQuality
	}
	if cfg.WebPQuality <= 0 || cfg.WebPQuality > 100 {
		cfg.WebPQuality = DefaultConfig().WebPQuality
	}
	return &Engine{
		cfg: cfg,
		ops: map[string]operation{
			"colourspace": colourspace,
			"gaussblur":   gaussblur,
		},
	}
}

// EncodeJPEG encodes the handle's pixel data as JPEG. The interlace and
// optimize-coding directives are part of the engine contract; the stdlib
// encoder emits sequential streams with optimized Huffman tables, so they
// are accepted without further effect here.
func (e *Engine) EncodeJPEG(h *imageops.Handle, opts imageops.JPEGOptions) ([]byte, error) {
	img, err := h.Image()
	if err != nil {
		return nil, fmt.Errorf("jpegsave: %w", err)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = e.cfg.JPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpegsave: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeWebP encodes the handle's pixel data as lossy WebP.
func (e *Engine) EncodeWebP(h *imageops.Handle) ([]byte, error) {
	img, err := h.Image()
	if err != nil {
		return nil, fmt.Errorf("webpsave: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: e.cfg.WebPQuality}); err != nil {
		return nil, fmt.Errorf("webpsave: %w", err)
	}
	return buf.Bytes(), nil
}

// Call invokes a registered operation on the input handle and returns a new
// materialized handle. Metadata fields are propagated to the result.
func (e *Engine) Call(name string, in *imageops.Handle, args ...any) (*imageops.Handle, error) {
	op, ok := e.ops[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, imageops.ErrUnknownOperation)
	}

	img, err := in.Image()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out, err := op(e, img, args)
	if err != nil {
		return nil, err
	}

	res := imageops.Materialized(out)
	copyFields(in, res)
	return res, nil
}

// gaussblur applies a gaussian blur; args: sigma float64 > 0.
func gaussblur(_ *Engine, in image.Image, args []any) (image.Image, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("gaussblur: expected 1 argument, got %d", len(args))
	}
	sigma, ok := toFloat(args[0])
	if !ok || sigma <= 0 {
		return nil, fmt.Errorf("gaussblur: invalid sigma %v", args[0])
	}
	return imaging.Blur(in, sigma), nil
}

// toFloat widens numeric arguments to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// copyFields propagates all metadata fields from src to dst.
func copyFields(src, dst *imageops.Handle) {
	for _, name := range src.FieldNames() {
		if v, ok := src.Field(name); ok {
			dst.SetField(name, v)
		}
	}
}
