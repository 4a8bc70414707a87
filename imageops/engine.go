// Package imageops exposes a narrow, guarded facade over an imaging engine:
// thumbnailing, colourspace conversion, gaussian blur, JPEG/WebP encoding and
// metadata scrubbing. The facade adds precondition guards and fixed encoding
// choices; decoding, resampling and codecs belong to the Engine behind it.
package imageops

import "errors"

// ErrNoPixelData is returned when an operation receives a nil handle or a
// partial handle with no generator, i.e. an image that neither has pixel
// data nor a way to produce it.
var ErrNoPixelData = errors.New("no image data")

// ErrUnknownOperation is returned by Engine.Call for operation names the
// engine does not implement.
var ErrUnknownOperation = errors.New("unknown operation")

// Interest selects the cropping strategy used when a thumbnail's target
// aspect ratio differs from the source.
type Interest int

const (
	// InterestNone does no cropping.
	InterestNone Interest = iota
	// InterestCentre crops around the image centre.
	InterestCentre
	// InterestLow crops from the top/left edge.
	InterestLow
	// InterestHigh crops from the bottom/right edge.
	InterestHigh
	// InterestEntropy keeps the window with the highest luminance entropy.
	InterestEntropy
	// InterestAttention keeps the window most likely to attract attention.
	InterestAttention
)

// String returns the engine-facing name of the interest mode.
func (i Interest) String() string {
	switch i {
	case InterestNone:
		return "none"
	case InterestCentre:
		return "centre"
	case InterestLow:
		return "low"
	case InterestHigh:
		return "high"
	case InterestEntropy:
		return "entropy"
	case InterestAttention:
		return "attention"
	}
	return "unknown"
}

// Interpretation is a target colourspace tag, passed through to the engine
// unchanged.
type Interpretation string

const (
	// InterpretationSRGB is standard RGB.
	InterpretationSRGB Interpretation = "srgb"
	// InterpretationBW is single-channel grayscale.
	InterpretationBW Interpretation = "b-w"
	// InterpretationCMYK is four-channel print colourspace.
	InterpretationCMYK Interpretation = "cmyk"
)

// JPEGOptions are the encoding parameters an engine receives for JPEG
// output. The facade always forces Interlace and OptimizeCoding on.
type JPEGOptions struct {
	// Quality in 1..100; 0 means the engine default.
	Quality int
	// Interlace requests progressive encoding.
	Interlace bool
	// OptimizeCoding requests optimized Huffman tables.
	OptimizeCoding bool
}

// Engine is the boundary to the imaging engine that owns decode, resample
// and codec work. All calls are synchronous and block until the engine
// completes; no call is retried.
type Engine interface {
	// EncodeJPEG encodes the handle's pixel data as JPEG.
	EncodeJPEG(h *Handle, opts JPEGOptions) ([]byte, error)

	// EncodeWebP encodes the handle's pixel data as WebP.
	EncodeWebP(h *Handle) ([]byte, error)

	// Thumbnail decodes raw image bytes and resizes them to width x height
	// in one step, cropping according to the interest mode when the aspect
	// ratio requires it.
	Thumbnail(raw []byte, width, height int, crop Interest) (*Handle, error)

	// Call invokes a named engine operation ("colourspace", "gaussblur")
	// on the input handle with operation-specific arguments and returns a
	// new handle.
	Call(name string, in *Handle, args ...any) (*Handle, error)
}
