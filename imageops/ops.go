package imageops

import "fmt"

// Ops is the guarded facade in front of an Engine. Every handle-consuming
// operation checks the handle before delegating, so an image with neither
// pixel data nor a generator is rejected instead of handed to the engine.
// Ops carries no state besides the engine and is safe for concurrent use as
// long as the same handle is not mutated by two operations at once.
type Ops struct {
	engine Engine
}

// NewOps wraps an engine in the guarded facade.
func NewOps(engine Engine) *Ops {
	return &Ops{engine: engine}
}

// guard rejects handles the engine must never see: nil, or partial with no
// generator attached.
func guard(op string, h *Handle) error {
	if !h.Usable() {
		return fmt.Errorf("%s: %w", op, ErrNoPixelData)
	}
	return nil
}

// EncodeJPEG encodes the image as JPEG. Progressive (interlaced) encoding
// and optimized Huffman coding are always applied; they are not
// caller-configurable through this facade.
func (o *Ops) EncodeJPEG(h *Handle) ([]byte, error) {
	if err := guard("jpegsave", h); err != nil {
		return nil, err
	}
	return o.engine.EncodeJPEG(h, JPEGOptions{
		Interlace:      true,
		OptimizeCoding: true,
	})
}

// EncodeWebP encodes the image as WebP with the engine's defaults.
func (o *Ops) EncodeWebP(h *Handle) ([]byte, error) {
	if err := guard("webpsave", h); err != nil {
		return nil, err
	}
	return o.engine.EncodeWebP(h)
}

// Thumbnail decodes raw bytes and resizes them to width x height in one
// step, cropping per the interest mode when the aspect ratio requires it.
// The input is raw bytes, not a handle, so no handle guard applies.
func (o *Ops) Thumbnail(raw []byte, width, height int, crop Interest) (*Handle, error) {
	return o.engine.Thumbnail(raw, width, height, crop)
}

// Colourspace converts the image to the target colourspace and returns a
// new handle.
func (o *Ops) Colourspace(h *Handle, target Interpretation) (*Handle, error) {
	if err := guard("colourspace", h); err != nil {
		return nil, err
	}
	return o.engine.Call("colourspace", h, target)
}

// Blur applies a gaussian blur with the given sigma and returns a new
// handle.
func (o *Ops) Blur(h *Handle, sigma float64) (*Handle, error) {
	if err := guard("gaussblur", h); err != nil {
		return nil, err
	}
	return o.engine.Call("gaussblur", h, sigma)
}
