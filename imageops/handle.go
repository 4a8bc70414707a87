package imageops

import (
	"image"
	"sort"
	"sync"
)

// Kind discriminates how a Handle's pixel data is available.
type Kind int

const (
	// KindMaterialized means the handle carries fully decoded pixel data.
	KindMaterialized Kind = iota
	// KindPartial means pixel data is deferred; it can only be produced
	// if a generator is attached.
	KindPartial
)

// Generator produces pixel data for a partial handle on demand.
type Generator func() (image.Image, error)

// Handle is an opaque reference to a decoded image at the engine boundary.
// It is either materialized (pixel data present) or partial (pixel data
// deferred, optionally producible through a generator). Handles also carry
// the image's auxiliary metadata fields (EXIF block, XMP block, orientation
// tag and so on) as a named field set.
//
// A Handle is not safe for concurrent mutation by two operations at once;
// handing a handle across goroutines is the caller's responsibility.
type Handle struct {
	kind Kind
	gen  Generator

	mu     sync.Mutex
	img    image.Image
	fields map[string]any
}

// Materialized creates a handle around decoded pixel data.
func Materialized(img image.Image) *Handle {
	return &Handle{kind: KindMaterialized, img: img}
}

// Partial creates a deferred handle. A nil generator produces a handle that
// no pixel-consuming operation will accept.
func Partial(gen Generator) *Handle {
	return &Handle{kind: KindPartial, gen: gen}
}

// Kind returns the handle's discriminator.
func (h *Handle) Kind() Kind {
	return h.kind
}

// Usable reports whether pixel-consuming operations may accept the handle:
// it must be non-nil and either materialized or partial with a generator.
// This is the guard that keeps engines from dereferencing absent pixel data.
func (h *Handle) Usable() bool {
	if h == nil {
		return false
	}
	if h.kind == KindPartial && h.gen == nil {
		return false
	}
	return true
}

// Image returns the handle's pixel data, running the generator once for
// partial handles and caching the result. Returns ErrNoPixelData when the
// handle is not usable.
func (h *Handle) Image() (image.Image, error) {
	if !h.Usable() {
		return nil, ErrNoPixelData
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.img != nil {
		return h.img, nil
	}
	img, err := h.gen()
	if err != nil {
		return nil, err
	}
	h.img = img
	return img, nil
}

// SetField sets a named metadata field, overwriting any prior value.
func (h *Handle) SetField(name string, value any) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fields == nil {
		h.fields = make(map[string]any)
	}
	h.fields[name] = value
}

// Field returns a named metadata field.
func (h *Handle) Field(name string) (any, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.fields[name]
	return v, ok
}

// StringField returns a string-valued metadata field, or "" if the field is
// absent or not a string.
func (h *Handle) StringField(name string) string {
	v, ok := h.Field(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// RemoveField removes a named metadata field. Removing an absent field is a
// no-op, not an error.
func (h *Handle) RemoveField(name string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.fields, name)
}

// FieldNames returns the names of all metadata fields, sorted.
func (h *Handle) FieldNames() []string {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.fields))
	for name := range h.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
