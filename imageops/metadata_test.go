package imageops

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func dirtyHandle() *Handle {
	h := Materialized(image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	h.SetField(FieldEXIF, []byte{0x01})
	h.SetField(FieldXMP, []byte{0x02})
	h.SetField(FieldIPTC, []byte{0x03})
	h.SetField(FieldICCProfile, []byte{0x04})
	h.SetField(FieldOrientation, 6)
	h.SetField(FieldThumbnail, []byte{0x05})
	h.SetField("exif-ifd0-Make", "CameraCorp")
	h.SetField("exif-ifd2-DateTimeOriginal", "2021:01:01 00:00:00")
	h.SetField("source-format", "jpeg")
	return h
}

func TestScrubMetadataRemovesSensitiveFields(t *testing.T) {
	h := dirtyHandle()
	ScrubMetadata(h, "hello")

	for _, name := range []string{
		FieldEXIF, FieldXMP, FieldIPTC, FieldICCProfile, FieldOrientation, FieldThumbnail,
		"exif-ifd0-Make", "exif-ifd2-DateTimeOriginal",
	} {
		_, ok := h.Field(name)
		assert.Falsef(t, ok, "field %s should be removed", name)
	}

	// Non-sensitive fields survive.
	_, ok := h.Field("source-format")
	assert.True(t, ok)
}

func TestScrubMetadataSetsUserComment(t *testing.T) {
	h := dirtyHandle()

	ScrubMetadata(h, "hello")
	assert.Equal(t, "hello", h.StringField(FieldUserComment))

	// Scrubbing again with "" overwrites, it does not keep the old value.
	ScrubMetadata(h, "")
	comment, ok := h.Field(FieldUserComment)
	assert.True(t, ok)
	assert.Equal(t, "", comment)
}

func TestScrubMetadataIsIdempotent(t *testing.T) {
	h := dirtyHandle()

	ScrubMetadata(h, "x")
	first := h.FieldNames()

	ScrubMetadata(h, "x")
	assert.Equal(t, first, h.FieldNames())
}

func TestScrubMetadataAcceptsNilAndPartialHandles(t *testing.T) {
	// Nil is a no-op, partial handles are scrubbed like any other; the
	// scrubber never touches pixel data.
	ScrubMetadata(nil, "ignored")

	h := Partial(nil)
	h.SetField(FieldEXIF, []byte{1})
	ScrubMetadata(h, "note")

	_, ok := h.Field(FieldEXIF)
	assert.False(t, ok)
	assert.Equal(t, "note", h.StringField(FieldUserComment))
}

func TestRemoveAbsentFieldIsNoOp(t *testing.T) {
	h := Materialized(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	h.RemoveField("never-set")
	assert.Empty(t, h.FieldNames())
}
