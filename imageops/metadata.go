package imageops

import "strings"

// Well-known metadata field names carried on a Handle.
const (
	// FieldEXIF is the raw EXIF block.
	FieldEXIF = "exif-data"
	// FieldXMP is the raw XMP block.
	FieldXMP = "xmp-data"
	// FieldIPTC is the raw IPTC block.
	FieldIPTC = "iptc-data"
	// FieldICCProfile is the embedded colour profile.
	FieldICCProfile = "icc-profile-data"
	// FieldOrientation is the orientation tag.
	FieldOrientation = "orientation"
	// FieldThumbnail is the embedded preview image.
	FieldThumbnail = "jpeg-thumbnail-data"
	// FieldUserComment is the user-comment slot under the EXIF IFD2
	// structure.
	FieldUserComment = "exif-ifd2-UserComment"

	// exifFieldPrefix marks per-tag EXIF sub-fields not covered by the
	// single FieldEXIF block.
	exifFieldPrefix = "exif-"
)

// scrubbedFields are removed unconditionally by ScrubMetadata.
var scrubbedFields = []string{
	FieldEXIF,
	FieldXMP,
	FieldIPTC,
	FieldICCProfile,
	FieldOrientation,
	FieldThumbnail,
}

// ScrubMetadata removes privacy- and provenance-sensitive fields from the
// handle and stamps a single user comment. It strips the EXIF, XMP and IPTC
// blocks, the embedded colour profile, the orientation tag, the embedded
// thumbnail, and every per-tag "exif-" field, then sets the user-comment
// slot to comment, overwriting any prior value.
//
// The operation only touches the field set, never pixel data, so it is
// total: nil handles are a no-op and partial handles are scrubbed like any
// other. Scrubbing is idempotent.
func ScrubMetadata(h *Handle, comment string) {
	if h == nil {
		return
	}

	for _, name := range scrubbedFields {
		h.RemoveField(name)
	}
	for _, name := range h.FieldNames() {
		if strings.HasPrefix(name, exifFieldPrefix) {
			h.RemoveField(name)
		}
	}

	h.SetField(FieldUserComment, comment)
}
