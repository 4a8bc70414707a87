package native

import (
	"encoding/binary"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// orientation describes an EXIF orientation tag value.
type orientation int

const (
	orientNormal      orientation = 1
	orientFlipH       orientation = 2
	orientRotate180   orientation = 3
	orientFlipV       orientation = 4
	orientTranspose   orientation = 5
	orientRotate90CW  orientation = 6
	orientTransverse  orientation = 7
	orientRotate270CW orientation = 8
)

// readOrientation reads the EXIF orientation tag from a JPEG stream. It
// returns orientNormal if the stream is not JPEG or carries no orientation.
// Only the one tag is parsed, not the full EXIF tree.
func readOrientation(r io.Reader) orientation {
	var soi [2]byte
	if _, err := io.ReadFull(r, soi[:]); err != nil {
		return orientNormal
	}
	if soi[0] != 0xFF || soi[1] != 0xD8 {
		return orientNormal
	}

	// Scan segments for APP1 (EXIF).
	for {
		var marker [2]byte
		if _, err := io.ReadFull(r, marker[:]); err != nil {
			return orientNormal
		}
		if marker[0] != 0xFF {
			return orientNormal
		}
		for marker[1] == 0xFF {
			if _, err := io.ReadFull(r, marker[1:]); err != nil {
				return orientNormal
			}
		}

		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return orientNormal
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		if segLen < 0 {
			return orientNormal
		}

		if marker[1] != 0xE1 {
			// Entropy-coded data starts at SOS; no EXIF past that.
			if marker[1] == 0xDA {
				return orientNormal
			}
			if _, err := io.CopyN(io.Discard, r, int64(segLen)); err != nil {
				return orientNormal
			}
			continue
		}

		seg := make([]byte, segLen)
		if _, err := io.ReadFull(r, seg); err != nil {
			return orientNormal
		}
		return parseExifOrientation(seg)
	}
}

// parseExifOrientation extracts tag 0x0112 from an APP1 EXIF payload.
func parseExifOrientation(seg []byte) orientation {
	if len(seg) < 14 || string(seg[:6]) != "Exif\x00\x00" {
		return orientNormal
	}
	tiff := seg[6:]

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return orientNormal
	}

	ifdOffset := order.Uint32(tiff[4:8])
	if int(ifdOffset)+2 > len(tiff) {
		return orientNormal
	}
	count := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))

	for i := 0; i < count; i++ {
		entry := int(ifdOffset) + 2 + i*12
		if entry+12 > len(tiff) {
			return orientNormal
		}
		tag := order.Uint16(tiff[entry : entry+2])
		if tag != 0x0112 {
			continue
		}
		value := orientation(order.Uint16(tiff[entry+8 : entry+10]))
		if value < orientNormal || value > orientRotate270CW {
			return orientNormal
		}
		return value
	}
	return orientNormal
}

// applyOrientation rotates/flips the image so its pixels match the
// orientation the tag describes.
func applyOrientation(img image.Image, orient orientation) image.Image {
	switch orient {
	case orientFlipH:
		return imaging.FlipH(img)
	case orientRotate180:
		return imaging.Rotate180(img)
	case orientFlipV:
		return imaging.FlipV(img)
	case orientTranspose:
		return imaging.Transpose(img)
	case orientRotate90CW:
		return imaging.Rotate270(img)
	case orientTransverse:
		return imaging.Transverse(img)
	case orientRotate270CW:
		return imaging.Rotate90(img)
	}
	return img
}
