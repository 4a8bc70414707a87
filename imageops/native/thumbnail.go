package native

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/pixelforge/pixelforge/imageops"
)

// Thumbnail decodes raw image bytes and resizes them to width x height in
// one step. JPEG sources are auto-rotated from their EXIF orientation tag
// before resampling, so the returned handle carries no orientation field.
func (e *Engine) Thumbnail(raw []byte, width, height int, crop imageops.Interest) (*imageops.Handle, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("thumbnail: invalid target size %dx%d", width, height)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode: %w", err)
	}

	if orient := readOrientation(bytes.NewReader(raw)); orient > orientNormal {
		img = applyOrientation(img, orient)
	}

	var out image.Image
	switch crop {
	case imageops.InterestNone:
		out = imaging.Fit(img, width, height, imaging.Lanczos)
	case imageops.InterestCentre:
		out = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	case imageops.InterestLow:
		out = imaging.Fill(img, width, height, imaging.TopLeft, imaging.Lanczos)
	case imageops.InterestHigh:
		out = imaging.Fill(img, width, height, imaging.BottomRight, imaging.Lanczos)
	case imageops.InterestAttention:
		imageops.Warnf("thumbnail: attention interest not implemented by the native engine, using entropy")
		out = entropyFill(img, width, height)
	case imageops.InterestEntropy:
		out = entropyFill(img, width, height)
	default:
		return nil, fmt.Errorf("thumbnail: unknown interest mode %d", crop)
	}

	h := imageops.Materialized(out)
	h.SetField("source-format", format)
	return h, nil
}

// entropyFill resizes the image to cover width x height, then keeps the
// crop window with the highest luminance entropy along the overflowing
// axis.
func entropyFill(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return imaging.Clone(img)
	}

	scale := math.Max(float64(width)/float64(sw), float64(height)/float64(sh))
	cw := int(math.Ceil(float64(sw) * scale))
	ch := int(math.Ceil(float64(sh) * scale))
	cover := imaging.Resize(img, cw, ch, imaging.Lanczos)

	if cw <= width && ch <= height {
		return cover
	}

	// Slide the target window along the overflowing axis and keep the
	// position with the highest entropy. Step keeps the scan to roughly
	// two dozen candidates.
	var bestX, bestY int
	best := -1.0
	if cw > width {
		step := maxInt(1, (cw-width)/24)
		for x := 0; x+width <= cw; x += step {
			rect := image.Rect(x, 0, x+width, height)
			if score := windowEntropy(cover, rect); score > best {
				best, bestX = score, x
			}
		}
	} else {
		step := maxInt(1, (ch-height)/24)
		for y := 0; y+height <= ch; y += step {
			rect := image.Rect(0, y, width, y+height)
			if score := windowEntropy(cover, rect); score > best {
				best, bestY = score, y
			}
		}
	}

	return imaging.Crop(cover, image.Rect(bestX, bestY, bestX+width, bestY+height))
}

// windowEntropy computes the Shannon entropy of the luminance histogram of
// the given window.
func windowEntropy(img *image.NRGBA, rect image.Rectangle) float64 {
	var histogram [256]float64
	var total float64

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := img.Pix[y*img.Stride:]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := x * 4
			// Integer luminance approximation (ITU-R BT.601).
			lum := (299*int(row[i]) + 587*int(row[i+1]) + 114*int(row[i+2])) / 1000
			histogram[lum]++
			total++
		}
	}

	if total == 0 {
		return 0
	}
	var entropy float64
	for _, count := range histogram {
		if count > 0 {
			p := count / total
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
