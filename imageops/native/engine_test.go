package native

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelforge/pixelforge/imageops"
)

// gradient returns a deterministic test image with smooth colour variation.
func gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailCropModesProduceExactSize(t *testing.T) {
	engine := New(DefaultConfig())
	raw := encodePNG(t, gradient(300, 120))

	for _, crop := range []imageops.Interest{
		imageops.InterestCentre,
		imageops.InterestLow,
		imageops.InterestHigh,
		imageops.InterestEntropy,
	} {
		t.Run(crop.String(), func(t *testing.T) {
			h, err := engine.Thumbnail(raw, 64, 64, crop)
			require.NoError(t, err)

			img, err := h.Image()
			require.NoError(t, err)
			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Equal(t, 64, img.Bounds().Dy())
		})
	}
}

func TestThumbnailNoneFitsWithinBox(t *testing.T) {
	engine := New(DefaultConfig())
	raw := encodePNG(t, gradient(300, 120))

	h, err := engine.Thumbnail(raw, 64, 64, imageops.InterestNone)
	require.NoError(t, err)

	img, err := h.Image()
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 64)
	assert.LessOrEqual(t, img.Bounds().Dy(), 64)
	// Aspect ratio preserved: the wide source stays wider than tall.
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestThumbnailInvalidInput(t *testing.T) {
	engine := New(DefaultConfig())
	raw := encodePNG(t, gradient(10, 10))

	_, err := engine.Thumbnail(raw, 0, 10, imageops.InterestCentre)
	assert.Error(t, err)

	_, err = engine.Thumbnail(raw, 10, -1, imageops.InterestCentre)
	assert.Error(t, err)

	_, err = engine.Thumbnail([]byte("definitely not an image"), 10, 10, imageops.InterestCentre)
	assert.Error(t, err)
}

func TestThumbnailAttentionFallsBackWithWarning(t *testing.T) {
	var warnings []string
	imageops.InstallLogForwarder(func(message string) {
		warnings = append(warnings, message)
	})
	defer imageops.InstallLogForwarder(nil)

	engine := New(DefaultConfig())
	raw := encodePNG(t, gradient(200, 100))

	h, err := engine.Thumbnail(raw, 50, 50, imageops.InterestAttention)
	require.NoError(t, err)
	img, err := h.Image()
	require.NoError(t, err)

	assert.Equal(t, 50, img.Bounds().Dx())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "attention")
}

func TestCallColourspaceGrayscale(t *testing.T) {
	engine := New(DefaultConfig())
	in := imageops.Materialized(gradient(20, 20))

	out, err := engine.Call("colourspace", in, imageops.InterpretationBW)
	require.NoError(t, err)

	img, err := out.Image()
	require.NoError(t, err)

	nrgba, ok := img.(*image.NRGBA)
	require.True(t, ok)
	for y := 0; y < 20; y += 5 {
		for x := 0; x < 20; x += 5 {
			c := nrgba.NRGBAAt(x, y)
			assert.Equal(t, c.R, c.G)
			assert.Equal(t, c.G, c.B)
		}
	}
}

func TestCallColourspaceCMYK(t *testing.T) {
	engine := New(DefaultConfig())
	in := imageops.Materialized(gradient(8, 8))

	out, err := engine.Call("colourspace", in, imageops.InterpretationCMYK)
	require.NoError(t, err)

	img, err := out.Image()
	require.NoError(t, err)
	_, ok := img.(*image.CMYK)
	assert.True(t, ok)
}

func TestCallColourspaceUnsupportedTarget(t *testing.T) {
	engine := New(DefaultConfig())
	in := imageops.Materialized(gradient(8, 8))

	_, err := engine.Call("colourspace", in, imageops.Interpretation("lab"))
	assert.Error(t, err)
}

func TestCallGaussblur(t *testing.T) {
	engine := New(DefaultConfig())
	src := gradient(32, 32)
	in := imageops.Materialized(src)

	out, err := engine.Call("gaussblur", in, 4.0)
	require.NoError(t, err)

	img, err := out.Image()
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())

	_, err = engine.Call("gaussblur", in, -1.0)
	assert.Error(t, err)

	_, err = engine.Call("gaussblur", in)
	assert.Error(t, err)
}

func TestCallUnknownOperation(t *testing.T) {
	engine := New(DefaultConfig())
	in := imageops.Materialized(gradient(4, 4))

	_, err := engine.Call("embed", in, 1, 2)
	assert.ErrorIs(t, err, imageops.ErrUnknownOperation)
}

func TestCallPropagatesMetadataFields(t *testing.T) {
	engine := New(DefaultConfig())
	in := imageops.Materialized(gradient(4, 4))
	in.SetField(imageops.FieldUserComment, "kept")

	out, err := engine.Call("gaussblur", in, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "kept", out.StringField(imageops.FieldUserComment))
}

func TestEncodeJPEGRoundTrips(t *testing.T) {
	engine := New(DefaultConfig())
	h := imageops.Materialized(gradient(40, 30))

	buf, err := engine.EncodeJPEG(h, imageops.JPEGOptions{Interlace: true, OptimizeCoding: true})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 30, decoded.Bounds().Dy())
}

func TestEncodeWebPEmitsRIFFContainer(t *testing.T) {
	engine := New(DefaultConfig())
	h := imageops.Materialized(gradient(16, 16))

	buf, err := engine.EncodeWebP(h)
	require.NoError(t, err)
	require.Greater(t, len(buf), 12)
	assert.Equal(t, "RIFF", string(buf[:4]))
	assert.Equal(t, "WEBP", string(buf[8:12]))
}

func TestEncodeRejectsUnusableHandle(t *testing.T) {
	engine := New(DefaultConfig())

	_, err := engine.EncodeJPEG(imageops.Partial(nil), imageops.JPEGOptions{})
	assert.ErrorIs(t, err, imageops.ErrNoPixelData)

	_, err = engine.EncodeWebP(imageops.Partial(nil))
	assert.ErrorIs(t, err, imageops.ErrNoPixelData)
}

func TestWindowEntropyPrefersBusyRegions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	// Left half flat, right half noise.
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{
					R: uint8(rng.Intn(256)),
					G: uint8(rng.Intn(256)),
					B: uint8(rng.Intn(256)),
					A: 255,
				})
			}
		}
	}

	flat := windowEntropy(img, image.Rect(0, 0, 50, 50))
	busy := windowEntropy(img, image.Rect(50, 0, 100, 50))
	assert.Greater(t, busy, flat)
}

func TestReadOrientation(t *testing.T) {
	// Not a JPEG.
	assert.Equal(t, orientNormal, readOrientation(bytes.NewReader([]byte("PNG..."))))

	// JPEG without EXIF.
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(8, 8), nil))
	assert.Equal(t, orientNormal, readOrientation(bytes.NewReader(buf.Bytes())))

	// Hand-built APP1 with orientation 6.
	assert.Equal(t, orientRotate90CW, readOrientation(bytes.NewReader(jpegWithOrientation(6))))
}

// jpegWithOrientation builds a minimal JPEG prefix carrying an EXIF APP1
// segment with the given orientation value.
func jpegWithOrientation(orient uint16) []byte {
	tiff := []byte{
		'M', 'M', 0x00, 0x2A, // big-endian TIFF header
		0x00, 0x00, 0x00, 0x08, // IFD0 offset
		0x00, 0x01, // one entry
		0x01, 0x12, // orientation tag
		0x00, 0x03, // SHORT
		0x00, 0x00, 0x00, 0x01, // count
		byte(orient >> 8), byte(orient), 0x00, 0x00, // value
		0x00, 0x00, 0x00, 0x00, // next IFD
	}

	payload := append([]byte("Exif\x00\x00"), tiff...)
	segLen := len(payload) + 2

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1, byte(segLen >> 8), byte(segLen)}
	return append(out, payload...)
}
