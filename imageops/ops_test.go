package imageops

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEngine records every delegated call and returns canned results.
type mockEngine struct {
	jpegOpts  []JPEGOptions
	callNames []string
	callArgs  [][]any
	encoded   []byte
	result    *Handle
	err       error
}

func (m *mockEngine) EncodeJPEG(h *Handle, opts JPEGOptions) ([]byte, error) {
	m.jpegOpts = append(m.jpegOpts, opts)
	return m.encoded, m.err
}

func (m *mockEngine) EncodeWebP(h *Handle) ([]byte, error) {
	return m.encoded, m.err
}

func (m *mockEngine) Thumbnail(raw []byte, width, height int, crop Interest) (*Handle, error) {
	return m.result, m.err
}

func (m *mockEngine) Call(name string, in *Handle, args ...any) (*Handle, error) {
	m.callNames = append(m.callNames, name)
	m.callArgs = append(m.callArgs, args)
	return m.result, m.err
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 4, 4))
}

func TestOpsRejectsUnusableHandles(t *testing.T) {
	handles := map[string]*Handle{
		"nil handle":                nil,
		"partial without generator": Partial(nil),
	}

	for name, h := range handles {
		t.Run(name, func(t *testing.T) {
			engine := &mockEngine{}
			ops := NewOps(engine)

			_, err := ops.EncodeJPEG(h)
			assert.ErrorIs(t, err, ErrNoPixelData)

			_, err = ops.EncodeWebP(h)
			assert.ErrorIs(t, err, ErrNoPixelData)

			_, err = ops.Colourspace(h, InterpretationBW)
			assert.ErrorIs(t, err, ErrNoPixelData)

			_, err = ops.Blur(h, 2.5)
			assert.ErrorIs(t, err, ErrNoPixelData)

			// The engine must never see a rejected handle.
			assert.Empty(t, engine.jpegOpts)
			assert.Empty(t, engine.callNames)
		})
	}
}

func TestOpsDelegatesUsableHandles(t *testing.T) {
	encoded := []byte{0xFF, 0xD8, 0xFF}
	result := Materialized(testImage())

	tests := map[string]*Handle{
		"materialized": Materialized(testImage()),
		"partial with generator": Partial(func() (image.Image, error) {
			return testImage(), nil
		}),
	}

	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			engine := &mockEngine{encoded: encoded, result: result}
			ops := NewOps(engine)

			buf, err := ops.EncodeJPEG(h)
			require.NoError(t, err)
			assert.Equal(t, encoded, buf)

			buf, err = ops.EncodeWebP(h)
			require.NoError(t, err)
			assert.Equal(t, encoded, buf)

			out, err := ops.Colourspace(h, InterpretationSRGB)
			require.NoError(t, err)
			assert.Same(t, result, out)

			out, err = ops.Blur(h, 5)
			require.NoError(t, err)
			assert.Same(t, result, out)
		})
	}
}

func TestEncodeJPEGForcesProgressiveAndOptimizedCoding(t *testing.T) {
	engine := &mockEngine{encoded: []byte{1}}
	ops := NewOps(engine)

	_, err := ops.EncodeJPEG(Materialized(testImage()))
	require.NoError(t, err)

	require.Len(t, engine.jpegOpts, 1)
	assert.True(t, engine.jpegOpts[0].Interlace)
	assert.True(t, engine.jpegOpts[0].OptimizeCoding)
}

func TestColourspaceAndBlurUseNamedOperations(t *testing.T) {
	engine := &mockEngine{result: Materialized(testImage())}
	ops := NewOps(engine)
	h := Materialized(testImage())

	_, err := ops.Colourspace(h, InterpretationCMYK)
	require.NoError(t, err)

	_, err = ops.Blur(h, 3.5)
	require.NoError(t, err)

	require.Equal(t, []string{"colourspace", "gaussblur"}, engine.callNames)
	assert.Equal(t, []any{InterpretationCMYK}, engine.callArgs[0])
	assert.Equal(t, []any{3.5}, engine.callArgs[1])
}

func TestOpsPropagatesEngineErrors(t *testing.T) {
	engineErr := errors.New("codec failure")
	engine := &mockEngine{err: engineErr}
	ops := NewOps(engine)
	h := Materialized(testImage())

	_, err := ops.EncodeJPEG(h)
	assert.ErrorIs(t, err, engineErr)

	_, err = ops.Thumbnail([]byte("not an image"), 10, 10, InterestCentre)
	assert.ErrorIs(t, err, engineErr)
}

func TestPartialHandleGeneratorRunsOnce(t *testing.T) {
	runs := 0
	h := Partial(func() (image.Image, error) {
		runs++
		return testImage(), nil
	})

	_, err := h.Image()
	require.NoError(t, err)
	_, err = h.Image()
	require.NoError(t, err)

	assert.Equal(t, 1, runs)
}
