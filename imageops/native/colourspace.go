package native

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/pixelforge/pixelforge/imageops"
)

// colourspace converts the image to a target colourspace; args: one
// imageops.Interpretation tag.
func colourspace(_ *Engine, in image.Image, args []any) (image.Image, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("colourspace: expected 1 argument, got %d", len(args))
	}

	target, ok := args[0].(imageops.Interpretation)
	if !ok {
		if s, isString := args[0].(string); isString {
			target = imageops.Interpretation(s)
			ok = true
		}
	}
	if !ok {
		return nil, fmt.Errorf("colourspace: invalid target %v", args[0])
	}

	switch target {
	case imageops.InterpretationSRGB:
		return imaging.Clone(in), nil
	case imageops.InterpretationBW:
		return imaging.Grayscale(in), nil
	case imageops.InterpretationCMYK:
		return toCMYK(in), nil
	}
	return nil, fmt.Errorf("colourspace: unsupported target %q", target)
}

// toCMYK converts any image to the stdlib CMYK colour model.
func toCMYK(in image.Image) *image.CMYK {
	b := in.Bounds()
	out := image.NewCMYK(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), in, b.Min, draw.Src)
	return out
}
