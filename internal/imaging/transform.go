package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// Resampler scales an image to exactly width x height.
type Resampler interface {
	Resize(img image.Image, width, height int) image.Image
}

type filterResampler struct {
	filter imaging.ResampleFilter
}

func (r filterResampler) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, r.filter)
}

type bildResampler struct{}

func (bildResampler) Resize(img image.Image, width, height int) image.Image {
	return transform.Resize(img, width, height, transform.Linear)
}

// ResamplerNames lists the accepted values for NewResampler.
var ResamplerNames = []string{"lanczos", "catmullrom", "linear", "box", "nearest", "bild"}

// NewResampler returns the resampler registered under name. An empty name
// selects lanczos.
func NewResampler(name string) (Resampler, error) {
	switch name {
	case "", "lanczos":
		return filterResampler{imaging.Lanczos}, nil
	case "catmullrom":
		return filterResampler{imaging.CatmullRom}, nil
	case "linear":
		return filterResampler{imaging.Linear}, nil
	case "box":
		return filterResampler{imaging.Box}, nil
	case "nearest":
		return filterResampler{imaging.NearestNeighbor}, nil
	case "bild":
		return bildResampler{}, nil
	default:
		return nil, fmt.Errorf("unknown resampler: %s", name)
	}
}

// Transform produces a width x height rendition of src according to the
// named transformation. An empty transformation behaves like stretch.
func Transform(src image.Image, width, height int, transformation string, rs Resampler, fill color.Color) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	switch transformation {
	case "", bip.TransformStretch:
		return rs.Resize(src, width, height), nil

	case bip.TransformCrop:
		return cropTo(src, bip.Size{Width: width, Height: height}, rs), nil

	case bip.TransformFill:
		return letterbox(src, bip.Size{Width: width, Height: height}, rs, fill), nil

	default:
		return nil, fmt.Errorf("%w: %q", bip.ErrInvalidTransformation, transformation)
	}
}
