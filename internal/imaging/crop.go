package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// cropTo scales src to cover target and cuts the centred target window.
func cropTo(src image.Image, target bip.Size, rs Resampler) image.Image {
	b := src.Bounds()
	cover := coverSize(bip.Size{Width: b.Dx(), Height: b.Dy()}, target)
	scaled := rs.Resize(src, cover.Width, cover.Height)
	return imaging.CropCenter(scaled, target.Width, target.Height)
}

// letterbox scales src to fit inside target and centres it on a canvas of
// the fill colour.
func letterbox(src image.Image, target bip.Size, rs Resampler, fill color.Color) image.Image {
	b := src.Bounds()
	fit := fitInside(bip.Size{Width: b.Dx(), Height: b.Dy()}, target)
	scaled := rs.Resize(src, fit.Width, fit.Height)
	return imaging.PasteCenter(imaging.New(target.Width, target.Height, fill), scaled)
}

// coverSize is the smallest aspect-preserving scale of s that covers t.
func coverSize(s, t bip.Size) bip.Size {
	if s.Width*t.Height >= s.Height*t.Width {
		// Source is wider: match heights.
		return bip.Size{Width: ceilDiv(s.Width*t.Height, s.Height), Height: t.Height}
	}
	return bip.Size{Width: t.Width, Height: ceilDiv(s.Height*t.Width, s.Width)}
}

// fitInside is the largest aspect-preserving scale of s that fits in t.
// Unlike fitWithin it scales up as well as down.
func fitInside(s, t bip.Size) bip.Size {
	if s.Width*t.Height >= s.Height*t.Width {
		return bip.Size{Width: t.Width, Height: max(1, s.Height*t.Width/s.Width)}
	}
	return bip.Size{Width: max(1, s.Width*t.Height/s.Height), Height: t.Height}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
