package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// Renderer loads, scales and compresses album art for the responder.
type Renderer struct {
	cache     *ImageCache
	resampler Resampler
	fill      color.Color
}

// RendererOptions configures NewRenderer.
type RendererOptions struct {
	// Resampler names the scaling filter; see ResamplerNames.
	Resampler string

	// FillColor is the hex background for the fill transformation.
	FillColor string
}

// NewRenderer creates a renderer reading through cache.
func NewRenderer(cache *ImageCache, opts RendererOptions) (*Renderer, error) {
	rs, err := NewResampler(opts.Resampler)
	if err != nil {
		return nil, err
	}
	fill, err := ParseFillColor(opts.FillColor)
	if err != nil {
		return nil, err
	}
	return &Renderer{cache: cache, resampler: rs, fill: fill}, nil
}

// Cache returns the image cache the renderer reads through.
func (r *Renderer) Cache() *ImageCache { return r.cache }

// Native reports the art's native pixel size, clamped to bounds, and its
// byte size on disk.
func (r *Renderer) Native(ctx context.Context, ref string, bounds bip.Bounds) (bip.Size, int64, error) {
	if err := ctx.Err(); err != nil {
		return bip.Size{}, 0, err
	}
	info, err := Probe(r.cache, ref, bounds)
	if err != nil {
		return bip.Size{}, 0, fmt.Errorf("%w: %v", bip.ErrRenderFailure, err)
	}
	return info.Size, info.FileSizeBytes, nil
}

// RenderScaled produces the requested width x height rendition of the art at
// ref, applying its transformation.
func (r *Renderer) RenderScaled(ctx context.Context, ref string, spec bip.RenderSpec) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := r.cache.Load(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bip.ErrRenderFailure, err)
	}
	out, err := Transform(src, spec.Width, spec.Height, spec.Transformation, r.resampler, r.fill)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bip.ErrRenderFailure, err)
	}
	return out, nil
}

// Compress encodes img as enc into w. quality applies to JPEG only.
func (r *Renderer) Compress(img image.Image, enc bip.Encoding, quality int, w io.Writer) error {
	return Compress(img, enc, quality, w)
}

// Compress encodes img as enc into w. quality applies to JPEG only.
func Compress(img image.Image, enc bip.Encoding, quality int, w io.Writer) error {
	var err error
	switch enc {
	case bip.EncodingJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case bip.EncodingPNG:
		err = imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("%w: %q", bip.ErrUnsupportedEncoding, enc)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", enc, err)
	}
	return nil
}
