// Package negotiate resolves a peer's image descriptor against the server's
// capability bounds into a concrete render spec.
//
// Resolution is pure: the descriptor is read, never modified, and the
// result is either a complete bip.RenderSpec or a typed rejection. There is
// no partial result.
//
// # Resolution Order
//
//  1. Acceptance gate: version must be "1.0", encoding and pixel present.
//  2. Pixel: empty selects the native size; otherwise ResolvePixel.
//  3. Transformation: absent, or one of stretch, fill, crop.
//  4. Encoding: empty selects JPEG; otherwise JPEG or PNG in any case.
//  5. Max size: absent, or a non-negative decimal byte count.
package negotiate

import (
	"fmt"
	"strconv"

	"github.com/ironsheep/bip-coverart/internal/bip"
	"github.com/ironsheep/bip-coverart/internal/descriptor"
)

// Engine negotiates descriptors against fixed server bounds.
type Engine struct {
	Bounds bip.Bounds
}

// New creates an engine for bounds.
func New(bounds bip.Bounds) *Engine {
	return &Engine{Bounds: bounds}
}

// Resolve validates d and produces the render spec. native supplies the
// dimensions used when the peer leaves pixel empty.
func (e *Engine) Resolve(d descriptor.Descriptor, native bip.Size) (bip.RenderSpec, error) {
	if d.Version != bip.Version {
		return bip.RenderSpec{}, fmt.Errorf("%w: %q", bip.ErrInvalidVersion, d.Version)
	}
	if !d.Encoding.Present || !d.Pixel.Present {
		return bip.RenderSpec{}, fmt.Errorf("%w: image element needs encoding and pixel attributes", bip.ErrMalformedDescriptor)
	}

	var spec bip.RenderSpec

	if d.Pixel.Value == "" {
		if native.IsZero() {
			return bip.RenderSpec{}, fmt.Errorf("%w: native size unknown", bip.ErrRenderFailure)
		}
		spec.Width, spec.Height = native.Width, native.Height
	} else {
		size, err := ResolvePixel(d.Pixel.Value, e.Bounds)
		if err != nil {
			return bip.RenderSpec{}, err
		}
		spec.Width, spec.Height = size.Width, size.Height
	}

	if d.Transformation.Present {
		t, err := ValidateTransformation(d.Transformation.Value)
		if err != nil {
			return bip.RenderSpec{}, err
		}
		spec.Transformation = t
	}

	enc, err := bip.ParseEncoding(d.Encoding.Value)
	if err != nil {
		return bip.RenderSpec{}, err
	}
	spec.Encoding = enc

	if d.MaxSize.Present {
		n, err := strconv.ParseInt(d.MaxSize.Value, 10, 64)
		if err != nil || n < 0 {
			return bip.RenderSpec{}, fmt.Errorf("%w: maxsize %q", bip.ErrMalformedDescriptor, d.MaxSize.Value)
		}
		spec.MaxSize = n
		spec.SizeLimited = true
	}

	return spec, nil
}

// ValidateTransformation accepts exactly stretch, fill or crop.
func ValidateTransformation(t string) (string, error) {
	switch t {
	case bip.TransformStretch, bip.TransformFill, bip.TransformCrop:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", bip.ErrInvalidTransformation, t)
	}
}
