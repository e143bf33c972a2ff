package negotiate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// rangeFit classifies a requested pixel range against the server bounds.
type rangeFit int

const (
	// fitUnsupported covers every mixed combination the responder will not
	// guess at.
	fitUnsupported rangeFit = iota

	// fitSpans: the range reaches the server minimum and maximum on both
	// axes.
	fitSpans

	// fitWithin: the range spans neither axis and the requested maximum
	// lies inside the server bounds on both axes.
	fitWithin

	// fitExceeds: the requested minimum satisfies the server minimum and
	// the requested maximum is beyond the server maximum on both axes.
	fitExceeds
)

func (f rangeFit) String() string {
	switch f {
	case fitSpans:
		return "spans"
	case fitWithin:
		return "within"
	case fitExceeds:
		return "exceeds"
	default:
		return "unsupported"
	}
}

// ResolvePixel turns a non-empty pixel attribute into a concrete size.
//
// Discrete form "W*H" resolves to itself when it lies inside b. Range form
// "minW*minH-maxW*maxH" must be ordered and overlap b; it then resolves to
// the server maximum when the range spans or exceeds the bounds, or to the
// requested maximum when that maximum already fits. Every other range is
// rejected. All failures wrap bip.ErrInvalidPixelSpec.
func ResolvePixel(pixel string, b bip.Bounds) (bip.Size, error) {
	switch strings.Count(pixel, "-") {
	case 0:
		return resolveDiscrete(pixel, b)
	case 1:
		return resolveRange(pixel, b)
	default:
		return bip.Size{}, fmt.Errorf("%w: %q has more than one range separator", bip.ErrInvalidPixelSpec, pixel)
	}
}

func resolveDiscrete(pixel string, b bip.Bounds) (bip.Size, error) {
	s, err := parseSize(pixel)
	if err != nil {
		return bip.Size{}, err
	}
	if !b.Contains(s) {
		return bip.Size{}, fmt.Errorf("%w: %s outside %s", bip.ErrInvalidPixelSpec, s, b.Range())
	}
	return s, nil
}

func resolveRange(pixel string, b bip.Bounds) (bip.Size, error) {
	loText, hiText, _ := strings.Cut(pixel, "-")
	lo, err := parseSize(loText)
	if err != nil {
		return bip.Size{}, err
	}
	hi, err := parseSize(hiText)
	if err != nil {
		return bip.Size{}, err
	}

	if hi.Width < lo.Width || hi.Height < lo.Height {
		return bip.Size{}, fmt.Errorf("%w: range %q is inverted", bip.ErrInvalidPixelSpec, pixel)
	}
	if hi.Width < b.MinWidth || lo.Width > b.MaxWidth ||
		hi.Height < b.MinHeight || lo.Height > b.MaxHeight {
		return bip.Size{}, fmt.Errorf("%w: range %q does not overlap %s", bip.ErrInvalidPixelSpec, pixel, b.Range())
	}

	switch fit := classifyRange(lo, hi, b); fit {
	case fitSpans, fitExceeds:
		return b.Max(), nil
	case fitWithin:
		return hi, nil
	case fitUnsupported:
		return bip.Size{}, fmt.Errorf("%w: range %q is an unsupported combination for %s", bip.ErrInvalidPixelSpec, pixel, b.Range())
	default:
		panic(fmt.Sprintf("negotiate: unhandled range fit %v", fit))
	}
}

// classifyRange evaluates the outcomes in priority order. An axis spans the
// bounds when the request reaches both server limits on it, inclusively.
// A range spanning exactly one axis matches no outcome.
func classifyRange(lo, hi bip.Size, b bip.Bounds) rangeFit {
	spansW := lo.Width <= b.MinWidth && hi.Width >= b.MaxWidth
	spansH := lo.Height <= b.MinHeight && hi.Height >= b.MaxHeight
	loSatisfied := lo.Width >= b.MinWidth && lo.Height >= b.MinHeight
	hiContained := hi.Width <= b.MaxWidth && hi.Height <= b.MaxHeight
	hiBeyond := hi.Width > b.MaxWidth && hi.Height > b.MaxHeight

	switch {
	case spansW && spansH:
		return fitSpans
	case !spansW && !spansH && hiContained:
		return fitWithin
	case loSatisfied && hiBeyond:
		return fitExceeds
	default:
		return fitUnsupported
	}
}

// parseSize reads "W*H" with exactly one separator and two decimal integers.
func parseSize(s string) (bip.Size, error) {
	w, h, ok := strings.Cut(s, "*")
	if !ok || strings.Contains(h, "*") {
		return bip.Size{}, fmt.Errorf("%w: %q is not W*H", bip.ErrInvalidPixelSpec, s)
	}
	width, err := parseDimension(w)
	if err != nil {
		return bip.Size{}, fmt.Errorf("%w: width in %q: %v", bip.ErrInvalidPixelSpec, s, err)
	}
	height, err := parseDimension(h)
	if err != nil {
		return bip.Size{}, fmt.Errorf("%w: height in %q: %v", bip.ErrInvalidPixelSpec, s, err)
	}
	return bip.Size{Width: width, Height: height}, nil
}

func parseDimension(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}
