package bip

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetID identifies an underlying media asset (an album) in the catalog.
type AssetID int64

// Handle is the protocol-visible identifier of an asset's image.
type Handle string

const (
	// HandleDigits is the fixed width of a handle on the wire.
	HandleDigits = 7

	// MaxHandle is one past the largest numeric handle value.
	MaxHandle = 10_000_000

	// Version is the only image-descriptor / image-properties version served.
	Version = "1.0"
)

// FormatHandle renders n as a zero-padded 7-digit handle.
// n must be in [0, MaxHandle).
func FormatHandle(n int) Handle {
	return Handle(fmt.Sprintf("%07d", n))
}

// ParseHandle checks that s has the shape of a handle. It says nothing
// about whether the handle was ever allocated.
func ParseHandle(s string) (Handle, error) {
	if len(s) != HandleDigits {
		return "", fmt.Errorf("%w: handle %q must be %d digits", ErrUnknownHandle, s, HandleDigits)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: handle %q contains non-digit", ErrUnknownHandle, s)
		}
	}
	return Handle(s), nil
}

// String implements fmt.Stringer.
func (h Handle) String() string { return string(h) }

// Encoding is an image compression format offered to peers.
type Encoding string

const (
	EncodingJPEG Encoding = "JPEG"
	EncodingPNG  Encoding = "PNG"

	// DefaultEncoding is used when a peer accepts any encoding.
	DefaultEncoding = EncodingJPEG
)

// Encodings lists the formats advertised as variants, in wire order.
var Encodings = []Encoding{EncodingJPEG, EncodingPNG}

// ParseEncoding matches s case-insensitively against the supported formats.
// An empty string selects DefaultEncoding.
func ParseEncoding(s string) (Encoding, error) {
	if s == "" {
		return DefaultEncoding, nil
	}
	for _, e := range Encodings {
		if strings.EqualFold(s, string(e)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s)
}

// MimeType returns the media type of encoded output.
func (e Encoding) MimeType() string {
	switch e {
	case EncodingPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// Size is a pixel dimension pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String renders the size in "W*H" notation.
func (s Size) String() string {
	return strconv.Itoa(s.Width) + "*" + strconv.Itoa(s.Height)
}

// IsZero reports whether no dimension is known.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Bounds are the server's rendering capability limits, inclusive on both ends.
type Bounds struct {
	MinWidth  int `yaml:"min_width" json:"min_width" validate:"gte=1"`
	MinHeight int `yaml:"min_height" json:"min_height" validate:"gte=1"`
	MaxWidth  int `yaml:"max_width" json:"max_width" validate:"gtefield=MinWidth"`
	MaxHeight int `yaml:"max_height" json:"max_height" validate:"gtefield=MinHeight"`
}

// DefaultBounds returns the stock 100*100-1280*1080 capability range.
func DefaultBounds() Bounds {
	return Bounds{MinWidth: 100, MinHeight: 100, MaxWidth: 1280, MaxHeight: 1080}
}

// Range renders the bounds as a pixel range "minW*minH-maxW*maxH".
func (b Bounds) Range() string {
	return Size{b.MinWidth, b.MinHeight}.String() + "-" + Size{b.MaxWidth, b.MaxHeight}.String()
}

// Max returns the largest renderable size.
func (b Bounds) Max() Size { return Size{b.MaxWidth, b.MaxHeight} }

// Contains reports whether s lies within the bounds on both axes.
func (b Bounds) Contains(s Size) bool {
	return s.Width >= b.MinWidth && s.Width <= b.MaxWidth &&
		s.Height >= b.MinHeight && s.Height <= b.MaxHeight
}

// Attributes is the per-handle record kept by the handle registry.
//
// A record is seeded with only Asset and Ref when the handle is first
// allocated, and enriched with native dimensions and byte size once the
// source has been read.
type Attributes struct {
	Asset    AssetID  `json:"asset"`
	Ref      string   `json:"ref"`
	Version  string   `json:"version"`
	Encoding Encoding `json:"encoding"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Size     int64    `json:"size"`
}

// NewAttributes seeds a record for a freshly allocated handle.
func NewAttributes(asset AssetID, ref string) Attributes {
	return Attributes{
		Asset:    asset,
		Ref:      ref,
		Version:  Version,
		Encoding: DefaultEncoding,
	}
}

// Enriched reports whether native properties have been read.
func (a Attributes) Enriched() bool { return a.Width > 0 && a.Height > 0 }

// Native returns the native pixel size.
func (a Attributes) Native() Size { return Size{a.Width, a.Height} }

// Pixel renders the native size as "W*H", or "" before enrichment.
func (a Attributes) Pixel() string {
	if !a.Enriched() {
		return ""
	}
	return a.Native().String()
}

// NativeSize renders the native byte size, or "" before enrichment.
func (a Attributes) NativeSize() string {
	if !a.Enriched() {
		return ""
	}
	return strconv.FormatInt(a.Size, 10)
}

// Transformation values a peer may request.
const (
	TransformStretch = "stretch"
	TransformFill    = "fill"
	TransformCrop    = "crop"
)

// RenderSpec is the concrete, negotiated output of a single request.
type RenderSpec struct {
	Width          int
	Height         int
	Encoding       Encoding
	Transformation string

	// MaxSize is the byte ceiling on the compressed artifact. It only
	// applies when SizeLimited is set.
	MaxSize     int64
	SizeLimited bool
}

// Size returns the target dimensions.
func (r RenderSpec) Size() Size { return Size{r.Width, r.Height} }

// Exceeds reports whether an artifact of n bytes breaks the size ceiling.
func (r RenderSpec) Exceeds(n int64) bool {
	return r.SizeLimited && n > r.MaxSize
}
