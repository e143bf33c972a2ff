package imaging

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultFillColor letterboxes the fill transformation in black.
const DefaultFillColor = "#000000"

// ParseFillColor parses a "#RRGGBB" or "#RGB" hex string into an opaque
// colour for the fill transformation's background.
func ParseFillColor(hex string) (color.Color, error) {
	if hex == "" {
		hex = DefaultFillColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid fill color %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
