// pkg/core/color.go
package core

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is a linear color with channels in [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// ParseHexColor converts a 6-digit hex string ("FF8000") into channels by
// dividing each byte by 255.
func ParseHexColor(hex string) (RGB, error) {
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("color %q: expected 6 hex digits", hex)
	}
	for _, r := range hex {
		if !isHexDigit(r) {
			return RGB{}, fmt.Errorf("color %q: invalid hex digit %q", hex, r)
		}
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", hex, err)
	}
	return RGB{R: c.R, G: c.G, B: c.B}, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
