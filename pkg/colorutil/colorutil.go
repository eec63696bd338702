// Package colorutil provides shared color helpers: hex round-tripping for
// persisted region colors and a distinct overlay palette.
package colorutil

import (
	"fmt"
	"image/color"
	"strings"
)

// Overlay colors used for region outlines, chosen to stay readable over
// both layout material and background.
var (
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange  = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Green   = color.RGBA{R: 0, G: 220, B: 0, A: 255}
	Violet  = color.RGBA{R: 170, G: 90, B: 255, A: 255}
)

var palette = []color.RGBA{Cyan, Magenta, Yellow, Orange, Green, Violet}

// Palette returns the i-th overlay color, cycling when regions outnumber
// the palette.
func Palette(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// FormatHex renders a color as #rrggbb.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rgb or #rrggbb, case-insensitive. Alpha is always full.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	var r, g, b uint8
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	default:
		return color.RGBA{}, fmt.Errorf("parse color %q: want #rgb or #rrggbb", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
