package carto

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an 8-bit RGBA color. The zero value is fully transparent.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

var (
	Black = RGB(0, 0, 0)
	White = RGB(255, 255, 255)
	Gray  = RGB(128, 128, 128)
)

var namedColors = map[string]Color{
	"black":       Black,
	"white":       White,
	"gray":        Gray,
	"grey":        Gray,
	"lightgray":   RGB(211, 211, 211),
	"lightgrey":   RGB(211, 211, 211),
	"darkgray":    RGB(169, 169, 169),
	"darkgrey":    RGB(169, 169, 169),
	"red":         RGB(255, 0, 0),
	"green":       RGB(0, 128, 0),
	"blue":        RGB(0, 0, 255),
	"yellow":      RGB(255, 255, 0),
	"orange":      RGB(255, 165, 0),
	"brown":       RGB(165, 42, 42),
	"steelblue":   RGB(70, 130, 180),
	"lightblue":   RGB(173, 216, 230),
	"darkgreen":   RGB(0, 100, 0),
	"beige":       RGB(245, 245, 220),
	"transparent": {},
}

// ParseColor parses #rgb, #rrggbb, #rrggbbaa, rgb(r,g,b), rgba(r,g,b,a)
// and a small set of color names.
func ParseColor(value string) (Color, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return Color{}, fmt.Errorf("empty color")
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		if c, ok := parseHexColor(s); ok {
			return c, nil
		}
		return Color{}, fmt.Errorf("invalid hex color %q", value)
	}

	var r, g, b int
	var a float64
	compact := strings.ReplaceAll(s, " ", "")
	if _, err := fmt.Sscanf(compact, "rgba(%d,%d,%d,%g)", &r, &g, &b, &a); err == nil {
		return Color{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: clamp8(int(a*255 + 0.5))}, nil
	}
	if _, err := fmt.Sscanf(compact, "rgb(%d,%d,%d)", &r, &g, &b); err == nil {
		return RGB(clamp8(r), clamp8(g), clamp8(b)), nil
	}
	return Color{}, fmt.Errorf("unknown color %q", value)
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(value string) Color {
	c, err := ParseColor(value)
	if err != nil {
		panic(err)
	}
	return c
}

// parseHexColor parses #rrggbb, #rrggbbaa or #rgb.
func parseHexColor(s string) (Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 && len(s) != 8 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(s) == 6 {
		return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), true
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// Transparent reports whether the color draws nothing.
func (c Color) Transparent() bool {
	return c.A == 0
}

// Floats returns the components scaled to [0, 1].
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", c.R, c.G, c.B, float64(c.A)/255)
}

// UnmarshalText implements encoding.TextUnmarshaler so colors can be
// decoded straight from map files.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
