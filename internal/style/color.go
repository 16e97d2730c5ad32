package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is a straight-alpha RGBA colour with channels normalized to 0..1.
type Color struct {
	R, G, B, A float64
}

// Transparent is the zero colour.
var Transparent = Color{}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"white":       {1, 1, 1, 1},
	"red":         {1, 0, 0, 1},
	"green":       {0, 1, 0, 1},
	"blue":        {0, 0, 1, 1},
	"gray":        {0.5, 0.5, 0.5, 1},
	"grey":        {0.5, 0.5, 0.5, 1},
	"transparent": {0, 0, 0, 0},
}

// RGBA8 returns the colour as 8-bit channels, rounded to nearest.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return to8(c.R), to8(c.G), to8(c.B), to8(c.A)
}

// Uint32 packs the colour as 0xRRGGBB, ignoring alpha. X11 pixel values use this layout.
func (c Color) Uint32() uint32 {
	r, g, b, _ := c.RGBA8()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Hex formats the colour as #rrggbbaa.
func (c Color) Hex() string {
	r, g, b, a := c.RGBA8()
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

func (c Color) String() string {
	return c.Hex()
}

// MustColor parses s and panics on failure. Intended for package-level defaults.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseColor accepts #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba() and a few named colours.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}, fmt.Errorf("empty colour")
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb(") {
		return parseFunc(s)
	}
	return Color{}, fmt.Errorf("unsupported colour %q", s)
}

func parseHex(h string) (Color, error) {
	switch len(h) {
	case 3, 4:
		var expanded strings.Builder
		for _, ch := range h {
			expanded.WriteRune(ch)
			expanded.WriteRune(ch)
		}
		return parseHex(expanded.String())
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("invalid hex colour #%s", h)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex colour #%s: %w", h, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

func parseFunc(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return Color{}, fmt.Errorf("unterminated colour function %q", s)
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("colour function %q needs 3 or 4 arguments", s)
	}

	var ch [3]float64
	for i := 0; i < 3; i++ {
		p := strings.TrimSpace(parts[i])
		if strings.HasSuffix(p, "%") {
			v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			if err != nil {
				return Color{}, fmt.Errorf("invalid channel %q in %q", p, s)
			}
			ch[i] = clamp01(v / 100)
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Color{}, fmt.Errorf("invalid channel %q in %q", p, s)
		}
		ch[i] = clamp01(v / 255)
	}

	a := 1.0
	if len(parts) == 4 {
		p := strings.TrimSpace(parts[3])
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return Color{}, fmt.Errorf("invalid alpha %q in %q", p, s)
		}
		if strings.HasSuffix(p, "%") {
			v /= 100
		}
		a = clamp01(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
