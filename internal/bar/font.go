package bar

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face is a fixed-cell bitmap font. Glyph returns a row-major coverage mask
// of Advance()xHeight() bytes, 0 (empty) to 255 (full).
type Face interface {
	Name() string
	Advance() int
	Height() int
	Glyph(r rune) []uint8
}

// TextWidth is the advance of s in f.
func TextWidth(f Face, s string) int {
	return len([]rune(s)) * f.Advance()
}

// LookupFace returns the face registered under name. "" selects mini.
func LookupFace(name string) (Face, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mini":
		return Mini, nil
	case "basic":
		return Basic, nil
	}
	return nil, fmt.Errorf("unknown bar font %q (want mini or basic)", name)
}

// Mini is the built-in 5x7 face with a 1 pixel gap. Letters are drawn
// upper-case; characters outside the table render blank.
var Mini Face = newMiniFace()

// Basic is basicfont.Face7x13.
var Basic Face = newBasicFace(basicfont.Face7x13, "basic")

const (
	miniCols    = 5
	miniRows    = 7
	miniAdvance = 6
)

var miniBitmaps = map[rune][miniRows]uint8{
	'0': {0x0E, 0x11, 0x13, 0x15, 0x19, 0x11, 0x0E},
	'1': {0x04, 0x0C, 0x04, 0x04, 0x04, 0x04, 0x0E},
	'2': {0x0E, 0x11, 0x01, 0x02, 0x04, 0x08, 0x1F},
	'3': {0x1F, 0x02, 0x04, 0x02, 0x01, 0x11, 0x0E},
	'4': {0x02, 0x06, 0x0A, 0x12, 0x1F, 0x02, 0x02},
	'5': {0x1F, 0x10, 0x1E, 0x01, 0x01, 0x11, 0x0E},
	'6': {0x06, 0x08, 0x10, 0x1E, 0x11, 0x11, 0x0E},
	'7': {0x1F, 0x01, 0x02, 0x04, 0x08, 0x08, 0x08},
	'8': {0x0E, 0x11, 0x11, 0x0E, 0x11, 0x11, 0x0E},
	'9': {0x0E, 0x11, 0x11, 0x0F, 0x01, 0x02, 0x0C},
	'A': {0x0E, 0x11, 0x11, 0x1F, 0x11, 0x11, 0x11},
	'B': {0x1E, 0x11, 0x11, 0x1E, 0x11, 0x11, 0x1E},
	'C': {0x0E, 0x11, 0x10, 0x10, 0x10, 0x11, 0x0E},
	'D': {0x1E, 0x11, 0x11, 0x11, 0x11, 0x11, 0x1E},
	'E': {0x1F, 0x10, 0x10, 0x1E, 0x10, 0x10, 0x1F},
	'F': {0x1F, 0x10, 0x10, 0x1E, 0x10, 0x10, 0x10},
	'G': {0x0E, 0x11, 0x10, 0x17, 0x11, 0x11, 0x0F},
	'H': {0x11, 0x11, 0x11, 0x1F, 0x11, 0x11, 0x11},
	'I': {0x0E, 0x04, 0x04, 0x04, 0x04, 0x04, 0x0E},
	'J': {0x07, 0x02, 0x02, 0x02, 0x02, 0x12, 0x0C},
	'K': {0x11, 0x12, 0x14, 0x18, 0x14, 0x12, 0x11},
	'L': {0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x1F},
	'M': {0x11, 0x1B, 0x15, 0x15, 0x11, 0x11, 0x11},
	'N': {0x11, 0x11, 0x19, 0x15, 0x13, 0x11, 0x11},
	'O': {0x0E, 0x11, 0x11, 0x11, 0x11, 0x11, 0x0E},
	'P': {0x1E, 0x11, 0x11, 0x1E, 0x10, 0x10, 0x10},
	'Q': {0x0E, 0x11, 0x11, 0x11, 0x15, 0x12, 0x0D},
	'R': {0x1E, 0x11, 0x11, 0x1E, 0x14, 0x12, 0x11},
	'S': {0x0F, 0x10, 0x10, 0x0E, 0x01, 0x01, 0x1E},
	'T': {0x1F, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04},
	'U': {0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x0E},
	'V': {0x11, 0x11, 0x11, 0x11, 0x11, 0x0A, 0x04},
	'W': {0x11, 0x11, 0x11, 0x15, 0x15, 0x1B, 0x11},
	'X': {0x11, 0x11, 0x0A, 0x04, 0x0A, 0x11, 0x11},
	'Y': {0x11, 0x11, 0x11, 0x0A, 0x04, 0x04, 0x04},
	'Z': {0x1F, 0x01, 0x02, 0x04, 0x08, 0x10, 0x1F},
	' ': {},
	':': {0x00, 0x0C, 0x0C, 0x00, 0x0C, 0x0C, 0x00},
	'/': {0x01, 0x01, 0x02, 0x04, 0x08, 0x10, 0x10},
	'-': {0x00, 0x00, 0x00, 0x1F, 0x00, 0x00, 0x00},
	'.': {0x00, 0x00, 0x00, 0x00, 0x00, 0x0C, 0x0C},
	',': {0x00, 0x00, 0x00, 0x00, 0x00, 0x0C, 0x04},
}

type miniFace struct {
	glyphs map[rune][]uint8
	blank  []uint8
}

func newMiniFace() *miniFace {
	f := &miniFace{
		glyphs: make(map[rune][]uint8, len(miniBitmaps)),
		blank:  make([]uint8, miniAdvance*miniRows),
	}
	for r, rows := range miniBitmaps {
		mask := make([]uint8, miniAdvance*miniRows)
		for y, bits := range rows {
			for x := 0; x < miniCols; x++ {
				if bits&(1<<(miniCols-1-x)) != 0 {
					mask[y*miniAdvance+x] = 0xff
				}
			}
		}
		f.glyphs[r] = mask
	}
	return f
}

func (f *miniFace) Name() string { return "mini" }
func (f *miniFace) Advance() int { return miniAdvance }
func (f *miniFace) Height() int  { return miniRows }

func (f *miniFace) Glyph(r rune) []uint8 {
	if g, ok := f.glyphs[unicode.ToUpper(r)]; ok {
		return g
	}
	return f.blank
}

// basicFace rasterizes a golang.org/x/image basicfont face once per rune.
type basicFace struct {
	name    string
	face    *basicfont.Face
	advance int
	height  int
	cache   map[rune][]uint8
}

func newBasicFace(face *basicfont.Face, name string) *basicFace {
	return &basicFace{
		name:    name,
		face:    face,
		advance: face.Advance,
		height:  face.Height,
		cache:   make(map[rune][]uint8),
	}
}

func (f *basicFace) Name() string { return f.name }
func (f *basicFace) Advance() int { return f.advance }
func (f *basicFace) Height() int  { return f.height }

func (f *basicFace) Glyph(r rune) []uint8 {
	if g, ok := f.cache[r]; ok {
		return g
	}
	out := make([]uint8, f.advance*f.height)
	var drawer font.Face = f.face
	dr, mask, maskp, _, ok := drawer.Glyph(fixed.P(0, f.face.Ascent), r)
	if ok {
		renderMask(out, f.advance, f.height, dr, mask, maskp)
	}
	f.cache[r] = out
	return out
}

func renderMask(out []uint8, w, h int, dr image.Rectangle, mask image.Image, maskp image.Point) {
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		if y < 0 || y >= h {
			continue
		}
		for x := dr.Min.X; x < dr.Max.X; x++ {
			if x < 0 || x >= w {
				continue
			}
			mx := maskp.X + (x - dr.Min.X)
			my := maskp.Y + (y - dr.Min.Y)
			a := color.AlphaModel.Convert(mask.At(mx, my)).(color.Alpha).A
			out[y*w+x] = a
		}
	}
}
