package bar

import (
	"image"
	"math"

	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
)

// Canvas is a dense row-major RGBA8 buffer (not premultiplied). Resize keeps
// the backing array when it is large enough.
type Canvas struct {
	Width  int
	Height int
	Pix    []byte
}

// NewCanvas allocates a cleared canvas.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Stride is the number of bytes per row.
func (c *Canvas) Stride() int {
	return c.Width * 4
}

// Resize changes the canvas size and clears it.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	n := w * h * 4
	if cap(c.Pix) >= n {
		c.Pix = c.Pix[:n]
	} else {
		c.Pix = make([]byte, n)
	}
	c.Width, c.Height = w, h
	c.Clear()
}

// Clear sets every pixel to transparent black.
func (c *Canvas) Clear() {
	clear(c.Pix)
}

// Bounds is the canvas rectangle at the origin.
func (c *Canvas) Bounds() platform.Rect {
	return platform.Rect{Width: c.Width, Height: c.Height}
}

// At returns the normalized colour of one pixel.
func (c *Canvas) At(x, y int) style.Color {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return style.Transparent
	}
	i := (y*c.Width + x) * 4
	return style.Color{
		R: float64(c.Pix[i]) / 255,
		G: float64(c.Pix[i+1]) / 255,
		B: float64(c.Pix[i+2]) / 255,
		A: float64(c.Pix[i+3]) / 255,
	}
}

// Blend composites col over the pixel at (x, y) with the given coverage:
//
//	out  = src*srcA + dst*(1-srcA)
//	outA = srcA + dstA*(1-srcA)
func (c *Canvas) Blend(x, y int, col style.Color, coverage float64) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}
	sa := col.A * coverage
	if sa <= 0 {
		return
	}
	BlendPixel(c.Pix[(y*c.Width+x)*4:], col, sa)
}

// BlendPixel applies source-over to the four bytes at px.
func BlendPixel(px []byte, col style.Color, srcA float64) {
	inv := 1 - srcA
	px[0] = unit8(col.R*srcA + float64(px[0])/255*inv)
	px[1] = unit8(col.G*srcA + float64(px[1])/255*inv)
	px[2] = unit8(col.B*srcA + float64(px[2])/255*inv)
	px[3] = unit8(srcA + float64(px[3])/255*inv)
}

func unit8(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(math.Round(v * 255))
}

// FillRect blends a solid rectangle, clipped to the canvas.
func (c *Canvas) FillRect(r platform.Rect, col style.Color) {
	r = r.Intersect(c.Bounds())
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			c.Blend(x, y, col, 1)
		}
	}
}

// FillCircle blends every pixel with dx*dx+dy*dy <= radius*radius.
func (c *Canvas) FillCircle(cx, cy, radius int, col style.Color) {
	r2 := radius * radius
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				c.Blend(x, y, col, 1)
			}
		}
	}
}

// DrawText draws s with its top-left cell corner at (x, y).
func (c *Canvas) DrawText(x, y int, s string, face Face, col style.Color) {
	adv, h := face.Advance(), face.Height()
	for _, r := range s {
		mask := face.Glyph(r)
		for gy := 0; gy < h; gy++ {
			for gx := 0; gx < adv; gx++ {
				if a := mask[gy*adv+gx]; a != 0 {
					c.Blend(x+gx, y+gy, col, float64(a)/255)
				}
			}
		}
		x += adv
	}
}

// Image wraps the canvas pixels without copying.
func (c *Canvas) Image() *image.NRGBA {
	return &image.NRGBA{Pix: c.Pix, Stride: c.Stride(), Rect: image.Rect(0, 0, c.Width, c.Height)}
}
