package bar

import (
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
)

// Element is one drawing primitive. The set is closed: Rectangle, Circle
// and Text.
type Element interface {
	// Bounds is the pixel area the element may touch.
	Bounds(face Face) platform.Rect
	draw(c *Canvas, face Face)
}

// Rectangle is a filled axis-aligned box.
type Rectangle struct {
	Rect  platform.Rect
	Color style.Color
}

func (e Rectangle) Bounds(Face) platform.Rect { return e.Rect }

func (e Rectangle) draw(c *Canvas, _ Face) { c.FillRect(e.Rect, e.Color) }

// Circle is a filled disc.
type Circle struct {
	CX, CY int
	Radius int
	Color  style.Color
}

func (e Circle) Bounds(Face) platform.Rect {
	return platform.Rect{X: e.CX - e.Radius, Y: e.CY - e.Radius, Width: 2*e.Radius + 1, Height: 2*e.Radius + 1}
}

func (e Circle) draw(c *Canvas, _ Face) { c.FillCircle(e.CX, e.CY, e.Radius, e.Color) }

// Text is a single line positioned by its top-left corner.
type Text struct {
	X, Y  int
	Text  string
	Color style.Color
}

func (e Text) Bounds(face Face) platform.Rect {
	return platform.Rect{X: e.X, Y: e.Y, Width: TextWidth(face, e.Text), Height: face.Height()}
}

func (e Text) draw(c *Canvas, face Face) { c.DrawText(e.X, e.Y, e.Text, face, e.Color) }

// Rasterize clears c to w x h and draws elements in order.
func Rasterize(c *Canvas, elements []Element, face Face, w, h int) {
	if c.Width != w || c.Height != h {
		c.Resize(w, h)
	} else {
		c.Clear()
	}
	for _, e := range elements {
		e.draw(c, face)
	}
}

// Damage returns the regions that differ between two element lists: the
// bounds of every element that changed, was added or was removed, clipped to
// area. Lists are compared position by position.
func Damage(prev, next []Element, face Face, area platform.Rect) []platform.Rect {
	var out []platform.Rect
	n := max(len(prev), len(next))
	for i := 0; i < n; i++ {
		var a, b Element
		if i < len(prev) {
			a = prev[i]
		}
		if i < len(next) {
			b = next[i]
		}
		if a == b {
			continue
		}
		if a != nil {
			out = appendDamage(out, a.Bounds(face).Intersect(area))
		}
		if b != nil {
			out = appendDamage(out, b.Bounds(face).Intersect(area))
		}
	}
	return out
}

// appendDamage merges r into an overlapping rect when possible.
func appendDamage(list []platform.Rect, r platform.Rect) []platform.Rect {
	if r.Empty() {
		return list
	}
	for i, d := range list {
		if d.Overlaps(r) {
			list[i] = d.Union(r)
			return list
		}
	}
	return append(list, r)
}
