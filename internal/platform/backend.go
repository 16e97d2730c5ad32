package platform

import (
	"errors"

	"github.com/1broseidon/tessel/internal/style"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inset shrinks the rect by n on every side, never below zero size.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, Width: r.Width - 2*n, Height: r.Height - 2*n}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Intersect returns the overlap of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.Width, o.X+o.Width), min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Union returns the smallest rect covering r and o. Empty rects are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.X+r.Width, o.X+o.Width), max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Overlaps reports whether r and o share any pixel.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowInfo is what the protocol layer reports when a client maps a surface.
type WindowInfo struct {
	ID    WindowID
	PID   int
	AppID string
	Title string
	// Size is the client's requested size, used as its floating size.
	// Zero means no request.
	Size Size
}

// TextureID identifies a renderer-owned texture.
type TextureID uint64

// WindowDraw is one visible window in a frame.
type WindowDraw struct {
	ID          WindowID
	Rect        Rect
	BorderColor style.Color
	BorderWidth int
	Focused     bool
	AppID       string
}

// BarDraw places a bar texture on the output. Damage is in texture coordinates;
// an empty slice means the texture did not change.
type BarDraw struct {
	Texture TextureID
	Target  Rect
	Damage  []Rect
	Commit  uint64
}

// Frame is everything the renderer needs for one tick.
type Frame struct {
	Output     Size
	Background style.Color
	Windows    []WindowDraw
	Bars       []BarDraw
}

// Renderer uploads textures and presents frames. Implementations own texture memory.
type Renderer interface {
	CreateTexture(width, height int) (TextureID, error)
	// UpdateTexture copies pix (RGBA8, row-major, stride bytes per row) into the
	// texture. Only the damage rects need to be honoured.
	UpdateTexture(id TextureID, pix []byte, stride int, damage []Rect) error
	DestroyTexture(id TextureID)
	Submit(frame Frame) error
}

// ErrSpawnFailure is reported when an external process cannot be launched.
var ErrSpawnFailure = errors.New("spawn failed")

// Spawner launches external programs without waiting for them.
type Spawner interface {
	Spawn(command string) error
}

// Closer asks a client window to close.
type Closer interface {
	Close(id WindowID) error
}
