// Package output provides a software implementation of platform.Renderer.
// It keeps textures in memory and composites each submitted frame into an
// RGBA canvas that can be inspected, saved as PNG or pushed to a preview
// window.
package output

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/1broseidon/tessel/internal/bar"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
)

// WindowFill is the placeholder colour for client window contents.
var WindowFill = style.Color{R: 0.17, G: 0.18, B: 0.24, A: 1}

type texture struct {
	size platform.Size
	pix  []byte
}

// Software is an in-memory renderer. It is safe for concurrent use.
type Software struct {
	mu       sync.Mutex
	textures map[platform.TextureID]*texture
	next     platform.TextureID
	canvas   *bar.Canvas
	last     platform.Frame
	frames   uint64
	uploads  uint64
	onFrame  func(*bar.Canvas)
	logger   *slog.Logger
}

// NewSoftware creates an empty renderer.
func NewSoftware(logger *slog.Logger) *Software {
	if logger == nil {
		logger = slog.Default()
	}
	return &Software{
		textures: make(map[platform.TextureID]*texture),
		canvas:   &bar.Canvas{},
		logger:   logger,
	}
}

// OnFrame registers a callback run after each composite, with the lock held.
// The canvas must not be retained.
func (s *Software) OnFrame(fn func(*bar.Canvas)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = fn
}

func (s *Software) CreateTexture(w, h int) (platform.TextureID, error) {
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("invalid texture size %dx%d", w, h)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.textures[s.next] = &texture{size: platform.Size{Width: w, Height: h}, pix: make([]byte, w*h*4)}
	return s.next, nil
}

func (s *Software) UpdateTexture(id platform.TextureID, pix []byte, stride int, damage []platform.Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.textures[id]
	if !ok {
		return fmt.Errorf("unknown texture %d", id)
	}
	if stride < t.size.Width*4 || len(pix) < stride*(t.size.Height-1)+t.size.Width*4 {
		return fmt.Errorf("texture %d: buffer too small for %dx%d", id, t.size.Width, t.size.Height)
	}
	bounds := platform.Rect{Width: t.size.Width, Height: t.size.Height}
	if len(damage) == 0 {
		damage = []platform.Rect{bounds}
	}
	for _, d := range damage {
		d = d.Intersect(bounds)
		for y := d.Y; y < d.Y+d.Height; y++ {
			src := pix[y*stride+d.X*4 : y*stride+(d.X+d.Width)*4]
			dst := t.pix[(y*t.size.Width+d.X)*4:]
			copy(dst, src)
		}
	}
	s.uploads++
	return nil
}

func (s *Software) DestroyTexture(id platform.TextureID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.textures, id)
	s.logger.Debug("texture destroyed", "texture", id)
}

// Submit composites frame: background, windows in order with their borders,
// then bars.
func (s *Software) Submit(frame platform.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.canvas
	if c.Width != frame.Output.Width || c.Height != frame.Output.Height {
		c.Resize(frame.Output.Width, frame.Output.Height)
	} else {
		c.Clear()
	}
	c.FillRect(c.Bounds(), frame.Background)

	for _, w := range frame.Windows {
		drawWindow(c, w)
	}
	for _, b := range frame.Bars {
		t, ok := s.textures[b.Texture]
		if !ok {
			return fmt.Errorf("frame references unknown texture %d", b.Texture)
		}
		blit(c, t, b.Target)
	}

	s.last = frame
	s.frames++
	if s.onFrame != nil {
		s.onFrame(c)
	}
	return nil
}

func drawWindow(c *bar.Canvas, w platform.WindowDraw) {
	if w.Rect.Empty() {
		return
	}
	bw := w.BorderWidth
	if bw > 0 {
		c.FillRect(w.Rect, w.BorderColor)
	}
	inner := w.Rect.Inset(bw)
	c.FillRect(inner, WindowFill)
	if room := inner.Width - 8; w.AppID != "" && room > 0 && !inner.Empty() {
		if label := bar.Truncate(bar.Mini, w.AppID, room); label != "" {
			c.DrawText(inner.X+4, inner.Y+4, label, bar.Mini, style.Color{R: 0.8, G: 0.83, B: 0.96, A: 1})
		}
	}
}

// blit composites a texture onto the canvas at target.
func blit(c *bar.Canvas, t *texture, target platform.Rect) {
	area := target.Intersect(c.Bounds())
	for y := area.Y; y < area.Y+area.Height; y++ {
		ty := y - target.Y
		if ty >= t.size.Height {
			break
		}
		for x := area.X; x < area.X+area.Width; x++ {
			tx := x - target.X
			if tx >= t.size.Width {
				break
			}
			i := (ty*t.size.Width + tx) * 4
			a := float64(t.pix[i+3]) / 255
			if a == 0 {
				continue
			}
			col := style.Color{
				R: float64(t.pix[i]) / 255,
				G: float64(t.pix[i+1]) / 255,
				B: float64(t.pix[i+2]) / 255,
				A: 1,
			}
			c.Blend(x, y, col, a)
		}
	}
}

// LastFrame returns the most recently submitted frame.
func (s *Software) LastFrame() platform.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Stats reports submitted frames, texture uploads and live textures.
func (s *Software) Stats() (frames, uploads uint64, textures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.uploads, len(s.textures)
}

// TexturePixels returns a copy of a texture's pixels.
func (s *Software) TexturePixels(id platform.TextureID) ([]byte, platform.Size, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.textures[id]
	if !ok {
		return nil, platform.Size{}, false
	}
	return append([]byte(nil), t.pix...), t.size, true
}

// Pixel returns the composited colour at (x, y).
func (s *Software) Pixel(x, y int) style.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.At(x, y)
}

// SavePNG writes the last composite to path.
func (s *Software) SavePNG(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas.Width == 0 || s.canvas.Height == 0 {
		return fmt.Errorf("no frame has been submitted")
	}
	return WritePNG(path, s.canvas)
}

// WritePNG encodes a canvas to a file.
func WritePNG(path string, c *bar.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, c.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
