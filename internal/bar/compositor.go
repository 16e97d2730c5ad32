// Package bar lays out the status bar, rasterizes it into an RGBA8 canvas and
// keeps the renderer's copy of it up to date with damage tracking.
package bar

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
)

// renderKey captures every input that affects the bar's pixels.
type renderKey struct {
	state  string
	title  string
	clocks string
	gen    uint64
	size   platform.Size
}

// Compositor owns one bar: its layout, canvas and texture.
type Compositor struct {
	cfg    config.BarConfig
	face   Face
	styles Styler
	gen    uint64
	output platform.Size
	size   platform.Size
	logger *slog.Logger

	canvas   *Canvas
	elements []Element
	key      renderKey
	rendered bool

	texture    platform.TextureID
	texSize    platform.Size
	hasTexture bool
	dirty      bool
	damage     []platform.Rect
	commit     uint64

	rasterizations uint64
}

// New creates a compositor for a bar spanning the output width.
func New(cfg config.BarConfig, output platform.Size, styles Styler, logger *slog.Logger) (*Compositor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	face, err := LookupFace(cfg.Font)
	if err != nil {
		return nil, err
	}
	if cfg.Height <= 0 {
		return nil, fmt.Errorf("bar height must be positive, got %d", cfg.Height)
	}
	c := &Compositor{
		cfg:    cfg,
		face:   face,
		styles: styles,
		output: output,
		size:   platform.Size{Width: output.Width, Height: cfg.Height},
		logger: logger,
		canvas: &Canvas{},
	}
	return c, nil
}

// Reconfigure applies a new bar declaration and style set. The next Update
// re-rasterizes.
func (c *Compositor) Reconfigure(cfg config.BarConfig, output platform.Size, styles Styler) error {
	face, err := LookupFace(cfg.Font)
	if err != nil {
		return err
	}
	if cfg.Height <= 0 {
		return fmt.Errorf("bar height must be positive, got %d", cfg.Height)
	}
	c.cfg = cfg
	c.face = face
	c.output = output
	c.size = platform.Size{Width: output.Width, Height: cfg.Height}
	c.SetStyles(styles)
	return nil
}

// SetStyles swaps the style source and forces a redraw.
func (c *Compositor) SetStyles(s Styler) {
	c.styles = s
	c.gen++
}

// Face returns the glyph face in use.
func (c *Compositor) Face() Face {
	return c.face
}

// Rect is the bar's target rectangle on the output.
func (c *Compositor) Rect() platform.Rect {
	if c.cfg.Position == config.BarBottom {
		return platform.Rect{X: 0, Y: c.output.Height - c.size.Height, Width: c.size.Width, Height: c.size.Height}
	}
	return platform.Rect{Width: c.size.Width, Height: c.size.Height}
}

// Reserve removes the bar's strip from area.
func (c *Compositor) Reserve(area platform.Rect) platform.Rect {
	h := min(c.size.Height, area.Height)
	if c.cfg.Position == config.BarBottom {
		area.Height -= h
		return area
	}
	area.Y += h
	area.Height -= h
	return area
}

// Update re-rasterizes the bar when its inputs changed since the last call.
// It reports whether the canvas was redrawn.
func (c *Compositor) Update(state State, title string, now time.Time) bool {
	key := renderKey{
		state:  stateKey(state),
		title:  title,
		clocks: c.clockKey(now),
		gen:    c.gen,
		size:   c.size,
	}
	if c.rendered && key == c.key {
		return false
	}

	next := c.Elements(state, title, now)
	resized := c.canvas.Width != c.size.Width || c.canvas.Height != c.size.Height
	var damage []platform.Rect
	if resized || !c.rendered {
		damage = []platform.Rect{{Width: c.size.Width, Height: c.size.Height}}
	} else {
		damage = Damage(c.elements, next, c.face, c.canvas.Bounds())
	}

	Rasterize(c.canvas, next, c.face, c.size.Width, c.size.Height)
	c.rasterizations++
	c.elements = next
	c.key = key
	c.rendered = true
	if len(damage) > 0 {
		c.damage = append(c.damage, damage...)
		c.dirty = true
	}
	return true
}

// Present makes sure the renderer holds the current canvas. The texture is
// created on first use and recreated when the size changes; otherwise only
// damaged regions are uploaded.
func (c *Compositor) Present(r platform.Renderer) (platform.BarDraw, error) {
	if !c.rendered {
		return platform.BarDraw{}, fmt.Errorf("bar has not been rasterized")
	}
	size := platform.Size{Width: c.canvas.Width, Height: c.canvas.Height}
	if !c.hasTexture || c.texSize != size {
		if c.hasTexture {
			r.DestroyTexture(c.texture)
			c.hasTexture = false
		}
		id, err := r.CreateTexture(size.Width, size.Height)
		if err != nil {
			return platform.BarDraw{}, fmt.Errorf("create bar texture: %w", err)
		}
		c.texture, c.texSize, c.hasTexture = id, size, true
		c.damage = []platform.Rect{c.canvas.Bounds()}
		c.dirty = true
		c.logger.Debug("bar texture created", "texture", id, "width", size.Width, "height", size.Height)
	}

	draw := platform.BarDraw{Texture: c.texture, Target: c.Rect()}
	if c.dirty {
		if err := r.UpdateTexture(c.texture, c.canvas.Pix, c.canvas.Stride(), c.damage); err != nil {
			return draw, fmt.Errorf("update bar texture: %w", err)
		}
		c.commit++
		draw.Damage = c.damage
		c.damage = nil
		c.dirty = false
	}
	draw.Commit = c.commit
	return draw, nil
}

// Release destroys the texture, if any.
func (c *Compositor) Release(r platform.Renderer) {
	if c.hasTexture {
		r.DestroyTexture(c.texture)
		c.hasTexture = false
	}
}

// Canvas exposes the last rasterized pixels.
func (c *Compositor) Canvas() *Canvas {
	return c.canvas
}

// Rasterizations counts canvas redraws.
func (c *Compositor) Rasterizations() uint64 {
	return c.rasterizations
}

// Commit counts texture uploads.
func (c *Compositor) Commit() uint64 {
	return c.commit
}

func (c *Compositor) clockKey(now time.Time) string {
	var parts []string
	for _, w := range c.cfg.Widgets {
		if w.Type == config.WidgetClock {
			parts = append(parts, FormatClock(w.Format, now))
		}
	}
	return strings.Join(parts, "\x00")
}

func stateKey(s State) string {
	var b strings.Builder
	for _, ws := range s.Workspaces {
		b.WriteString(strconv.Itoa(ws.ID))
		b.WriteByte(':')
		b.WriteString(ws.Name)
		if ws.Active {
			b.WriteString(":a")
		}
		if ws.Occupied {
			b.WriteString(":o")
		}
		b.WriteByte(';')
	}
	return b.String()
}
