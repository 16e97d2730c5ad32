// Package tiling computes window geometry for a workspace under the
// tiling, floating and monocle policies.
package tiling

import (
	"log/slog"
	"maps"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/workspace"
)

// CascadeStep is the per-window offset used when cascading floating windows.
const CascadeStep = 30

type cacheEntry struct {
	area  platform.Rect
	geoms map[platform.WindowID]platform.Rect
}

// Engine caches geometries per workspace. Entries are dropped by Invalidate
// and recomputed on the next Geometries call.
type Engine struct {
	floatSize platform.Size
	cache     map[int]cacheEntry
	logger    *slog.Logger

	computed uint64
}

// NewEngine creates an engine using the floating size from defaults.
func NewEngine(defaults config.LayoutDefaults, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{cache: make(map[int]cacheEntry), logger: logger}
	e.SetDefaults(defaults)
	return e
}

// SetDefaults replaces the default floating size and drops every cached entry.
func (e *Engine) SetDefaults(defaults config.LayoutDefaults) {
	e.floatSize = platform.Size{Width: defaults.FloatingWidth, Height: defaults.FloatingHeight}
	if e.floatSize.Width <= 0 || e.floatSize.Height <= 0 {
		e.floatSize = platform.Size{Width: 800, Height: 600}
	}
	e.InvalidateAll()
}

// Invalidate marks one workspace's geometry stale.
func (e *Engine) Invalidate(workspaceID int) {
	delete(e.cache, workspaceID)
}

// InvalidateAll marks every workspace stale.
func (e *Engine) InvalidateAll() {
	clear(e.cache)
}

// Computations reports how many times geometry was actually recomputed.
func (e *Engine) Computations() uint64 {
	return e.computed
}

// Geometries returns the rectangle of every window in v laid out inside area.
// The result is a copy; callers may keep it.
func (e *Engine) Geometries(v workspace.View, area platform.Rect) map[platform.WindowID]platform.Rect {
	if entry, ok := e.cache[v.ID]; ok && entry.area == area {
		return maps.Clone(entry.geoms)
	}
	geoms, fits := Compute(v, area, e.floatSize)
	if !fits {
		e.logger.Warn("output too small for gaps", "workspace", v.ID, "width", area.Width, "height", area.Height,
			"outer", v.Gaps.Outer, "inner", v.Gaps.Inner)
	}
	e.computed++
	e.cache[v.ID] = cacheEntry{area: area, geoms: geoms}
	return maps.Clone(geoms)
}

// Compute is the uncached layout function. fits is false when the gaps leave
// no room, in which case affected windows get zero-area rectangles.
func Compute(v workspace.View, area platform.Rect, floatSize platform.Size) (map[platform.WindowID]platform.Rect, bool) {
	out := make(map[platform.WindowID]platform.Rect, len(v.Windows))
	if len(v.Windows) == 0 {
		return out, true
	}
	usable := Usable(area, v.Gaps.Outer)

	switch v.Layout {
	case config.LayoutFloating:
		for i, w := range v.Windows {
			out[w.ID] = Cascade(area, sizeOf(w, floatSize), i)
		}
		return out, true

	case config.LayoutMonocle:
		target := v.Windows[0].ID
		if id, ok := v.FocusTarget(); ok && containsWindow(v.Windows, id) {
			target = id
		}
		for _, w := range v.Windows {
			if w.ID == target {
				out[w.ID] = usable
			} else {
				out[w.ID] = platform.Rect{X: usable.X, Y: usable.Y}
			}
		}
		return out, !usable.Empty()

	default:
		var tiled []platform.WindowID
		floating := 0
		for _, w := range v.Windows {
			if w.Floating {
				out[w.ID] = Cascade(area, sizeOf(w, floatSize), floating)
				floating++
				continue
			}
			tiled = append(tiled, w.ID)
		}
		rects, fits := Tile(usable, len(tiled), v.Gaps.Inner, v.SplitRatio)
		for i, id := range tiled {
			out[id] = rects[i]
		}
		return out, fits
	}
}

// Usable shrinks area by the outer gap on every side.
func Usable(area platform.Rect, outer int) platform.Rect {
	return area.Inset(outer)
}

// Tile partitions usable among n windows. With a split ratio in (0,1) and
// more than one window, the first window takes the primary column and the
// rest stack in the secondary column.
func Tile(usable platform.Rect, n, inner int, ratio float64) ([]platform.Rect, bool) {
	if n == 0 {
		return nil, true
	}
	if ratio <= 0 || ratio >= 1 || n == 1 {
		return Column(usable, n, inner)
	}

	primaryW := int(float64(usable.Width-inner) * ratio)
	if primaryW < 0 {
		primaryW = 0
	}
	primary := platform.Rect{X: usable.X, Y: usable.Y, Width: primaryW, Height: usable.Height}
	secondary := platform.Rect{
		X:      usable.X + primaryW + inner,
		Y:      usable.Y,
		Width:  usable.Width - primaryW - inner,
		Height: usable.Height,
	}
	fits := !primary.Empty()
	if secondary.Width < 0 {
		secondary.Width = 0
		fits = false
	}
	rest, ok := Column(secondary, n-1, inner)
	return append([]platform.Rect{primary}, rest...), fits && ok
}

// Column stacks n windows vertically inside usable. Each slot is
// (height - inner*n)/n tall and starts at i*(slot+inner); the last window
// stretches to the bottom edge and absorbs the rounding remainder.
func Column(usable platform.Rect, n, inner int) ([]platform.Rect, bool) {
	if n == 0 {
		return nil, true
	}
	rects := make([]platform.Rect, n)
	h := (usable.Height - inner*n) / n
	if h <= 0 || usable.Width <= 0 {
		for i := range rects {
			rects[i] = platform.Rect{X: usable.X, Y: usable.Y}
		}
		return rects, false
	}
	bottom := usable.Y + usable.Height
	for i := range rects {
		y := usable.Y + i*(h+inner)
		height := h
		if i == n-1 {
			height = bottom - y
		}
		rects[i] = platform.Rect{X: usable.X, Y: y, Width: usable.Width, Height: height}
	}
	return rects, true
}

// Cascade centres a window of the given size in area, offset by index steps,
// and clamps it so it stays inside area. Windows larger than area are pinned
// to its origin.
func Cascade(area platform.Rect, size platform.Size, index int) platform.Rect {
	x := (area.Width-size.Width)/2 + index*CascadeStep
	y := (area.Height-size.Height)/2 + index*CascadeStep
	x = clamp(x, 0, area.Width-size.Width)
	y = clamp(y, 0, area.Height-size.Height)
	return platform.Rect{X: area.X + x, Y: area.Y + y, Width: size.Width, Height: size.Height}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

func sizeOf(w workspace.WindowView, fallback platform.Size) platform.Size {
	if w.FloatSize.Width > 0 && w.FloatSize.Height > 0 {
		return w.FloatSize
	}
	return fallback
}

func containsWindow(ws []workspace.WindowView, id platform.WindowID) bool {
	for _, w := range ws {
		if w.ID == id {
			return true
		}
	}
	return false
}
