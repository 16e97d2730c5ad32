package shell

import (
	"fmt"
	"sort"
	"time"

	"github.com/1broseidon/tessel/internal/bar"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
	"github.com/1broseidon/tessel/internal/workspace"
)

// Fallbacks when no rule sets a window or desktop property.
var (
	DefaultDesktop     = style.Color{R: 0.07, G: 0.07, B: 0.11, A: 1}
	DefaultBorder      = style.Color{R: 0.27, G: 0.28, B: 0.35, A: 1}
	DefaultFocusBorder = style.Color{R: 0.54, G: 0.71, B: 0.98, A: 1}
)

const DefaultBorderWidth = 2

// Area is the output region windows are laid out in, after the bar's strip.
func (s *Shell) Area() platform.Rect {
	area := platform.Rect{Width: s.cfg.Output.Width, Height: s.cfg.Output.Height}
	if s.bar != nil {
		area = s.bar.Reserve(area)
	}
	return area
}

// Geometries returns the rectangles of the active workspace's windows.
func (s *Shell) Geometries() map[platform.WindowID]platform.Rect {
	v, _ := s.manager.View(s.manager.Active())
	return s.engine.Geometries(v, s.Area())
}

// Frame builds the frame for now. It only reads state and refreshes caches:
// geometry, resolved styles and the bar canvas.
func (s *Shell) Frame(now time.Time) (platform.Frame, error) {
	frame := platform.Frame{
		Output:     outputSize(s.cfg),
		Background: s.styles.Resolve("desktop", "", nil).ColorOr("background-color", DefaultDesktop),
	}
	area := s.Area()

	active, _ := s.manager.View(s.manager.Active())
	frame.Windows = s.appendWindows(frame.Windows, active, area)

	sticky := s.manager.StickyElsewhere()
	ids := make([]int, 0, len(sticky))
	for id := range sticky {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, wsID := range ids {
		v, err := s.manager.View(wsID)
		if err != nil {
			continue
		}
		keep := make(map[platform.WindowID]bool, len(sticky[wsID]))
		for _, wid := range sticky[wsID] {
			keep[wid] = true
		}
		geoms := s.engine.Geometries(v, area)
		for _, w := range v.Windows {
			if keep[w.ID] {
				frame.Windows = s.appendWindow(frame.Windows, w, geoms[w.ID])
			}
		}
	}

	if s.bar != nil {
		title := ""
		if id, ok := s.manager.Focused(); ok {
			if w, ok := s.manager.Window(id); ok {
				title = w.Title
			}
		}
		if s.bar.Update(bar.StateFromViews(s.manager.Views()), title, now) {
			s.metrics.BarRasterized()
		}
		draw, err := s.bar.Present(s.renderer)
		if err != nil {
			return frame, fmt.Errorf("present bar: %w", err)
		}
		frame.Bars = append(frame.Bars, draw)
	}
	return frame, nil
}

// appendWindows adds the visible windows of v: tiled ones in stacking order,
// then floating ones above them.
func (s *Shell) appendWindows(out []platform.WindowDraw, v workspace.View, area platform.Rect) []platform.WindowDraw {
	geoms := s.engine.Geometries(v, area)
	for _, floating := range []bool{false, true} {
		for _, w := range v.Windows {
			if w.Floating == floating {
				out = s.appendWindow(out, w, geoms[w.ID])
			}
		}
	}
	return out
}

func (s *Shell) appendWindow(out []platform.WindowDraw, w workspace.WindowView, r platform.Rect) []platform.WindowDraw {
	if r.Empty() {
		return out
	}
	rs := s.WindowStyle(w)
	def := DefaultBorder
	if w.Focused {
		def = DefaultFocusBorder
	}
	return append(out, platform.WindowDraw{
		ID:          w.ID,
		Rect:        r,
		BorderColor: rs.ColorOr("border-color", def),
		BorderWidth: int(rs.LengthOr("border-width", DefaultBorderWidth)),
		Focused:     w.Focused,
		AppID:       w.AppID,
	})
}

// WindowStyle resolves the style of one window. Its class set is the rule
// classes plus "floating" or "tiling" and "app-id=<id>" so attribute
// selectors like window[app-id=firefox] match.
func (s *Shell) WindowStyle(w workspace.WindowView) style.Resolved {
	classes := make([]string, 0, len(w.Classes)+2)
	classes = append(classes, w.Classes...)
	if w.Floating {
		classes = append(classes, "floating")
	} else {
		classes = append(classes, "tiling")
	}
	if w.AppID != "" {
		classes = append(classes, "app-id="+w.AppID)
	}
	state := ""
	if w.Focused {
		state = "focus"
	}
	return s.styles.Resolve("window", state, classes)
}

// Tick builds and submits one frame. Errors are logged and counted; the
// caller keeps ticking.
func (s *Shell) Tick(now time.Time) error {
	frame, err := s.Frame(now)
	if err != nil {
		s.metrics.RecoverableError("frame")
		return err
	}
	if err := s.renderer.Submit(frame); err != nil {
		s.metrics.RecoverableError("submit")
		return fmt.Errorf("submit frame: %w", err)
	}
	s.frames++
	s.metrics.FrameSubmitted()
	return nil
}
