package workspace

import (
	"slices"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
)

// WindowView is a read-only copy of a window record.
type WindowView struct {
	ID        platform.WindowID `json:"id"`
	AppID     string            `json:"app_id"`
	Title     string            `json:"title"`
	Floating  bool              `json:"floating"`
	Sticky    bool              `json:"sticky"`
	Classes   []string          `json:"classes,omitempty"`
	FloatSize platform.Size     `json:"float_size"`
	Workspace int               `json:"workspace"`
	Focused   bool              `json:"focused"`
}

// View is a read-only copy of a workspace, taken once per frame.
type View struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Layout      config.LayoutMode `json:"layout"`
	Gaps        config.Gaps       `json:"gaps"`
	SplitRatio  float64           `json:"split_ratio"`
	Active      bool              `json:"active"`
	Windows     []WindowView      `json:"windows"`
	LastFocused platform.WindowID `json:"last_focused,omitempty"`
}

// FocusTarget is the focused window if it lives here, else the last-focused one.
func (v View) FocusTarget() (platform.WindowID, bool) {
	for _, w := range v.Windows {
		if w.Focused {
			return w.ID, true
		}
	}
	if v.LastFocused != 0 {
		return v.LastFocused, true
	}
	return 0, false
}

// Title of the focused window in this view, or "".
func (v View) FocusedTitle() string {
	for _, w := range v.Windows {
		if w.Focused {
			return w.Title
		}
	}
	return ""
}

func (m *Manager) viewOf(w *Window) WindowView {
	return WindowView{
		ID:        w.ID,
		AppID:     w.AppID,
		Title:     w.Title,
		Floating:  w.Floating,
		Sticky:    w.Sticky,
		Classes:   slices.Clone(w.Classes),
		FloatSize: w.FloatSize,
		Workspace: w.workspace,
		Focused:   w.focused,
	}
}

// View returns a snapshot of workspace id.
func (m *Manager) View(id int) (View, error) {
	ws, err := m.workspace(id)
	if err != nil {
		return View{}, err
	}
	v := View{
		ID:          ws.ID,
		Name:        ws.Name,
		Layout:      ws.Layout,
		Gaps:        ws.Gaps,
		SplitRatio:  ws.SplitRatio,
		Active:      ws.ID == m.active,
		Windows:     make([]WindowView, 0, len(ws.windows)),
		LastFocused: ws.lastFocused,
	}
	for _, wid := range ws.windows {
		v.Windows = append(v.Windows, m.viewOf(m.windows[wid]))
	}
	return v, nil
}

// Views returns snapshots of every workspace in id order.
func (m *Manager) Views() []View {
	out := make([]View, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		v, _ := m.View(ws.ID)
		out = append(out, v)
	}
	return out
}

// StickyElsewhere returns the ids of sticky windows that live on inactive
// workspaces, grouped by workspace id. They stay visible after a switch.
func (m *Manager) StickyElsewhere() map[int][]platform.WindowID {
	out := make(map[int][]platform.WindowID)
	for _, ws := range m.workspaces {
		if ws.ID == m.active {
			continue
		}
		for _, id := range ws.windows {
			if m.windows[id].Sticky {
				out[ws.ID] = append(out[ws.ID], id)
			}
		}
	}
	return out
}
