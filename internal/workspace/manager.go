// Package workspace owns the window and workspace state machine: membership,
// stacking order, the active workspace and process-wide focus.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
)

var (
	ErrUnknownWorkspace = errors.New("unknown workspace")
	ErrUnknownWindow    = errors.New("unknown window")
	ErrWindowExists     = errors.New("window already tracked")
	ErrInvalidSize      = errors.New("invalid window size")
)

// Invalidator is told which workspaces need their geometry recomputed.
type Invalidator interface {
	Invalidate(workspaceID int)
}

// Window is the canonical record for a mapped client window.
type Window struct {
	ID        platform.WindowID
	AppID     string
	Title     string
	Floating  bool
	Sticky    bool
	Classes   []string
	FloatSize platform.Size // zero until the window gets an explicit floating size

	workspace int
	focused   bool
	focusSeq  uint64 // 0 = never focused
}

// Workspace is one declared workspace.
type Workspace struct {
	ID         int
	Name       string
	Layout     config.LayoutMode
	Gaps       config.Gaps
	SplitRatio float64

	windows     []platform.WindowID
	lastFocused platform.WindowID // 0 = none
}

// Manager owns every Window and Workspace. It is not safe for concurrent use;
// the shell event loop is its only caller.
type Manager struct {
	workspaces []*Workspace // index = id-1
	windows    map[platform.WindowID]*Window
	active     int
	focused    *Window
	seq        uint64
	inv        Invalidator
	logger     *slog.Logger
}

// NewManager creates workspaces from their declarations. Ids must be 1..N.
// Workspace 1 starts active.
func NewManager(decls []config.WorkspaceConfig, inv Invalidator, logger *slog.Logger) (*Manager, error) {
	if len(decls) == 0 {
		return nil, fmt.Errorf("at least one workspace is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		workspaces: make([]*Workspace, len(decls)),
		windows:    make(map[platform.WindowID]*Window),
		active:     1,
		inv:        inv,
		logger:     logger,
	}
	for _, d := range decls {
		if d.ID < 1 || d.ID > len(decls) || m.workspaces[d.ID-1] != nil {
			return nil, fmt.Errorf("workspace ids must be unique and contiguous from 1, got %d", d.ID)
		}
		m.workspaces[d.ID-1] = &Workspace{
			ID:         d.ID,
			Name:       d.Name,
			Layout:     d.Layout,
			Gaps:       d.Gaps,
			SplitRatio: d.SplitRatio,
		}
	}
	return m, nil
}

// Reconfigure applies new names, layouts and gaps. The id set must not change.
func (m *Manager) Reconfigure(decls []config.WorkspaceConfig) error {
	if len(decls) != len(m.workspaces) {
		return fmt.Errorf("workspace count changed from %d to %d; restart to apply", len(m.workspaces), len(decls))
	}
	for _, d := range decls {
		if _, err := m.workspace(d.ID); err != nil {
			return err
		}
	}
	for _, d := range decls {
		ws := m.workspaces[d.ID-1]
		ws.Name = d.Name
		ws.Layout = d.Layout
		ws.Gaps = d.Gaps
		ws.SplitRatio = d.SplitRatio
		m.invalidate(ws.ID)
	}
	return nil
}

func (m *Manager) workspace(id int) (*Workspace, error) {
	if id < 1 || id > len(m.workspaces) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWorkspace, id)
	}
	return m.workspaces[id-1], nil
}

func (m *Manager) window(id platform.WindowID) (*Window, error) {
	w, ok := m.windows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	return w, nil
}

func (m *Manager) invalidate(ids ...int) {
	if m.inv == nil {
		return
	}
	for _, id := range ids {
		m.inv.Invalidate(id)
	}
}

// AddWindow appends w to workspace hint (0 = active). If the workspace was
// empty the window becomes its focus target, and the process focus when the
// workspace is active.
func (m *Manager) AddWindow(w Window, hint int) error {
	if _, exists := m.windows[w.ID]; exists {
		return fmt.Errorf("%w: %d", ErrWindowExists, w.ID)
	}
	target := hint
	if target == 0 {
		target = m.active
	}
	ws, err := m.workspace(target)
	if err != nil {
		return err
	}

	rec := w
	rec.Classes = slices.Clone(w.Classes)
	rec.workspace = ws.ID
	rec.focused = false
	rec.focusSeq = 0
	m.windows[rec.ID] = &rec
	ws.windows = append(ws.windows, rec.ID)

	if len(ws.windows) == 1 {
		ws.lastFocused = rec.ID
		if ws.ID == m.active {
			m.focus(&rec)
		}
	}
	m.invalidate(ws.ID)
	m.logger.Debug("window added", "window", rec.ID, "app_id", rec.AppID, "workspace", ws.ID)
	return nil
}

// RemoveWindow forgets a window. Focus moves to the most recently focused
// remaining window of its workspace, else the most recently added one.
func (m *Manager) RemoveWindow(id platform.WindowID) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	ws := m.workspaces[w.workspace-1]
	m.detach(w, ws)
	delete(m.windows, id)
	m.invalidate(ws.ID)
	m.logger.Debug("window removed", "window", id, "workspace", ws.ID)
	return nil
}

// detach removes w from ws and repairs focus and the last-focused reference.
func (m *Manager) detach(w *Window, ws *Workspace) {
	ws.windows = slices.DeleteFunc(ws.windows, func(id platform.WindowID) bool { return id == w.ID })
	wasFocused := m.focused == w
	if wasFocused {
		w.focused = false
		m.focused = nil
	}
	if ws.lastFocused != w.ID {
		return
	}
	ws.lastFocused = 0
	next := m.pickFocus(ws)
	if next == nil {
		return
	}
	if wasFocused && ws.ID == m.active {
		m.focus(next)
	} else {
		ws.lastFocused = next.ID
	}
}

// pickFocus returns the most recently focused window of ws, else the most
// recently added, else nil.
func (m *Manager) pickFocus(ws *Workspace) *Window {
	var best *Window
	for _, id := range ws.windows {
		w := m.windows[id]
		if w.focusSeq > 0 && (best == nil || w.focusSeq > best.focusSeq) {
			best = w
		}
	}
	if best != nil {
		return best
	}
	if n := len(ws.windows); n > 0 {
		return m.windows[ws.windows[n-1]]
	}
	return nil
}

func (m *Manager) focus(w *Window) {
	if m.focused == w {
		return
	}
	if m.focused != nil {
		m.focused.focused = false
		m.invalidate(m.focused.workspace)
	}
	m.seq++
	w.focused = true
	w.focusSeq = m.seq
	m.focused = w
	m.workspaces[w.workspace-1].lastFocused = w.ID
	m.invalidate(w.workspace)
}

// SwitchWorkspace activates id and restores its last-focused window.
func (m *Manager) SwitchWorkspace(id int) error {
	ws, err := m.workspace(id)
	if err != nil {
		return err
	}
	if id == m.active {
		return nil
	}
	prev := m.active
	m.activate(ws)
	m.logger.Debug("workspace switched", "from", prev, "to", id)
	return nil
}

func (m *Manager) activate(ws *Workspace) {
	prev := m.active
	if m.focused != nil {
		m.focused.focused = false
		m.focused = nil
	}
	m.active = ws.ID
	var target *Window
	if ws.lastFocused != 0 {
		target = m.windows[ws.lastFocused]
	}
	if target == nil {
		target = m.pickFocus(ws)
	}
	if target != nil {
		m.focus(target)
	}
	m.invalidate(prev, ws.ID)
}

// CycleWorkspace moves the active workspace by dir (+1 or -1), wrapping around.
func (m *Manager) CycleWorkspace(dir int) error {
	n := len(m.workspaces)
	next := ((m.active-1+dir)%n+n)%n + 1
	return m.SwitchWorkspace(next)
}

// MoveWindow moves a window to the end of target's sequence.
func (m *Manager) MoveWindow(id platform.WindowID, target int) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	dst, err := m.workspace(target)
	if err != nil {
		return err
	}
	if w.workspace == dst.ID {
		return nil
	}
	src := m.workspaces[w.workspace-1]

	m.detach(w, src)
	w.workspace = dst.ID
	dst.windows = append(dst.windows, w.ID)
	if len(dst.windows) == 1 {
		dst.lastFocused = w.ID
		if dst.ID == m.active {
			m.focus(w)
		}
	}
	m.invalidate(src.ID, dst.ID)
	m.logger.Debug("window moved", "window", id, "from", src.ID, "to", dst.ID)
	return nil
}

// SetFocus focuses a window, activating its workspace first if needed.
func (m *Manager) SetFocus(id platform.WindowID) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	if w.workspace != m.active {
		m.activate(m.workspaces[w.workspace-1])
	}
	m.focus(w)
	return nil
}

// FocusStep moves focus dir (+1 next, -1 previous) through the active
// workspace's stacking order, wrapping around.
func (m *Manager) FocusStep(dir int) error {
	ws := m.workspaces[m.active-1]
	n := len(ws.windows)
	if n == 0 {
		return nil
	}
	idx := 0
	if m.focused != nil {
		idx = slices.Index(ws.windows, m.focused.ID)
		idx = ((idx+dir)%n + n) % n
	}
	m.focus(m.windows[ws.windows[idx]])
	return nil
}

// SetTitle updates a window title.
func (m *Manager) SetTitle(id platform.WindowID, title string) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	w.Title = title
	return nil
}

// SetFloating changes whether a window takes part in tiling.
func (m *Manager) SetFloating(id platform.WindowID, floating bool) error {
	w, err := m.window(id)
	if err != nil {
		return err
	}
	if w.Floating != floating {
		w.Floating = floating
		m.invalidate(w.workspace)
	}
	return nil
}

// SetFloatSize records an explicit floating size. The size is kept across
// layout changes and workspace switches until the next call.
func (m *Manager) SetFloatSize(id platform.WindowID, size platform.Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	w, err := m.window(id)
	if err != nil {
		return err
	}
	if w.FloatSize != size {
		w.FloatSize = size
		m.invalidate(w.workspace)
	}
	return nil
}

// SetLayout changes a workspace's layout mode (0 = active workspace).
func (m *Manager) SetLayout(id int, mode config.LayoutMode) error {
	if id == 0 {
		id = m.active
	}
	ws, err := m.workspace(id)
	if err != nil {
		return err
	}
	if ws.Layout != mode {
		ws.Layout = mode
		m.invalidate(ws.ID)
	}
	return nil
}

// Active returns the active workspace id.
func (m *Manager) Active() int {
	return m.active
}

// Count returns the number of declared workspaces.
func (m *Manager) Count() int {
	return len(m.workspaces)
}

// Focused returns the focused window id, if any.
func (m *Manager) Focused() (platform.WindowID, bool) {
	if m.focused == nil {
		return 0, false
	}
	return m.focused.ID, true
}

// Window returns a copy of a window record.
func (m *Manager) Window(id platform.WindowID) (WindowView, bool) {
	w, ok := m.windows[id]
	if !ok {
		return WindowView{}, false
	}
	return m.viewOf(w), true
}

// WindowCount returns the number of tracked windows.
func (m *Manager) WindowCount() int {
	return len(m.windows)
}
