package shell

import (
	"fmt"
	"path"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/hotkeys"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/script"
	"github.com/1broseidon/tessel/internal/workspace"
)

// Execute runs a bound action. It satisfies hotkeys.Executor.
func (s *Shell) Execute(a hotkeys.Action) error {
	switch a.Kind {
	case config.ActionSpawn:
		if s.spawner == nil {
			return fmt.Errorf("%w: no spawner configured", platform.ErrSpawnFailure)
		}
		return s.spawner.Spawn(a.Command)
	case config.ActionClose:
		id, ok := s.manager.Focused()
		if !ok {
			return nil
		}
		return s.CloseWindow(id)
	case config.ActionFocus:
		return s.track(func() error { return s.manager.FocusStep(a.Direction) })
	case config.ActionSwitchWorkspace:
		return s.SwitchWorkspace(a.Workspace)
	case config.ActionMoveToWorkspace:
		id, ok := s.manager.Focused()
		if !ok {
			return nil
		}
		return s.MoveWindow(id, a.Workspace)
	case config.ActionCycleWorkspace:
		return s.track(func() error { return s.manager.CycleWorkspace(a.Direction) })
	case config.ActionToggleFloating:
		id, ok := s.manager.Focused()
		if !ok {
			return nil
		}
		w, _ := s.manager.Window(id)
		return s.manager.SetFloating(id, !w.Floating)
	case config.ActionSetLayout:
		return s.manager.SetLayout(0, a.Layout)
	case config.ActionCustom:
		s.invoke(a.Callback, "keybinding", 0, s.manager.Active())
		return nil
	}
	return fmt.Errorf("unsupported action %q", a.Kind)
}

// track runs a mutation and enqueues focus and workspace hooks for whatever
// changed.
func (s *Shell) track(mutate func() error) error {
	prevFocus, _ := s.manager.Focused()
	prevActive := s.manager.Active()
	err := mutate()
	if focus, ok := s.manager.Focused(); ok && focus != prevFocus {
		s.hook(config.HookWindowFocus, focus, s.manager.Active())
	}
	if active := s.manager.Active(); active != prevActive {
		s.hook(config.HookWorkspaceSwitch, 0, active)
	}
	s.metrics.Windows(s.manager.WindowCount())
	return err
}

func (s *Shell) hook(event string, window platform.WindowID, ws int) {
	name, ok := s.cfg.Hooks[event]
	if !ok {
		return
	}
	s.invoke(name, event, window, ws)
}

func (s *Shell) invoke(callback, event string, window platform.WindowID, ws int) {
	h := s.registry.Register(callback)
	dropped := s.queue.Dropped()
	inv := s.queue.Enqueue(script.Invocation{
		Handle:    h,
		Callback:  callback,
		Event:     event,
		Window:    uint32(window),
		Workspace: ws,
	})
	if s.queue.Dropped() > dropped {
		s.metrics.RecoverableError("callback_dropped")
		s.logger.Warn("callback queue full, dropped oldest invocation", "callback", callback, "event", event)
	}
	s.logger.Debug("callback queued", "id", inv.ID, "callback", callback, "event", event)
}

// SwitchWorkspace activates workspace id.
func (s *Shell) SwitchWorkspace(id int) error {
	return s.track(func() error { return s.manager.SwitchWorkspace(id) })
}

// MoveWindow moves a window to workspace target.
func (s *Shell) MoveWindow(id platform.WindowID, target int) error {
	return s.track(func() error { return s.manager.MoveWindow(id, target) })
}

// FocusWindow focuses a window, switching workspaces if needed.
func (s *Shell) FocusWindow(id platform.WindowID) error {
	return s.track(func() error { return s.manager.SetFocus(id) })
}

// SetLayout changes a workspace's layout (0 = active).
func (s *Shell) SetLayout(id int, mode config.LayoutMode) error {
	return s.manager.SetLayout(id, mode)
}

// CloseWindow asks the client to close. Without a Closer the window is
// unmapped directly.
func (s *Shell) CloseWindow(id platform.WindowID) error {
	if _, ok := s.manager.Window(id); !ok {
		return fmt.Errorf("%w: %d", workspace.ErrUnknownWindow, id)
	}
	if s.closer != nil {
		return s.closer.Close(id)
	}
	return s.UnmapWindow(id)
}

// MapWindow starts tracking a client window. Window rules are applied in
// declaration order; later matches override earlier ones.
func (s *Shell) MapWindow(info platform.WindowInfo) error {
	w := workspace.Window{ID: info.ID, AppID: info.AppID, Title: info.Title}
	if info.Size.Width > 0 && info.Size.Height > 0 {
		w.FloatSize = info.Size
	}
	hint := 0
	for _, rule := range s.cfg.WindowRules {
		if !ruleMatches(rule, info) {
			continue
		}
		if rule.Workspace != 0 {
			hint = rule.Workspace
		}
		if rule.Floating != nil {
			w.Floating = *rule.Floating
		}
		if rule.Sticky {
			w.Sticky = true
		}
		w.Classes = append(w.Classes, rule.Classes...)
	}

	err := s.track(func() error { return s.manager.AddWindow(w, hint) })
	if err != nil {
		s.recoverable(err)
		return err
	}
	ws := s.manager.Active()
	if v, ok := s.manager.Window(info.ID); ok {
		ws = v.Workspace
	}
	s.hook(config.HookWindowCreate, info.ID, ws)
	s.logger.Info("window mapped", "window", info.ID, "app_id", info.AppID, "workspace", ws)
	return nil
}

// UnmapWindow stops tracking a window.
func (s *Shell) UnmapWindow(id platform.WindowID) error {
	v, ok := s.manager.Window(id)
	if !ok {
		err := fmt.Errorf("%w: %d", workspace.ErrUnknownWindow, id)
		s.recoverable(err)
		return err
	}
	if err := s.track(func() error { return s.manager.RemoveWindow(id) }); err != nil {
		return err
	}
	s.hook(config.HookWindowClose, id, v.Workspace)
	s.logger.Info("window unmapped", "window", id, "workspace", v.Workspace)
	return nil
}

// SetTitle records a new window title.
func (s *Shell) SetTitle(id platform.WindowID, title string) error {
	return s.manager.SetTitle(id, title)
}

// SetFloatSize records an explicit floating size for a window.
func (s *Shell) SetFloatSize(id platform.WindowID, size platform.Size) error {
	if err := s.manager.SetFloatSize(id, size); err != nil {
		s.recoverable(err)
		return err
	}
	return nil
}

func ruleMatches(rule config.WindowRule, info platform.WindowInfo) bool {
	if rule.AppID == "" && rule.Title == "" {
		return false
	}
	if rule.AppID != "" && !globMatch(rule.AppID, info.AppID) {
		return false
	}
	if rule.Title != "" && !globMatch(rule.Title, info.Title) {
		return false
	}
	return true
}

func globMatch(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}
