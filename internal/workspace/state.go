package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/1broseidon/tessel/internal/config"
)

// Session is the part of workspace state that survives a compositor restart:
// the active workspace and layouts changed at runtime. Windows are not
// restored; clients map themselves again when they reconnect.
type Session struct {
	Active     int             `json:"active"`
	Workspaces []SessionLayout `json:"workspaces,omitempty"`
	SavedAt    time.Time       `json:"saved_at"`
}

// SessionLayout records one workspace's layout. Name guards against applying
// a layout to a different workspace after the config was edited.
type SessionLayout struct {
	ID     int               `json:"id"`
	Name   string            `json:"name"`
	Layout config.LayoutMode `json:"layout"`
}

// Session captures the current active workspace and every workspace layout.
func (m *Manager) Session() Session {
	s := Session{Active: m.active, SavedAt: time.Now()}
	for _, ws := range m.workspaces {
		s.Workspaces = append(s.Workspaces, SessionLayout{ID: ws.ID, Name: ws.Name, Layout: ws.Layout})
	}
	return s
}

// Restore applies a saved session. Entries whose id no longer exists or whose
// name changed are skipped; the number of entries applied is returned.
func (m *Manager) Restore(s Session) int {
	applied := 0
	for _, l := range s.Workspaces {
		ws, err := m.workspace(l.ID)
		if err != nil || ws.Name != l.Name {
			m.logger.Debug("skipping stale session entry", "workspace", l.ID, "name", l.Name)
			continue
		}
		if _, err := config.ParseLayoutMode(string(l.Layout)); err != nil {
			m.logger.Warn("ignoring session layout", "workspace", l.ID, "error", err)
			continue
		}
		if err := m.SetLayout(l.ID, l.Layout); err == nil {
			applied++
		}
	}
	if s.Active != 0 && s.Active != m.active {
		if err := m.SwitchWorkspace(s.Active); err != nil {
			m.logger.Warn("ignoring session active workspace", "workspace", s.Active, "error", err)
		}
	}
	return applied
}

// LoadSession reads a session file. A missing file yields an empty session.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	sort.Slice(s.Workspaces, func(i, j int) bool { return s.Workspaces[i].ID < s.Workspaces[j].ID })
	return s, nil
}

// SaveSession writes s to path.
func SaveSession(path string, s Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
