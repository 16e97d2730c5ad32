package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/1broseidon/tessel/internal/config"
)

func TestSession_SaveLoadRestore(t *testing.T) {
	m, _ := newTestManager(t, 4)
	if err := m.SetLayout(2, config.LayoutMonocle); err != nil {
		t.Fatalf("SetLayout: %v", err)
	}
	if err := m.SwitchWorkspace(3); err != nil {
		t.Fatalf("SwitchWorkspace: %v", err)
	}

	path := filepath.Join(t.TempDir(), "session.json")
	if err := SaveSession(path, m.Session()); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}

	fresh, _ := newTestManager(t, 4)
	if n := fresh.Restore(s); n != 4 {
		t.Fatalf("expected 4 layouts applied, got %d", n)
	}
	if fresh.Active() != 3 {
		t.Fatalf("expected workspace 3 active, got %d", fresh.Active())
	}
	v, _ := fresh.View(2)
	if v.Layout != config.LayoutMonocle {
		t.Fatalf("expected monocle on workspace 2, got %s", v.Layout)
	}
}

func TestSession_RestoreSkipsStaleEntries(t *testing.T) {
	m, _ := newTestManager(t, 2)
	n := m.Restore(Session{
		Active: 7,
		Workspaces: []SessionLayout{
			{ID: 1, Name: "renamed", Layout: config.LayoutFloating},
			{ID: 2, Name: "2", Layout: "spiral"},
			{ID: 9, Name: "9", Layout: config.LayoutMonocle},
		},
	})
	if n != 0 {
		t.Fatalf("expected nothing applied, got %d", n)
	}
	if m.Active() != 1 {
		t.Fatalf("expected active workspace unchanged, got %d", m.Active())
	}
	v, _ := m.View(1)
	if v.Layout != config.LayoutTiling {
		t.Fatalf("expected tiling kept, got %s", v.Layout)
	}
}

func TestLoadSession_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadSession(filepath.Join(dir, "absent.json"))
	if err != nil || s.Active != 0 || len(s.Workspaces) != 0 {
		t.Fatalf("expected empty session, got %+v, %v", s, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSession(bad); err == nil {
		t.Fatal("expected parse error")
	}
}
