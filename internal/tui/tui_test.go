package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/ipc"
	"github.com/1broseidon/tessel/internal/script"
	"github.com/1broseidon/tessel/internal/workspace"
)

type fakeInspector struct {
	switched []int
	layouts  []string
	keys     []string
	reloads  int
	down     bool
}

func (f *fakeInspector) GetStatus() (*ipc.StatusData, error) {
	if f.down {
		return nil, errors.New("failed to connect to compositor")
	}
	return &ipc.StatusData{ActiveWorkspace: 1, Workspaces: 2, Windows: 2, OutputWidth: 1000, OutputHeight: 1000}, nil
}

func (f *fakeInspector) ListWorkspaces() (*ipc.WorkspacesData, error) {
	return &ipc.WorkspacesData{
		Active: 1,
		Workspaces: []workspace.View{
			{ID: 1, Name: "1", Layout: config.LayoutTiling, Active: true, Windows: []workspace.WindowView{
				{ID: 1, AppID: "term", Focused: true},
				{ID: 2, AppID: "web"},
			}},
			{ID: 2, Name: "2", Layout: config.LayoutMonocle},
		},
		Geometry: map[uint32]ipc.RectData{
			1: {X: 10, Y: 10, Width: 980, Height: 480},
			2: {X: 10, Y: 500, Width: 980, Height: 490},
		},
	}, nil
}

func (f *fakeInspector) ListBindings() (*ipc.BindingsData, error) {
	return &ipc.BindingsData{Bindings: []ipc.BindingInfo{{Combo: "Super+Return", Action: "spawn"}}}, nil
}

func (f *fakeInspector) SwitchWorkspace(ws int) error {
	f.switched = append(f.switched, ws)
	return nil
}

func (f *fakeInspector) SetLayout(ws int, layout string) error {
	f.layouts = append(f.layouts, layout)
	return nil
}

func (f *fakeInspector) DispatchKey(keys string) (string, error) {
	f.keys = append(f.keys, keys)
	return "consumed", nil
}

func (f *fakeInspector) ResolveStyle(kind, state string, classes []string) (map[string]string, error) {
	return map[string]string{"border-width": "3px"}, nil
}

func (f *fakeInspector) DrainCallbacks() (*ipc.CallbacksData, error) {
	return &ipc.CallbacksData{Invocations: []script.Invocation{{ID: "a", Callback: "on_create", Event: "window-create"}}}, nil
}

func (f *fakeInspector) Reload() error {
	f.reloads++
	return nil
}

func loaded(t *testing.T, f *fakeInspector) model {
	t.Helper()
	m := newModel(f)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(fetch(f)())
	return next.(model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SnapshotPopulatesTabs(t *testing.T) {
	m := loaded(t, &fakeInspector{})

	if m.status == nil || m.status.ActiveWorkspace != 1 {
		t.Fatalf("expected status to be set, got %+v", m.status)
	}
	if got := len(m.workspacesTab.list.Items()); got != 2 {
		t.Fatalf("expected 2 workspace items, got %d", got)
	}
	if got := len(m.bindingsTab.list.Items()); got != 1 {
		t.Fatalf("expected 1 binding item, got %d", got)
	}
	view := m.View()
	if !strings.Contains(view, "connected") {
		t.Fatalf("expected connected status bar, got:\n%s", view)
	}
	if !strings.Contains(view, "term") {
		t.Fatalf("expected window app id in detail pane, got:\n%s", view)
	}
}

func TestModel_SwitchAndCycleLayout(t *testing.T) {
	f := &fakeInspector{}
	m := loaded(t, f)

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected switch command")
	}
	msg := cmd()
	if sm, ok := msg.(statusMsg); !ok || sm.err != nil || !sm.refresh {
		t.Fatalf("unexpected message %#v", msg)
	}
	if len(f.switched) != 1 || f.switched[0] != 1 {
		t.Fatalf("expected switch to workspace 1, got %v", f.switched)
	}

	_, cmd = m.Update(keyMsg("l"))
	cmd()
	if len(f.layouts) != 1 || f.layouts[0] != "floating" {
		t.Fatalf("expected tiling to cycle to floating, got %v", f.layouts)
	}
}

func TestModel_TabNavigationAndReload(t *testing.T) {
	f := &fakeInspector{}
	m := loaded(t, f)

	next, _ := m.Update(keyMsg("tab"))
	if next.(model).activeTab != TabBindings {
		t.Fatalf("expected bindings tab, got %v", next.(model).activeTab)
	}
	next, _ = next.Update(keyMsg("4"))
	if next.(model).activeTab != TabCallbacks {
		t.Fatalf("expected callbacks tab, got %v", next.(model).activeTab)
	}

	_, cmd := next.Update(keyMsg("r"))
	cmd()
	if f.reloads != 1 {
		t.Fatalf("expected one reload, got %d", f.reloads)
	}
}

func TestModel_RunBindingFromList(t *testing.T) {
	f := &fakeInspector{}
	m := loaded(t, f)
	m.activeTab = TabBindings

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected dispatch command")
	}
	msg := cmd().(statusMsg)
	if msg.text != "Super+Return: consumed" {
		t.Fatalf("unexpected status text %q", msg.text)
	}
}

func TestModel_ResizeReachesOpenForm(t *testing.T) {
	f := &fakeInspector{}
	m := loaded(t, f)
	m.activeTab = TabStyles

	next, _ := m.Update(keyMsg("e"))
	if !next.(model).capturing() {
		t.Fatal("expected style form to be open")
	}
	next, _ = next.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	got := next.(model)
	if !got.capturing() || got.stylesTab.form == nil {
		t.Fatal("expected style form to stay open after resize")
	}
	if got.stylesTab.width != 90 || got.stylesTab.height != 26 {
		t.Fatalf("expected styles tab sized 90x26, got %dx%d", got.stylesTab.width, got.stylesTab.height)
	}
	if got.bindingsTab.width != 90 {
		t.Fatalf("expected hidden tabs resized too, got width %d", got.bindingsTab.width)
	}
}

func TestModel_Disconnected(t *testing.T) {
	m := loaded(t, &fakeInspector{down: true})
	if m.lastErr == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(m.View(), "not running") {
		t.Fatal("expected not running status")
	}
}

func TestCallbacksTab_Drain(t *testing.T) {
	f := &fakeInspector{}
	ct := NewCallbacksTab(f)
	ct, _ = ct.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	_, cmd := ct.Update(keyMsg("d"))
	ct, _ = ct.Update(cmd())
	if len(ct.history) != 1 {
		t.Fatalf("expected one invocation, got %d", len(ct.history))
	}
	if !strings.Contains(ct.View(), "on_create") {
		t.Fatal("expected drained callback in view")
	}
}

func TestStylesTab_Result(t *testing.T) {
	st := NewStylesTab(&fakeInspector{})
	st, _ = st.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	q := styleQuery{kind: "window", state: "focus", classes: "floating, term"}
	st, _ = st.Update(resolve(st.client, q)())

	if q.String() != "window.floating.term:focus" {
		t.Fatalf("unexpected query string %q", q.String())
	}
	if !strings.Contains(st.View(), "3px") {
		t.Fatalf("expected resolved value in view, got:\n%s", st.View())
	}
}

func TestRenderASCIIPreview(t *testing.T) {
	tiles := []tile{
		{rect: ipc.RectData{X: 0, Y: 0, Width: 500, Height: 1000}, label: "a"},
		{rect: ipc.RectData{X: 500, Y: 0, Width: 500, Height: 1000}, label: "b"},
	}
	lines := renderASCIIPreview(tiles, 1000, 1000, 20, 10)
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "╔") || !strings.HasPrefix(lines[9], "╚") {
		t.Fatalf("expected outer border, got %q / %q", lines[0], lines[9])
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "a") || !strings.Contains(joined, "b") {
		t.Fatalf("expected tile labels, got:\n%s", joined)
	}

	empty := renderASCIIPreview(nil, 0, 0, 8, 4)
	if len(empty) != 4 || strings.TrimSpace(empty[0]) != "" {
		t.Fatalf("expected blank canvas, got %q", empty)
	}
}

func TestNextLayout(t *testing.T) {
	if nextLayout(config.LayoutTiling) != config.LayoutFloating ||
		nextLayout(config.LayoutFloating) != config.LayoutMonocle ||
		nextLayout(config.LayoutMonocle) != config.LayoutTiling {
		t.Fatal("unexpected layout cycle")
	}
}
