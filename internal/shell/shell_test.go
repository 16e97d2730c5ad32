package shell

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/hotkeys"
	"github.com/1broseidon/tessel/internal/output"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
	"github.com/1broseidon/tessel/internal/workspace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output = config.Output{Width: 1000, Height: 1000}
	cfg.Bar.Enabled = false
	cfg.Layout.Gaps = config.Gaps{Outer: 10, Inner: 10}
	cfg.Workspaces = config.DefaultWorkspaces(9, cfg.Layout)
	return cfg
}

func sheet(t *testing.T, css string) *config.StyleSet {
	t.Helper()
	s, err := style.ParseSheet(css, 0)
	require.NoError(t, err)
	return &config.StyleSet{Rules: s.Rules, Variables: s.Variables}
}

type fakeSpawner struct {
	commands []string
	err      error
}

func (f *fakeSpawner) Spawn(command string) error {
	f.commands = append(f.commands, command)
	return f.err
}

type countingRecorder struct {
	mu          sync.Mutex
	frames      int
	bars        int
	keys        map[string]int
	recoverable map[string]int
	windows     int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{keys: map[string]int{}, recoverable: map[string]int{}}
}

func (r *countingRecorder) FrameSubmitted() { r.mu.Lock(); r.frames++; r.mu.Unlock() }
func (r *countingRecorder) BarRasterized()  { r.mu.Lock(); r.bars++; r.mu.Unlock() }
func (r *countingRecorder) KeyDispatched(result string) {
	r.mu.Lock()
	r.keys[result]++
	r.mu.Unlock()
}
func (r *countingRecorder) RecoverableError(kind string) {
	r.mu.Lock()
	r.recoverable[kind]++
	r.mu.Unlock()
}
func (r *countingRecorder) Windows(n int) { r.mu.Lock(); r.windows = n; r.mu.Unlock() }

func newShell(t *testing.T, cfg *config.Config, styles *config.StyleSet) (*Shell, *output.Software, *countingRecorder, *fakeSpawner) {
	t.Helper()
	renderer := output.NewSoftware(quietLogger())
	rec := newCountingRecorder()
	spawner := &fakeSpawner{}
	s, err := New(cfg, styles, Options{
		Renderer: renderer,
		Spawner:  spawner,
		Recorder: rec,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return s, renderer, rec, spawner
}

func key(t *testing.T, name string, mods hotkeys.Mod) hotkeys.KeyEvent {
	t.Helper()
	k, ok := hotkeys.LookupKey(name)
	require.True(t, ok, "key %q", name)
	return hotkeys.KeyEvent{Key: k, Mods: mods, Pressed: true}
}

func windowIDs(frame platform.Frame) []platform.WindowID {
	ids := make([]platform.WindowID, 0, len(frame.Windows))
	for _, w := range frame.Windows {
		ids = append(ids, w.ID)
	}
	return ids
}

func TestShell_TwoWindowsThenSwitch(t *testing.T) {
	s, renderer, rec, _ := newShell(t, testConfig(), nil)

	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1, AppID: "a"}))
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 2, AppID: "b"}))

	geoms := s.Geometries()
	assert.Equal(t, platform.Rect{X: 10, Y: 10, Width: 980, Height: 480}, geoms[1])
	assert.Equal(t, platform.Rect{X: 10, Y: 500, Width: 980, Height: 490}, geoms[2])

	require.NoError(t, s.Tick(time.Unix(0, 0)))
	assert.Equal(t, []platform.WindowID{1, 2}, windowIDs(renderer.LastFrame()))

	res := s.Dispatch(key(t, "2", hotkeys.ModSuper))
	assert.Equal(t, hotkeys.Consumed, res)
	assert.Equal(t, 2, s.Manager().Active())

	require.NoError(t, s.Tick(time.Unix(1, 0)))
	assert.Empty(t, renderer.LastFrame().Windows)

	assert.Equal(t, 2, rec.frames)
	assert.Equal(t, 1, rec.keys["consumed"])
	assert.Equal(t, uint64(2), s.Frames())
}

func TestShell_FrameStylesFocusedBorder(t *testing.T) {
	styles := sheet(t, `
desktop { background-color: #000000; }
window { border-color: #ff0000; border-width: 3px; }
window:focus { border-color: #00ff00; }
window[app-id=term] { border-width: 5px; }
`)
	s, renderer, _, _ := newShell(t, testConfig(), styles)
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1, AppID: "term"}))
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 2, AppID: "editor"}))
	require.NoError(t, s.FocusWindow(1))

	frame, err := s.Frame(time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, frame.Windows, 2)

	assert.Equal(t, style.Color{A: 1}, frame.Background)
	assert.True(t, frame.Windows[0].Focused)
	assert.Equal(t, style.Color{G: 1, A: 1}, frame.Windows[0].BorderColor)
	assert.Equal(t, 5, frame.Windows[0].BorderWidth)
	assert.Equal(t, style.Color{R: 1, A: 1}, frame.Windows[1].BorderColor)
	assert.Equal(t, 3, frame.Windows[1].BorderWidth)

	require.NoError(t, renderer.Submit(frame))
	assert.Equal(t, style.Color{G: 1, A: 1}, renderer.Pixel(10, 10))
}

func TestShell_FloatingDrawnAboveTiled(t *testing.T) {
	cfg := testConfig()
	yes := true
	cfg.WindowRules = []config.WindowRule{{AppID: "pavu*", Floating: &yes}}
	s, _, _, _ := newShell(t, cfg, nil)

	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1, AppID: "pavucontrol"}))
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 2, AppID: "term"}))

	frame, err := s.Frame(time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []platform.WindowID{2, 1}, windowIDs(frame))
	assert.Equal(t, platform.Rect{X: 10, Y: 10, Width: 980, Height: 980}, frame.Windows[0].Rect)
}

func TestShell_FloatSizeSurvivesRelayoutAndSwitch(t *testing.T) {
	cfg := testConfig()
	yes := true
	cfg.WindowRules = []config.WindowRule{{AppID: "pavu*", Floating: &yes}}
	s, _, rec, _ := newShell(t, cfg, nil)

	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1, AppID: "pavucontrol", Size: platform.Size{Width: 400, Height: 300}}))
	assert.Equal(t, platform.Rect{X: 300, Y: 350, Width: 400, Height: 300}, s.Geometries()[1])

	require.NoError(t, s.SetFloatSize(1, platform.Size{Width: 600, Height: 400}))
	want := platform.Rect{X: 200, Y: 300, Width: 600, Height: 400}
	assert.Equal(t, want, s.Geometries()[1])

	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 2, AppID: "term"}))
	assert.Equal(t, want, s.Geometries()[1])

	require.NoError(t, s.SwitchWorkspace(2))
	require.NoError(t, s.SwitchWorkspace(1))
	assert.Equal(t, want, s.Geometries()[1])

	require.NoError(t, s.SetLayout(1, config.LayoutFloating))
	assert.Equal(t, want, s.Geometries()[1])
	require.NoError(t, s.SetLayout(1, config.LayoutTiling))
	assert.Equal(t, want, s.Geometries()[1])

	err := s.SetFloatSize(1, platform.Size{Width: 0, Height: 400})
	assert.ErrorIs(t, err, workspace.ErrInvalidSize)
	assert.Equal(t, 1, rec.recoverable["invalid_size"])
	assert.ErrorIs(t, s.SetFloatSize(9, platform.Size{Width: 10, Height: 10}), workspace.ErrUnknownWindow)
	assert.Equal(t, want, s.Geometries()[1])
}

func TestShell_BarReservesStrip(t *testing.T) {
	cfg := testConfig()
	cfg.Bar.Enabled = true
	cfg.Bar.Height = 30
	s, renderer, rec, _ := newShell(t, cfg, nil)
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1, AppID: "a"}))

	assert.Equal(t, platform.Rect{X: 0, Y: 30, Width: 1000, Height: 970}, s.Area())
	assert.Equal(t, platform.Rect{X: 10, Y: 40, Width: 980, Height: 950}, s.Geometries()[1])

	now := time.Date(2024, 3, 5, 7, 8, 0, 0, time.UTC)
	require.NoError(t, s.Tick(now))
	require.NoError(t, s.Tick(now.Add(time.Second)))

	frame := renderer.LastFrame()
	require.Len(t, frame.Bars, 1)
	assert.Equal(t, platform.Rect{Width: 1000, Height: 30}, frame.Bars[0].Target)
	assert.Empty(t, frame.Bars[0].Damage, "same minute, nothing changed")
	assert.Equal(t, 1, rec.bars)
}

func TestShell_WindowRulesAndHooks(t *testing.T) {
	cfg := testConfig()
	cfg.WindowRules = []config.WindowRule{
		{AppID: "firefox", Workspace: 3, Classes: []string{"browser"}},
		{Title: "*Picture*", Sticky: true},
	}
	cfg.Hooks = map[string]string{
		config.HookWindowCreate:    "on_create",
		config.HookWindowClose:     "on_close",
		config.HookWorkspaceSwitch: "on_switch",
	}
	s, _, _, _ := newShell(t, cfg, nil)

	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 7, AppID: "firefox", Title: "Picture-in-Picture"}))
	w, ok := s.Manager().Window(7)
	require.True(t, ok)
	assert.Equal(t, 3, w.Workspace)
	assert.True(t, w.Sticky)
	assert.Equal(t, []string{"browser"}, w.Classes)
	assert.Equal(t, 1, s.Manager().Active(), "rule placement does not switch workspaces")

	require.NoError(t, s.SwitchWorkspace(2))
	require.NoError(t, s.UnmapWindow(7))

	invs := s.DrainInvocations()
	require.Len(t, invs, 3)
	assert.Equal(t, "on_create", invs[0].Callback)
	assert.Equal(t, 3, invs[0].Workspace)
	assert.Equal(t, "on_switch", invs[1].Callback)
	assert.Equal(t, "on_close", invs[2].Callback)
	assert.Equal(t, uint32(7), invs[2].Window)

	h, ok := s.Registry().Lookup("on_create")
	require.True(t, ok)
	assert.Equal(t, h, invs[0].Handle)
	assert.Empty(t, s.DrainInvocations())
}

func TestShell_FullCallbackQueueDropsOldest(t *testing.T) {
	cfg := testConfig()
	cfg.Hooks = map[string]string{config.HookWindowCreate: "on_create"}
	rec := newCountingRecorder()
	s, err := New(cfg, nil, Options{
		Renderer:      output.NewSoftware(quietLogger()),
		Recorder:      rec,
		Logger:        quietLogger(),
		CallbackLimit: 2,
	})
	require.NoError(t, err)

	for id := platform.WindowID(1); id <= 3; id++ {
		require.NoError(t, s.MapWindow(platform.WindowInfo{ID: id, AppID: "term"}))
	}
	assert.Equal(t, uint64(1), s.DroppedInvocations())
	assert.Equal(t, 1, rec.recoverable["callback_dropped"])

	got := s.DrainInvocations()
	require.Len(t, got, 2)
	assert.Equal(t, uint32(2), got[0].Window)
	assert.Equal(t, uint32(3), got[1].Window)
}

func TestShell_StickyWindowShownElsewhere(t *testing.T) {
	cfg := testConfig()
	cfg.WindowRules = []config.WindowRule{{AppID: "clock", Sticky: true}}
	s, _, _, _ := newShell(t, cfg, nil)
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1, AppID: "clock"}))
	require.NoError(t, s.SwitchWorkspace(4))

	frame, err := s.Frame(time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []platform.WindowID{1}, windowIDs(frame))
}

func TestShell_ExecuteActions(t *testing.T) {
	s, _, rec, spawner := newShell(t, testConfig(), nil)

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionSpawn, Command: "xterm"}))
	assert.Equal(t, []string{"xterm"}, spawner.commands)

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionClose}), "close without focus is a no-op")

	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1}))
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 2}))
	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionMoveToWorkspace, Workspace: 5}))
	w, _ := s.Manager().Window(1)
	assert.Equal(t, 5, w.Workspace)
	focused, _ := s.Manager().Focused()
	assert.Equal(t, platform.WindowID(2), focused)

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionToggleFloating}))
	w, _ = s.Manager().Window(2)
	assert.True(t, w.Floating)

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionSetLayout, Layout: config.LayoutMonocle}))
	v, err := s.Manager().View(1)
	require.NoError(t, err)
	assert.Equal(t, config.LayoutMonocle, v.Layout)

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionCycleWorkspace, Direction: -1}))
	assert.Equal(t, 9, s.Manager().Active())

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionSwitchWorkspace, Workspace: 1}))
	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionClose}))
	_, ok := s.Manager().Window(2)
	assert.False(t, ok, "close unmaps when no closer is configured")
	assert.Equal(t, 1, rec.windows)

	require.NoError(t, s.Execute(hotkeys.Action{Kind: config.ActionCustom, Callback: "hello"}))
	invs := s.DrainInvocations()
	require.NotEmpty(t, invs)
	assert.Equal(t, "hello", invs[len(invs)-1].Callback)
	assert.Equal(t, "keybinding", invs[len(invs)-1].Event)
}

func TestShell_SpawnFailureIsConsumedAndCounted(t *testing.T) {
	s, _, rec, spawner := newShell(t, testConfig(), nil)
	spawner.err = platform.ErrSpawnFailure

	res := s.Dispatch(key(t, "Return", hotkeys.ModSuper))
	assert.Equal(t, hotkeys.Consumed, res)
	assert.Equal(t, 1, rec.recoverable["spawn_failure"])

	res = s.Dispatch(key(t, "Return", hotkeys.ModSuper|hotkeys.ModCtrl))
	assert.Equal(t, hotkeys.Forwarded, res)
	assert.Equal(t, 1, rec.keys["forwarded"])
}

func TestShell_UnknownWindowErrors(t *testing.T) {
	s, _, rec, _ := newShell(t, testConfig(), nil)
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1}))

	err := s.MapWindow(platform.WindowInfo{ID: 1})
	assert.Error(t, err)
	err = s.UnmapWindow(42)
	assert.Error(t, err)
	assert.Equal(t, 1, rec.recoverable["window_exists"])
	assert.Equal(t, 1, rec.recoverable["unknown_window"])
	assert.Error(t, s.SwitchWorkspace(99))
}

func TestShell_Reload(t *testing.T) {
	s, _, _, _ := newShell(t, testConfig(), nil)
	require.NoError(t, s.MapWindow(platform.WindowInfo{ID: 1}))

	next := testConfig()
	next.Layout.Gaps = config.Gaps{Outer: 0, Inner: 0}
	next.Workspaces = config.DefaultWorkspaces(9, next.Layout)
	next.Keybindings = append(next.Keybindings, config.KeybindingConfig{Keys: "Super+x", Action: config.ActionSpawn, Command: "xclock"})
	require.NoError(t, s.Reload(next, sheet(t, `window { border-width: 7px; }`)))

	assert.Equal(t, platform.Rect{Width: 1000, Height: 1000}, s.Geometries()[1])
	assert.Len(t, s.Bindings(), len(next.Keybindings))
	frame, err := s.Frame(time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 7, frame.Windows[0].BorderWidth)

	fewer := testConfig()
	fewer.Workspaces = config.DefaultWorkspaces(4, fewer.Layout)
	assert.Error(t, s.Reload(fewer, nil))

	dup := testConfig()
	dup.Keybindings = append(dup.Keybindings, config.KeybindingConfig{Keys: "Super+q", Action: config.ActionClose})
	err = s.Reload(dup, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, hotkeys.ErrDuplicateKeybinding))
	assert.Len(t, s.Bindings(), len(next.Keybindings), "failed reload keeps the previous table")
}

func TestShell_ReloadTogglesBar(t *testing.T) {
	s, renderer, _, _ := newShell(t, testConfig(), nil)
	assert.Nil(t, s.Bar())

	withBar := testConfig()
	withBar.Bar.Enabled = true
	require.NoError(t, s.Reload(withBar, nil))
	require.NotNil(t, s.Bar())
	require.NoError(t, s.Tick(time.Unix(0, 0)))
	_, _, textures := renderer.Stats()
	assert.Equal(t, 1, textures)

	require.NoError(t, s.Reload(testConfig(), nil))
	assert.Nil(t, s.Bar())
	_, _, textures = renderer.Stats()
	assert.Equal(t, 0, textures)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(testConfig()))

	cfg := testConfig()
	cfg.Keybindings = append(cfg.Keybindings, config.KeybindingConfig{Keys: "Super+Bogus", Action: config.ActionClose})
	var verr *config.ValidationError
	assert.ErrorAs(t, Validate(cfg), &verr)
}

func TestLoop_DoAndTick(t *testing.T) {
	s, renderer, _, _ := newShell(t, testConfig(), nil)
	loop := NewLoop(s, 200, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	err := loop.Do(ctx, func(s *Shell) error {
		return s.MapWindow(platform.WindowInfo{ID: 1, AppID: "a"})
	})
	require.NoError(t, err)

	loop.Post(func(*Shell) { panic("boom") })

	require.Eventually(t, func() bool {
		frames, _, _ := renderer.Stats()
		return frames > 0 && len(renderer.LastFrame().Windows) == 1
	}, 2*time.Second, 5*time.Millisecond)

	var active int
	require.NoError(t, loop.Do(ctx, func(s *Shell) error {
		active = s.Manager().Active()
		return nil
	}))
	assert.Equal(t, 1, active)

	cancel()
	require.NoError(t, <-done)
}
