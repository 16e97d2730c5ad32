package hotkeys

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/tessel/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustKey(t *testing.T, name string) Key {
	t.Helper()
	k, ok := LookupKey(name)
	if !ok {
		t.Fatalf("unknown key %q", name)
	}
	return k
}

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Super+Return", want: "Super+Return"},
		{in: "mod4+enter", want: "Super+Return"},
		{in: "Logo+Shift+ENTER", want: "Super+Shift+Return"},
		{in: "Shift+Win+Return", want: "Super+Shift+Return"},
		{in: "Ctrl-Alt-t", want: "Ctrl+Alt+t"},
		{in: "Control+Mod1+Delete", want: "Ctrl+Alt+Delete"},
		{in: "Meta+esc", want: "Alt+Escape"},
		{in: "Super+-", want: "Super+minus"},
		{in: "Super++", want: "Super+plus"},
		{in: "Super+Shift++", want: "Super+Shift+plus"},
		{in: "Ctrl-Alt--", want: "Ctrl+Alt+minus"},
		{in: "+", want: "plus"},
		{in: "Super+PgUp", want: "Super+Prior"},
		{in: "F12", want: "F12"},
		{in: "Super+Q", want: "Super+q"},
		{in: "", wantErr: true},
		{in: "Super", wantErr: true},
		{in: "Super+", wantErr: true},
		{in: "Super+Shift+", wantErr: true},
		{in: "Ctrl-Alt-", wantErr: true},
		{in: "Hyper+a", wantErr: true},
		{in: "Super+Super+a", wantErr: true},
		{in: "Super+NoSuchKey", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCombo(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseCombo(%q): expected error, got %s", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCombo(%q): %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("ParseCombo(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewTable_DuplicatePolicy(t *testing.T) {
	kbs := []config.KeybindingConfig{
		{Keys: "Super+Return", Action: config.ActionSpawn, Command: "xterm"},
		{Keys: "Mod4+Enter", Action: config.ActionSpawn, Command: "foot"},
	}
	bindings, err := BuildBindings(kbs)
	if err != nil {
		t.Fatalf("BuildBindings: %v", err)
	}

	_, err = NewTable(bindings, config.DuplicateReject, quietLogger())
	if !errors.Is(err, ErrDuplicateKeybinding) {
		t.Fatalf("expected ErrDuplicateKeybinding, got %v", err)
	}
	var verr *config.ValidationError
	if !errors.As(err, &verr) || verr.Path != "keybindings[1].keys" {
		t.Fatalf("expected validation error on keybindings[1].keys, got %v", err)
	}

	table, err := NewTable(bindings, config.DuplicateLastWins, quietLogger())
	if err != nil {
		t.Fatalf("NewTable last-wins: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 binding, got %d", table.Len())
	}
	b, _ := table.Lookup(Combo{Mods: ModSuper, Key: mustKey(t, "Return")})
	if b.Action.Command != "foot" {
		t.Fatalf("expected later declaration to win, got %q", b.Action.Command)
	}
}

func TestBuildBindings_Errors(t *testing.T) {
	tests := []struct {
		name string
		kb   config.KeybindingConfig
		path string
	}{
		{name: "bad key", kb: config.KeybindingConfig{Keys: "Super+Nope", Action: config.ActionClose}, path: "keybindings[0].keys"},
		{name: "bad direction", kb: config.KeybindingConfig{Keys: "Super+j", Action: config.ActionFocus, Direction: "sideways"}, path: "keybindings[0].direction"},
		{name: "bad layout", kb: config.KeybindingConfig{Keys: "Super+t", Action: config.ActionSetLayout, Layout: "spiral"}, path: "keybindings[0].layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBindings([]config.KeybindingConfig{tt.kb})
			var verr *config.ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("expected validation error at %s, got %v", tt.path, err)
			}
		})
	}
}

func TestDispatch_ExactModifierEquality(t *testing.T) {
	bindings, err := BuildBindings([]config.KeybindingConfig{
		{Keys: "Super+Return", Action: config.ActionSpawn, Command: "xterm"},
	})
	if err != nil {
		t.Fatalf("BuildBindings: %v", err)
	}
	table, err := NewTable(bindings, config.DuplicateReject, quietLogger())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	var ran []Action
	d := NewDispatcher(table, ExecutorFunc(func(a Action) error {
		ran = append(ran, a)
		return nil
	}), quietLogger())

	ret := mustKey(t, "Return")
	enter := mustKey(t, "Enter")

	tests := []struct {
		name string
		ev   KeyEvent
		want Result
	}{
		{name: "extra modifier", ev: KeyEvent{Key: ret, Mods: ModSuper | ModShift, Pressed: true}, want: Forwarded},
		{name: "missing modifier", ev: KeyEvent{Key: ret, Pressed: true}, want: Forwarded},
		{name: "release", ev: KeyEvent{Key: ret, Mods: ModSuper}, want: Forwarded},
		{name: "exact", ev: KeyEvent{Key: ret, Mods: ModSuper, Pressed: true}, want: Consumed},
		{name: "alias", ev: KeyEvent{Key: enter, Mods: ModSuper, Pressed: true}, want: Consumed},
		{name: "other key", ev: KeyEvent{Key: mustKey(t, "a"), Mods: ModSuper, Pressed: true}, want: Forwarded},
	}
	for _, tt := range tests {
		if got := d.Dispatch(tt.ev); got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
	if len(ran) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(ran))
	}
	if ran[0].Kind != config.ActionSpawn || ran[0].Command != "xterm" {
		t.Fatalf("unexpected action: %+v", ran[0])
	}
}

func TestDispatch_FailedActionIsStillConsumed(t *testing.T) {
	bindings, _ := BuildBindings([]config.KeybindingConfig{
		{Keys: "Super+1", Action: config.ActionSwitchWorkspace, Workspace: 9},
	})
	table, _ := NewTable(bindings, config.DuplicateReject, quietLogger())

	var observed []error
	d := NewDispatcher(table, ExecutorFunc(func(Action) error {
		return errors.New("unknown workspace: 9")
	}), quietLogger())
	d.SetObserver(func(_ KeyEvent, r Result, err error) {
		if r == Consumed {
			observed = append(observed, err)
		}
	})

	if got := d.Dispatch(KeyEvent{Key: mustKey(t, "1"), Mods: ModSuper, Pressed: true}); got != Consumed {
		t.Fatalf("expected consumed, got %s", got)
	}
	if len(observed) != 1 || observed[0] == nil {
		t.Fatalf("expected observer to see the action error, got %v", observed)
	}
}

func TestDefaultKeybindingsBuild(t *testing.T) {
	bindings, err := BuildBindings(config.DefaultKeybindings(9, "xterm"))
	if err != nil {
		t.Fatalf("BuildBindings: %v", err)
	}
	table, err := NewTable(bindings, config.DuplicateReject, quietLogger())
	if err != nil {
		t.Fatalf("default bindings must not collide: %v", err)
	}
	b, ok := table.Lookup(Combo{Mods: ModSuper | ModShift, Key: mustKey(t, "Tab")})
	if !ok || b.Action.Kind != config.ActionCycleWorkspace || b.Action.Direction != -1 {
		t.Fatalf("unexpected Super+Shift+Tab binding: %+v", b)
	}
}
