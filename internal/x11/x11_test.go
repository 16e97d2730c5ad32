package x11

import (
	"slices"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/tessel/internal/bar"
	"github.com/1broseidon/tessel/internal/hotkeys"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
)

func TestModsFromState(t *testing.T) {
	state := uint16(xproto.ModMask4 | xproto.ModMaskShift | xproto.ModMaskLock | xproto.ModMask2)
	got := ModsFromState(state)
	if got != hotkeys.ModSuper|hotkeys.ModShift {
		t.Fatalf("expected Super+Shift, got %v", got)
	}
	if ModsFromState(0) != 0 {
		t.Fatal("expected no modifiers")
	}
}

func TestSequence(t *testing.T) {
	cases := map[string]string{
		"Super+Return":       "Mod4-Return",
		"Super+Shift+2":      "Mod4-Shift-2",
		"Ctrl+Alt+Delete":    "Control-Mod1-Delete",
		"F5":                 "F5",
		"Shift+Super+Ctrl+q": "Mod4-Control-Shift-q",
	}
	for in, want := range cases {
		c, err := hotkeys.ParseCombo(in)
		if err != nil {
			t.Fatalf("ParseCombo(%q): %v", in, err)
		}
		if got := Sequence(c); got != want {
			t.Errorf("Sequence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeyMap_Event(t *testing.T) {
	ret, _ := hotkeys.LookupKey("Return")
	km := &KeyMap{codes: map[xproto.Keycode]hotkeys.Key{36: ret}}

	ev, ok := km.Event(36, uint16(xproto.ModMask4), true)
	if !ok {
		t.Fatal("expected keycode 36 to map")
	}
	if ev.Combo().String() != "Super+Return" || !ev.Pressed {
		t.Fatalf("unexpected event %+v", ev)
	}
	if _, ok := km.Event(99, 0, true); ok {
		t.Fatal("expected unmapped keycode to be rejected")
	}
}

func TestLockCombinations(t *testing.T) {
	got := lockCombinations([]uint16{2, 16})
	slices.Sort(got)
	if !slices.Equal(got, []uint16{0, 2, 16, 18}) {
		t.Fatalf("unexpected masks %v", got)
	}
}

func TestCopyBGRA(t *testing.T) {
	c := &bar.Canvas{}
	c.Resize(2, 1)
	c.FillRect(platform.Rect{X: 0, Y: 0, Width: 1, Height: 1}, style.Color{R: 1, A: 1})
	c.FillRect(platform.Rect{X: 1, Y: 0, Width: 1, Height: 1}, style.Color{B: 1, A: 1})

	dst := make([]byte, 8)
	copyBGRA(dst, 8, c)
	want := []byte{0, 0, 0xff, 0xff, 0xff, 0, 0, 0xff}
	if !slices.Equal(dst, want) {
		t.Fatalf("copyBGRA = %v, want %v", dst, want)
	}
}

func TestLargest(t *testing.T) {
	size, ok := Largest([]Monitor{
		{Name: "eDP-1", Width: 1920, Height: 1080},
		{Name: "DP-2", Width: 2560, Height: 1440},
	})
	if !ok || size != (platform.Size{Width: 2560, Height: 1440}) {
		t.Fatalf("unexpected largest %v %v", size, ok)
	}
	if _, ok := Largest(nil); ok {
		t.Fatal("expected no monitor")
	}
}
