package termkeys

import (
	"testing"

	"github.com/1broseidon/tessel/internal/hotkeys"
)

func combos(evs []hotkeys.KeyEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Combo().String()
	}
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
		want []string
	}{
		{"plain letters", "ab", Options{}, []string{"a", "b"}},
		{"enter and tab", "\r\t", Options{}, []string{"Return", "Tab"}},
		{"uppercase is shift", "Q", Options{}, []string{"Shift+q"}},
		{"shifted digit", "@", Options{}, []string{"Shift+2"}},
		{"ctrl letter", "\x01", Options{}, []string{"Ctrl+a"}},
		{"backspace", "\x7f", Options{}, []string{"BackSpace"}},
		{"lone escape", "\x1b", Options{}, []string{"Escape"}},
		{"alt letter", "\x1bq", Options{}, []string{"Alt+q"}},
		{"alt as super", "\x1b\r", Options{AltAsSuper: true}, []string{"Super+Return"}},
		{"alt shifted digit as super", "\x1b#", Options{AltAsSuper: true}, []string{"Super+Shift+3"}},
		{"arrow", "\x1b[A", Options{}, []string{"Up"}},
		{"ctrl arrow", "\x1b[1;5C", Options{}, []string{"Ctrl+Right"}},
		{"alt arrow as super", "\x1b[1;3D", Options{AltAsSuper: true}, []string{"Super+Left"}},
		{"delete", "\x1b[3~", Options{}, []string{"Delete"}},
		{"page down with shift", "\x1b[6;2~", Options{}, []string{"Shift+Next"}},
		{"f1 ss3", "\x1bOP", Options{}, []string{"F1"}},
		{"f5 tilde", "\x1b[15~", Options{}, []string{"F5"}},
		{"back tab", "\x1b[Z", Options{}, []string{"Shift+Tab"}},
		{"mixed", "x\x1b[B\x1bz", Options{}, []string{"x", "Down", "Alt+z"}},
		{"unknown csi skipped", "\x1b[99~a", Options{}, []string{"a"}},
		{"truncated csi", "\x1b[1;", Options{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := combos(Decode([]byte(tt.in), tt.opts))
			if len(got) != len(tt.want) {
				t.Fatalf("Decode(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Decode(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecode_Pressed(t *testing.T) {
	for _, ev := range Decode([]byte("a\x1b[A"), Options{}) {
		if !ev.Pressed {
			t.Fatalf("expected pressed event, got %+v", ev)
		}
	}
}

func TestFeed_CtrlCInterrupts(t *testing.T) {
	var got []string
	s := NewSource(nil, func(ev hotkeys.KeyEvent) { got = append(got, ev.Combo().String()) }, Options{}, nil)

	if s.feed([]byte("ab")) {
		t.Fatal("unexpected interrupt")
	}
	if !s.feed([]byte("c\x03d")) {
		t.Fatal("expected Ctrl+C to interrupt")
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dispatched %v, want %v", got, want)
	}
}
