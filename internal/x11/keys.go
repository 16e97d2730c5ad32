package x11

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/tessel/internal/hotkeys"
)

var modMasks = []struct {
	mask uint16
	mod  hotkeys.Mod
	name string
}{
	{xproto.ModMask4, hotkeys.ModSuper, "Mod4"},
	{xproto.ModMaskControl, hotkeys.ModCtrl, "Control"},
	{xproto.ModMask1, hotkeys.ModAlt, "Mod1"},
	{xproto.ModMaskShift, hotkeys.ModShift, "Shift"},
}

// ModsFromState converts an X modifier state to canonical modifiers.
// Lock modifiers are ignored.
func ModsFromState(state uint16) hotkeys.Mod {
	var m hotkeys.Mod
	for _, mm := range modMasks {
		if state&mm.mask != 0 {
			m |= mm.mod
		}
	}
	return m
}

// Sequence renders a combo in xgbutil key sequence syntax, e.g. "Mod4-Shift-2".
func Sequence(c hotkeys.Combo) string {
	var parts []string
	for _, mm := range modMasks {
		if c.Mods.Has(mm.mod) {
			parts = append(parts, mm.name)
		}
	}
	parts = append(parts, c.Key.String())
	return strings.Join(parts, "-")
}

// KeyMap translates keycodes to canonical keys for the current keyboard mapping.
type KeyMap struct {
	codes map[xproto.Keycode]hotkeys.Key
}

// NewKeyMap resolves every canonical key name to its keycodes.
func NewKeyMap(xu *xgbutil.XUtil) *KeyMap {
	km := &KeyMap{codes: make(map[xproto.Keycode]hotkeys.Key)}
	for _, k := range hotkeys.AllKeys() {
		for _, code := range keybind.StrToKeycodes(xu, k.String()) {
			if _, taken := km.codes[code]; !taken {
				km.codes[code] = k
			}
		}
	}
	return km
}

// Event builds a key event, reporting false for keycodes with no canonical key.
func (km *KeyMap) Event(code xproto.Keycode, state uint16, pressed bool) (hotkeys.KeyEvent, bool) {
	k, ok := km.codes[code]
	if !ok {
		return hotkeys.KeyEvent{}, false
	}
	return hotkeys.KeyEvent{Key: k, Mods: ModsFromState(state), Pressed: pressed}, true
}

// KeySource turns X key presses into dispatcher events. Presses delivered to
// the preview window are always forwarded; bound combos can additionally be
// grabbed on the root window so they work while other windows have focus.
type KeySource struct {
	conn    *Connection
	keys    *KeyMap
	sink    func(hotkeys.KeyEvent)
	grabbed []string
	logger  *slog.Logger
}

// NewKeySource creates a key source that delivers events to sink. sink runs
// on the X event goroutine.
func NewKeySource(conn *Connection, sink func(hotkeys.KeyEvent), logger *slog.Logger) *KeySource {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeySource{
		conn:   conn,
		keys:   NewKeyMap(conn.XUtil),
		sink:   sink,
		logger: logger.With("component", "x11-keys"),
	}
}

// Listen forwards key presses on win.
func (k *KeySource) Listen(win xproto.Window) {
	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		k.deliver(ev.Detail, ev.State)
	}).Connect(k.conn.XUtil, win)
}

// Grab replaces the root window grabs with one per binding. Bindings that
// cannot be grabbed are logged and skipped.
func (k *KeySource) Grab(bindings []hotkeys.Binding) error {
	xu := k.conn.XUtil
	keybind.Detach(xu, k.conn.Root)
	k.grabbed = k.grabbed[:0]

	var failed []string
	for _, b := range bindings {
		seq := Sequence(b.Combo)
		err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
			k.deliver(ev.Detail, ev.State)
		}).Connect(xu, k.conn.Root, seq, true)
		if err != nil {
			k.logger.Warn("key grab failed", "combo", b.Combo.String(), "error", err)
			failed = append(failed, b.Combo.String())
			continue
		}
		k.grabbed = append(k.grabbed, seq)
	}
	k.logger.Info("key grabs installed", "count", len(k.grabbed))
	if len(failed) == len(bindings) && len(bindings) > 0 {
		return fmt.Errorf("no key combination could be grabbed (another client may own them)")
	}
	return nil
}

func (k *KeySource) deliver(code xproto.Keycode, state uint16) {
	ev, ok := k.keys.Event(code, state, true)
	if !ok {
		k.logger.Debug("unmapped keycode", "keycode", code)
		return
	}
	k.sink(ev)
}
