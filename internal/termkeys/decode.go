// Package termkeys turns raw terminal input into dispatcher key events, for
// running the compositor headless from a terminal.
package termkeys

import (
	"strconv"
	"strings"

	"github.com/1broseidon/tessel/internal/hotkeys"
)

const esc = 0x1b

// Options controls how terminal input maps onto modifiers.
type Options struct {
	// AltAsSuper reports Alt (ESC-prefixed input) as Super, which terminals
	// cannot transmit.
	AltAsSuper bool
}

// shifted maps US-layout shifted symbols to the key that produces them.
var shifted = map[byte]string{
	'!': "1", '@': "2", '#': "3", '$': "4", '%': "5",
	'^': "6", '&': "7", '*': "8", '(': "9", ')': "0",
	'_': "minus", '+': "equal", '{': "bracketleft", '}': "bracketright",
	'|': "backslash", ':': "semicolon", '"': "apostrophe", '<': "comma",
	'>': "period", '?': "slash", '~': "grave",
}

// csiKeys maps the final byte of "ESC [ ... X" sequences.
var csiKeys = map[byte]string{
	'A': "Up", 'B': "Down", 'C': "Right", 'D': "Left",
	'H': "Home", 'F': "End", 'Z': "Tab",
}

// tildeKeys maps the numeric parameter of "ESC [ n ~" sequences.
var tildeKeys = map[int]string{
	1: "Home", 2: "Insert", 3: "Delete", 4: "End", 5: "Prior", 6: "Next",
	7: "Home", 8: "End",
	11: "F1", 12: "F2", 13: "F3", 14: "F4", 15: "F5",
	17: "F6", 18: "F7", 19: "F8", 20: "F9", 21: "F10", 23: "F11", 24: "F12",
}

// ss3Keys maps "ESC O X" sequences.
var ss3Keys = map[byte]string{
	'P': "F1", 'Q': "F2", 'R': "F3", 'S': "F4",
	'A': "Up", 'B': "Down", 'C': "Right", 'D': "Left", 'H': "Home", 'F': "End",
}

// Decode converts one read of raw terminal input into key events. Bytes
// that name no canonical key are skipped.
func Decode(buf []byte, opts Options) []hotkeys.KeyEvent {
	var out []hotkeys.KeyEvent
	emit := func(name string, mods hotkeys.Mod) {
		k, ok := hotkeys.LookupKey(name)
		if !ok {
			return
		}
		out = append(out, hotkeys.KeyEvent{Key: k, Mods: mods, Pressed: true})
	}
	alt := hotkeys.ModAlt
	if opts.AltAsSuper {
		alt = hotkeys.ModSuper
	}

	for i := 0; i < len(buf); {
		b := buf[i]
		if b != esc {
			name, mods := decodeByte(b)
			emit(name, mods)
			i++
			continue
		}

		// Lone ESC
		if i+1 >= len(buf) {
			emit("Escape", 0)
			i++
			continue
		}

		switch buf[i+1] {
		case '[':
			name, mods, n := decodeCSI(buf[i+2:])
			if opts.AltAsSuper && mods.Has(hotkeys.ModAlt) {
				mods = mods&^hotkeys.ModAlt | hotkeys.ModSuper
			}
			emit(name, mods)
			i += 2 + n
		case 'O':
			if i+2 < len(buf) {
				emit(ss3Keys[buf[i+2]], 0)
				i += 3
			} else {
				i += 2
			}
		case esc:
			emit("Escape", 0)
			i++
		default:
			name, mods := decodeByte(buf[i+1])
			emit(name, mods|alt)
			i += 2
		}
	}
	return out
}

// decodeByte maps a single non-escape byte.
func decodeByte(b byte) (string, hotkeys.Mod) {
	switch {
	case b == '\r' || b == '\n':
		return "Return", 0
	case b == '\t':
		return "Tab", 0
	case b == 0x7f || b == 0x08:
		return "BackSpace", 0
	case b == 0:
		return "space", hotkeys.ModCtrl
	case b >= 0x01 && b <= 0x1a:
		return string(rune('a' + b - 1)), hotkeys.ModCtrl
	case b == ' ':
		return "space", 0
	case b >= 'A' && b <= 'Z':
		return string(rune(b + 'a' - 'A')), hotkeys.ModShift
	}
	if name, ok := shifted[b]; ok {
		return name, hotkeys.ModShift
	}
	if b < 0x80 {
		return string(rune(b)), 0
	}
	return "", 0
}

// decodeCSI parses the remainder of a CSI sequence and reports how many
// bytes it consumed.
func decodeCSI(seq []byte) (string, hotkeys.Mod, int) {
	end := 0
	for end < len(seq) && (seq[end] == ';' || (seq[end] >= '0' && seq[end] <= '9')) {
		end++
	}
	if end >= len(seq) {
		return "", 0, len(seq)
	}
	final := seq[end]
	params := strings.Split(string(seq[:end]), ";")

	var mods hotkeys.Mod
	if len(params) >= 2 {
		if p, err := strconv.Atoi(params[1]); err == nil {
			mods = xtermMods(p)
		}
	}

	if final == '~' {
		p, _ := strconv.Atoi(params[0])
		return tildeKeys[p], mods, end + 1
	}
	name := csiKeys[final]
	if final == 'Z' {
		mods |= hotkeys.ModShift
	}
	return name, mods, end + 1
}

// xtermMods decodes the xterm modifier parameter (1 + bitmask).
func xtermMods(p int) hotkeys.Mod {
	bits := p - 1
	var m hotkeys.Mod
	if bits&1 != 0 {
		m |= hotkeys.ModShift
	}
	if bits&2 != 0 {
		m |= hotkeys.ModAlt
	}
	if bits&4 != 0 {
		m |= hotkeys.ModCtrl
	}
	if bits&8 != 0 {
		m |= hotkeys.ModSuper
	}
	return m
}
