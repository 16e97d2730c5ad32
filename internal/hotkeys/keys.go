package hotkeys

import (
	"fmt"
	"strings"
)

// Mod is a set of modifiers.
type Mod uint8

const (
	ModSuper Mod = 1 << iota
	ModCtrl
	ModAlt
	ModShift
)

var modNames = []struct {
	mod  Mod
	name string
}{
	{ModSuper, "Super"},
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
}

var modAliases = map[string]Mod{
	"super":   ModSuper,
	"mod4":    ModSuper,
	"logo":    ModSuper,
	"win":     ModSuper,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"mod1":    ModAlt,
	"meta":    ModAlt,
	"shift":   ModShift,
}

// ParseMod canonicalizes a modifier name.
func ParseMod(name string) (Mod, bool) {
	m, ok := modAliases[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Has reports whether every modifier in o is set in m.
func (m Mod) Has(o Mod) bool {
	return m&o == o
}

func (m Mod) String() string {
	var parts []string
	for _, mn := range modNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "+")
}

// Key is a canonical key. The zero value is KeyNone.
type Key uint16

const KeyNone Key = 0

var (
	keyNames  = []string{""}
	keyByName = map[string]Key{}
)

var keyAliases = map[string]string{
	"enter":     "Return",
	"ret":       "Return",
	"esc":       "Escape",
	"spc":       "space",
	"backspace": "BackSpace",
	"bksp":      "BackSpace",
	"del":       "Delete",
	"ins":       "Insert",
	"pgup":      "Prior",
	"pageup":    "Prior",
	"page_up":   "Prior",
	"pgdown":    "Next",
	"pagedown":  "Next",
	"page_down": "Next",
	"print":     "Print",
	"prtsc":     "Print",
	"-":         "minus",
	"+":         "plus",
	"=":         "equal",
	",":         "comma",
	".":         "period",
	"/":         "slash",
	";":         "semicolon",
	"'":         "apostrophe",
	"`":         "grave",
	"[":         "bracketleft",
	"]":         "bracketright",
	"\\":        "backslash",
}

func init() {
	var names []string
	for c := 'a'; c <= 'z'; c++ {
		names = append(names, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		names = append(names, string(c))
	}
	for i := 1; i <= 24; i++ {
		names = append(names, fmt.Sprintf("F%d", i))
	}
	names = append(names,
		"Return", "Escape", "space", "Tab", "BackSpace", "Delete", "Insert",
		"Home", "End", "Prior", "Next", "Left", "Right", "Up", "Down", "Print",
		"minus", "plus", "equal", "comma", "period", "slash", "semicolon",
		"apostrophe", "grave", "bracketleft", "bracketright", "backslash",
	)
	for _, n := range names {
		keyByName[strings.ToLower(n)] = Key(len(keyNames))
		keyNames = append(keyNames, n)
	}
	for alias, canonical := range keyAliases {
		keyByName[alias] = keyByName[strings.ToLower(canonical)]
	}
}

// LookupKey canonicalizes a key name, case-insensitively and through aliases.
func LookupKey(name string) (Key, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return KeyNone, false
	}
	if k, ok := keyByName[strings.ToLower(name)]; ok {
		return k, true
	}
	return KeyNone, false
}

// AllKeys returns every canonical key in definition order.
func AllKeys() []Key {
	out := make([]Key, 0, len(keyNames)-1)
	for i := 1; i < len(keyNames); i++ {
		out = append(out, Key(i))
	}
	return out
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", uint16(k))
}

// Combo is a canonical modifier set plus key. Combos compare with ==.
type Combo struct {
	Mods Mod
	Key  Key
}

func (c Combo) String() string {
	if c.Mods == 0 {
		return c.Key.String()
	}
	return c.Mods.String() + "+" + c.Key.String()
}

// ParseCombo parses strings like "Super+Shift+Return" or "Ctrl-Alt-t".
// The last token is the key; every earlier token must be a modifier.
func ParseCombo(s string) (Combo, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Combo{}, fmt.Errorf("empty key combination")
	}
	tokens := splitCombo(raw)
	if sep := raw[len(raw)-1:]; (sep == "+" || sep == "-") && tokens[len(tokens)-1] != sep {
		return Combo{}, fmt.Errorf("key combination %q: trailing %q has no key after it (use %q for the %s key)",
			s, sep, raw+sep, keyNameForSep(sep))
	}
	var c Combo
	for i, tok := range tokens {
		if i < len(tokens)-1 {
			m, ok := ParseMod(tok)
			if !ok {
				return Combo{}, fmt.Errorf("key combination %q: unknown modifier %q", s, tok)
			}
			if c.Mods.Has(m) {
				return Combo{}, fmt.Errorf("key combination %q: modifier %q repeated", s, tok)
			}
			c.Mods |= m
			continue
		}
		if _, isMod := ParseMod(tok); isMod {
			return Combo{}, fmt.Errorf("key combination %q: missing key after modifiers", s)
		}
		k, ok := LookupKey(tok)
		if !ok {
			return Combo{}, fmt.Errorf("key combination %q: unknown key %q", s, tok)
		}
		c.Key = k
	}
	return c, nil
}

// splitCombo splits on '+' and '-'. A separator standing where a token
// should start ("Super++", a lone "-") is taken literally as that token.
// A separator after a name only separates, so "Super+Shift+" ends without
// a key and ParseCombo rejects it.
func splitCombo(s string) []string {
	var tokens []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '+' && s[i] != '-' {
			continue
		}
		if i == start {
			// "Super++" or a lone "-": the separator is the key itself.
			tokens = append(tokens, s[i:i+1])
			start = i + 1
			continue
		}
		tokens = append(tokens, strings.TrimSpace(s[start:i]))
		start = i + 1
	}
	if start < len(s) {
		tokens = append(tokens, strings.TrimSpace(s[start:]))
	}
	return tokens
}

func keyNameForSep(sep string) string {
	if sep == "-" {
		return "minus"
	}
	return "plus"
}
