package style

import (
	"fmt"
	"sort"
	"strings"
)

// Selector is a compound selector: an optional tag, at most one pseudo-state,
// and any number of class and attribute predicates. Combinators are not supported.
type Selector struct {
	Tag     string   // "" or "*" matches every element kind
	State   string   // pseudo-state without the colon, e.g. "focus"
	Classes []string // sorted
	Attrs   []string // "name=value", sorted
}

// Specificity is tag=1, each class or attribute predicate=10, pseudo-state=10.
func (s Selector) Specificity() int {
	n := 10 * (len(s.Classes) + len(s.Attrs))
	if s.State != "" {
		n += 10
	}
	if s.Tag != "" && s.Tag != "*" {
		n++
	}
	return n
}

// Matches reports whether the selector applies to an element of kind in state
// carrying classes. Attribute predicates match class entries of the form name=value.
func (s Selector) Matches(kind, state string, classes map[string]struct{}) bool {
	if s.Tag != "" && s.Tag != "*" && s.Tag != kind {
		return false
	}
	if s.State != "" && s.State != state {
		return false
	}
	for _, c := range s.Classes {
		if _, ok := classes[c]; !ok {
			return false
		}
	}
	for _, a := range s.Attrs {
		if _, ok := classes[a]; !ok {
			return false
		}
	}
	return true
}

func (s Selector) String() string {
	var b strings.Builder
	b.WriteString(s.Tag)
	for _, c := range s.Classes {
		b.WriteString("." + c)
	}
	for _, a := range s.Attrs {
		name, value, _ := strings.Cut(a, "=")
		fmt.Fprintf(&b, "[%s=%q]", name, value)
	}
	if s.State != "" {
		b.WriteString(":" + s.State)
	}
	return b.String()
}

// IsRoot reports whether this is the :root selector holding variable declarations.
func (s Selector) IsRoot() bool {
	return s.Tag == "" && s.State == "root" && len(s.Classes) == 0 && len(s.Attrs) == 0
}

// ParseSelector parses a single compound selector such as
// `window.floating:focus` or `window[app-id="firefox"]`.
func ParseSelector(text string) (Selector, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}
	if strings.ContainsAny(text, " >+~\t\n") {
		return Selector{}, fmt.Errorf("selector %q: combinators are not supported", text)
	}

	var sel Selector
	i := 0
	readIdent := func() string {
		start := i
		for i < len(text) && isIdentChar(text[i]) {
			i++
		}
		return text[start:i]
	}

	if text[0] == '*' {
		sel.Tag = "*"
		i = 1
	} else {
		sel.Tag = strings.ToLower(readIdent())
	}

	for i < len(text) {
		switch text[i] {
		case '.':
			i++
			name := readIdent()
			if name == "" {
				return Selector{}, fmt.Errorf("selector %q: empty class name", text)
			}
			sel.Classes = append(sel.Classes, name)
		case ':':
			i++
			if sel.State != "" {
				return Selector{}, fmt.Errorf("selector %q: more than one pseudo-state", text)
			}
			name := readIdent()
			if name == "" {
				return Selector{}, fmt.Errorf("selector %q: empty pseudo-state", text)
			}
			sel.State = strings.ToLower(name)
		case '[':
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				return Selector{}, fmt.Errorf("selector %q: unterminated attribute", text)
			}
			name, value, ok := strings.Cut(text[i+1:i+end], "=")
			if !ok || strings.TrimSpace(name) == "" {
				return Selector{}, fmt.Errorf("selector %q: attribute predicates need name=value", text)
			}
			value = strings.Trim(strings.TrimSpace(value), `"'`)
			sel.Attrs = append(sel.Attrs, strings.TrimSpace(name)+"="+value)
			i += end + 1
		default:
			return Selector{}, fmt.Errorf("selector %q: unexpected %q", text, text[i])
		}
	}

	sort.Strings(sel.Classes)
	sort.Strings(sel.Attrs)
	return sel, nil
}

func isIdentChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
