package style

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags a resolved property value.
type ValueKind int

const (
	KindKeyword ValueKind = iota
	KindColor
	KindLength
)

// Value is a concrete property value after variable substitution.
type Value struct {
	Kind    ValueKind
	Color   Color
	Length  float64 // pixels
	Keyword string
}

func (v Value) String() string {
	switch v.Kind {
	case KindColor:
		return v.Color.String()
	case KindLength:
		return strconv.FormatFloat(v.Length, 'f', -1, 64) + "px"
	default:
		return v.Keyword
	}
}

// Resolved is the folded property set for one query. It is immutable.
type Resolved struct {
	props map[string]Value
}

// Color returns the colour stored under prop.
func (r Resolved) Color(prop string) (Color, bool) {
	v, ok := r.props[prop]
	if !ok || v.Kind != KindColor {
		return Color{}, false
	}
	return v.Color, true
}

// ColorOr returns the colour stored under prop, or def.
func (r Resolved) ColorOr(prop string, def Color) Color {
	if c, ok := r.Color(prop); ok {
		return c
	}
	return def
}

// Length returns the pixel length stored under prop.
func (r Resolved) Length(prop string) (float64, bool) {
	v, ok := r.props[prop]
	if !ok || v.Kind != KindLength {
		return 0, false
	}
	return v.Length, true
}

// LengthOr returns the pixel length stored under prop, or def.
func (r Resolved) LengthOr(prop string, def float64) float64 {
	if l, ok := r.Length(prop); ok {
		return l
	}
	return def
}

// Keyword returns the raw keyword stored under prop.
func (r Resolved) Keyword(prop string) (string, bool) {
	v, ok := r.props[prop]
	if !ok || v.Kind != KindKeyword {
		return "", false
	}
	return v.Keyword, true
}

// Get returns the value stored under prop.
func (r Resolved) Get(prop string) (Value, bool) {
	v, ok := r.props[prop]
	return v, ok
}

// Len reports how many properties resolved.
func (r Resolved) Len() int {
	return len(r.props)
}

// Properties returns the resolved property names in sorted order.
func (r Resolved) Properties() []string {
	names := make([]string, 0, len(r.props))
	for name := range r.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// propertyKind decides how a property's value is interpreted.
func propertyKind(prop string) ValueKind {
	switch {
	case prop == "color", prop == "background", strings.HasSuffix(prop, "color"):
		return KindColor
	case prop == "width", prop == "height", prop == "padding", prop == "margin",
		prop == "gap", prop == "spacing", prop == "font-size",
		strings.HasSuffix(prop, "-width"), strings.HasSuffix(prop, "-height"),
		strings.HasSuffix(prop, "-gap"), strings.HasSuffix(prop, "-size"),
		strings.HasSuffix(prop, "-radius"), strings.HasPrefix(prop, "padding-"):
		return KindLength
	default:
		return KindKeyword
	}
}

// ParseLength accepts "12px" or a bare number. Relative units are rejected.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("unsupported length %q", s)
	}
	return v, nil
}

// parseValue converts a substituted raw value according to the property kind.
func parseValue(prop, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch propertyKind(prop) {
	case KindColor:
		c, err := ParseColor(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindColor, Color: c}, nil
	case KindLength:
		l, err := ParseLength(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindLength, Length: l}, nil
	default:
		return Value{Kind: KindKeyword, Keyword: raw}, nil
	}
}
