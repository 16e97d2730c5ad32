package style

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustRule(t *testing.T, order int, selector string, decls ...string) Rule {
	t.Helper()
	sel, err := ParseSelector(selector)
	require.NoError(t, err)
	require.True(t, len(decls)%2 == 0, "declarations come in pairs")
	r := Rule{Selector: sel, Order: order}
	for i := 0; i < len(decls); i += 2 {
		r.Declarations = append(r.Declarations, Declaration{Property: decls[i], Value: decls[i+1]})
	}
	return r
}

func TestResolve_FocusOverridesPlainRegardlessOfOrder(t *testing.T) {
	rules := []Rule{
		mustRule(t, 0, "window:focus", "border-color", "#ff0000"),
		mustRule(t, 1, "window", "border-color", "#00ff00", "border-width", "3px"),
	}
	r := NewResolver(rules, nil, quietLogger())

	focused := r.Resolve("window", "focus", nil)
	c, ok := focused.Color("border-color")
	require.True(t, ok)
	assert.Equal(t, Color{1, 0, 0, 1}, c)
	assert.Equal(t, 3.0, focused.LengthOr("border-width", 0))

	plain := r.Resolve("window", "", nil)
	assert.Equal(t, Color{0, 1, 0, 1}, plain.ColorOr("border-color", Transparent))
}

func TestResolve_EqualSpecificityLaterWins(t *testing.T) {
	rules := []Rule{
		mustRule(t, 0, "window:focus", "border-color", "#ff0000"),
		mustRule(t, 1, "window.urgent", "border-color", "#0000ff"),
	}
	r := NewResolver(rules, nil, quietLogger())

	got := r.Resolve("window", "focus", []string{"urgent"})
	assert.Equal(t, Color{0, 0, 1, 1}, got.ColorOr("border-color", Transparent))
}

func TestResolve_ClassAndAttributePredicates(t *testing.T) {
	rules := []Rule{
		mustRule(t, 0, "window", "border-width", "1"),
		mustRule(t, 1, `window[app-id="firefox"]`, "border-width", "4px"),
		mustRule(t, 2, "window.floating", "border-width", "2px"),
	}
	r := NewResolver(rules, nil, quietLogger())

	assert.Equal(t, 1.0, r.Resolve("window", "", nil).LengthOr("border-width", -1))
	assert.Equal(t, 4.0, r.Resolve("window", "", []string{"app-id=firefox"}).LengthOr("border-width", -1))
	// both predicates have the same specificity; the later declaration wins
	assert.Equal(t, 2.0, r.Resolve("window", "", []string{"app-id=firefox", "floating"}).LengthOr("border-width", -1))
	// tag mismatch
	assert.Equal(t, 0, r.Resolve("workspace", "", []string{"floating"}).Len())
}

func TestResolve_Idempotent(t *testing.T) {
	rules := []Rule{
		mustRule(t, 0, "workspace", "background-color", "#333"),
		mustRule(t, 1, "workspace:active", "background-color", "#89b4fa", "color", "#11111b"),
	}
	r := NewResolver(rules, nil, quietLogger())

	a := r.Resolve("workspace", "active", []string{"occupied", "occupied"})
	b := r.Resolve("workspace", "active", []string{"occupied"})
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"background-color", "color"}, a.Properties())
}

func TestResolve_Variables(t *testing.T) {
	vars := map[string]string{
		"--accent":       "#89b4fa",
		"--border-focus": "var(--accent)",
		"--loop-a":       "var(--loop-b)",
		"--loop-b":       "var(--loop-a)",
	}
	rules := []Rule{
		mustRule(t, 0, "window:focus", "border-color", "var(--border-focus)"),
		mustRule(t, 1, "window", "border-color", "var(--missing, #111111)"),
		mustRule(t, 2, "bar", "background-color", "var(--missing)", "height", "30px"),
		mustRule(t, 3, "clock", "color", "var(--loop-a)"),
	}
	r := NewResolver(rules, vars, quietLogger())

	focus := r.Resolve("window", "focus", nil)
	assert.Equal(t, MustColor("#89b4fa"), focus.ColorOr("border-color", Transparent))

	plain := r.Resolve("window", "", nil)
	assert.Equal(t, MustColor("#111111"), plain.ColorOr("border-color", Transparent))

	bar := r.Resolve("bar", "", nil)
	_, ok := bar.Color("background-color")
	assert.False(t, ok, "unresolved variable drops the property")
	assert.Equal(t, 30.0, bar.LengthOr("height", 0))

	clock := r.Resolve("clock", "", nil)
	assert.Equal(t, 0, clock.Len(), "cyclic variables never resolve")

	issues := r.Issues()
	require.Len(t, issues, 2)
	for _, err := range issues {
		assert.True(t, errors.Is(err, ErrVariableUnresolved))
	}

	v, ok := r.Variable("border-focus")
	require.True(t, ok)
	assert.Equal(t, "#89b4fa", v)
}

func TestResolve_InvalidValuesDropped(t *testing.T) {
	rules := []Rule{
		mustRule(t, 0, "window", "border-width", "50%", "border-color", "chartreuse", "cursor", "pointer"),
	}
	r := NewResolver(rules, nil, quietLogger())

	got := r.Resolve("window", "", nil)
	assert.Equal(t, []string{"cursor"}, got.Properties())
	kw, ok := got.Keyword("cursor")
	require.True(t, ok)
	assert.Equal(t, "pointer", kw)
	assert.Len(t, r.Issues(), 2)
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in          string
		want        Selector
		specificity int
	}{
		{"window", Selector{Tag: "window"}, 1},
		{"window:focus", Selector{Tag: "window", State: "focus"}, 11},
		{".floating", Selector{Classes: []string{"floating"}}, 10},
		{"workspace.occupied:active", Selector{Tag: "workspace", State: "active", Classes: []string{"occupied"}}, 21},
		{`window[app-id='kitty'].b.a`, Selector{Tag: "window", Classes: []string{"a", "b"}, Attrs: []string{"app-id=kitty"}}, 31},
		{"*", Selector{Tag: "*"}, 0},
		{":root", Selector{State: "root"}, 10},
	}
	for _, tt := range tests {
		got, err := ParseSelector(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.specificity, got.Specificity(), tt.in)
	}

	for _, bad := range []string{"", "bar window", "a:b:c", "window[", "window[x]", "window."} {
		_, err := ParseSelector(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{1, 1, 1, 1}},
		{"#ff000080", Color{1, 0, 0, 128.0 / 255}},
		{"#00FF00", Color{0, 1, 0, 1}},
		{"rgb(255, 0, 0)", Color{1, 0, 0, 1}},
		{"rgba(0, 0, 255, 0.5)", Color{0, 0, 1, 0.5}},
		{"transparent", Color{}},
		{"White", Color{1, 1, 1, 1}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want.R, got.R, 1e-9, tt.in)
		assert.InDelta(t, tt.want.G, got.G, 1e-9, tt.in)
		assert.InDelta(t, tt.want.B, got.B, 1e-9, tt.in)
		assert.InDelta(t, tt.want.A, got.A, 1e-9, tt.in)
	}

	for _, bad := range []string{"", "#12", "rgb(1,2)", "hsl(0,0%,0%)", "#zzzzzz"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, uint32(0x89b4fa), MustColor("#89b4fa").Uint32())
}

func TestParseSheet(t *testing.T) {
	src := `
:root {
  --accent: #89b4fa;
  --gap: 6px;
}
window, window.floating { border-width: 2px; }
window:focus { border-color: var(--accent); }
@media screen { bar { height: 20px; } }
bar > clock { color: red; }
`
	sheet, err := ParseSheet(src, 10)
	require.NoError(t, err)

	assert.Equal(t, "#89b4fa", sheet.Variables["--accent"])
	assert.Equal(t, "6px", sheet.Variables["--gap"])
	require.Len(t, sheet.Rules, 3)
	assert.Equal(t, 10, sheet.Rules[0].Order)
	assert.Equal(t, 12, sheet.Rules[2].Order)
	assert.Equal(t, "focus", sheet.Rules[2].Selector.State)
	assert.Len(t, sheet.Skipped, 2)

	r := NewResolver(sheet.Rules, sheet.Variables, quietLogger())
	assert.Equal(t, MustColor("#89b4fa"), r.Resolve("window", "focus", nil).ColorOr("border-color", Transparent))
}
