package bar

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emptyStyles() Styler {
	return style.NewResolver(nil, nil, quietLogger())
}

func rgba(c *Canvas, x, y int) [4]byte {
	i := (y*c.Width + x) * 4
	return [4]byte{c.Pix[i], c.Pix[i+1], c.Pix[i+2], c.Pix[i+3]}
}

func newTestCompositor(t *testing.T, width int, widgets ...config.WidgetConfig) *Compositor {
	t.Helper()
	cfg := config.BarConfig{Enabled: true, Position: config.BarTop, Height: 30, Class: "bar", Font: "mini", Widgets: widgets}
	c, err := New(cfg, platform.Size{Width: width, Height: 800}, emptyStyles(), quietLogger())
	require.NoError(t, err)
	return c
}

func TestBlend_OpaqueRedOverBlue(t *testing.T) {
	c := NewCanvas(4, 4)
	c.FillRect(c.Bounds(), style.Color{B: 1, A: 1})
	c.FillRect(platform.Rect{X: 1, Y: 1, Width: 2, Height: 2}, style.Color{R: 1, A: 1})

	assert.Equal(t, [4]byte{255, 0, 0, 255}, rgba(c, 1, 1))
	assert.Equal(t, [4]byte{255, 0, 0, 255}, rgba(c, 2, 2))
	assert.Equal(t, [4]byte{0, 0, 255, 255}, rgba(c, 0, 0))
}

func TestBlend_HalfWhiteOverBlack(t *testing.T) {
	c := NewCanvas(2, 2)
	c.FillRect(c.Bounds(), style.Color{A: 1})
	c.FillRect(c.Bounds(), style.Color{R: 1, G: 1, B: 1, A: 0.5})

	assert.Equal(t, [4]byte{128, 128, 128, 255}, rgba(c, 0, 0))
	got := c.At(1, 1)
	assert.InDelta(t, 0.5, got.R, 0.003)
	assert.InDelta(t, 1.0, got.A, 0.0001)
}

func TestFillCircle(t *testing.T) {
	c := NewCanvas(12, 12)
	c.FillCircle(5, 5, 3, style.Color{R: 1, G: 1, B: 1, A: 1})

	assert.Equal(t, byte(255), rgba(c, 8, 5)[3], "edge of radius is inside")
	assert.Equal(t, byte(255), rgba(c, 5, 2)[3])
	assert.Equal(t, byte(0), rgba(c, 8, 8)[3], "corner is outside")
	assert.Equal(t, byte(0), rgba(c, 9, 5)[3])
}

func TestMiniGlyphs(t *testing.T) {
	c := NewCanvas(12, 7)
	white := style.Color{R: 1, G: 1, B: 1, A: 1}
	c.DrawText(0, 0, "1a", Mini, white)

	// '1' row 0 is 0x04: only column 2 set.
	assert.Equal(t, byte(0), rgba(c, 0, 0)[3])
	assert.Equal(t, byte(255), rgba(c, 2, 0)[3])
	// 'a' renders as 'A', row 3 is 0x1F: columns 0..4 of the second cell.
	for x := 6; x < 11; x++ {
		assert.Equal(t, byte(255), rgba(c, x, 3)[3], "x=%d", x)
	}
	assert.Equal(t, byte(0), rgba(c, 11, 3)[3], "advance column stays empty")
	assert.Equal(t, 12, TextWidth(Mini, "1a"))
}

func TestBasicFace(t *testing.T) {
	f, err := LookupFace("basic")
	require.NoError(t, err)
	assert.Equal(t, 7, f.Advance())
	assert.Equal(t, 13, f.Height())

	mask := f.Glyph('A')
	require.Len(t, mask, 7*13)
	lit := 0
	for _, a := range mask {
		if a > 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 0)

	_, err = LookupFace("comic")
	assert.Error(t, err)
}

func TestFormatClock(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
	got := FormatClock("%H:%M:%S %d/%m/%Y %y %a %b %% %q %", ts)
	assert.Equal(t, "07:08:09 05/03/2024 24 Tue Mar % %q %", got)
	assert.Equal(t, "07:08", FormatClock("%H:%M", ts))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate(Mini, "short", 400))
	assert.Equal(t, "hello world", Truncate(Mini, "hello world", 0))

	got := Truncate(Mini, "hello world", 40)
	assert.Equal(t, "hel...", got)
	assert.LessOrEqual(t, TextWidth(Mini, got), 40)

	assert.Equal(t, "h...", Truncate(Mini, "hello world", 24))

	tests := []struct {
		maxWidth int
		want     string
	}{
		{1, ""},
		{6, "."},
		{10, "."},
		{12, ".."},
		{17, ".."},
		{18, "..."},
	}
	for _, tt := range tests {
		got := Truncate(Mini, "hello world", tt.maxWidth)
		assert.Equal(t, tt.want, got, "maxWidth %d", tt.maxWidth)
		assert.LessOrEqual(t, TextWidth(Mini, got), tt.maxWidth, "maxWidth %d", tt.maxWidth)
	}
	assert.Equal(t, "..", Truncate(Basic, "hello world", 20))
}

func textXs(elems []Element) map[string]int {
	out := map[string]int{}
	for _, e := range elems {
		if txt, ok := e.(Text); ok {
			out[txt.Text] = txt.X
		}
	}
	return out
}

func TestLayout_SpacerFlex(t *testing.T) {
	c := newTestCompositor(t, 1000,
		config.WidgetConfig{Type: config.WidgetText, Text: "AB"},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 1},
		config.WidgetConfig{Type: config.WidgetText, Text: "CD"},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 2},
		config.WidgetConfig{Type: config.WidgetText, Text: "EF"},
	)

	// fixed = 3*12 + 4*8 = 68, leftover = 1000 - 32 - 68 = 900 split 300/600.
	xs := textXs(c.Elements(State{}, "", time.Time{}))
	assert.Equal(t, 16, xs["AB"])
	assert.Equal(t, 344, xs["CD"])
	assert.Equal(t, 972, xs["EF"])
	assert.Equal(t, 1000-SidePadding, xs["EF"]+TextWidth(Mini, "EF"), "last widget ends at the right padding")
}

func TestLayout_ZeroFlexLeavesSpaceUnused(t *testing.T) {
	c := newTestCompositor(t, 1000,
		config.WidgetConfig{Type: config.WidgetText, Text: "AB"},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 0},
		config.WidgetConfig{Type: config.WidgetText, Text: "CD"},
	)
	xs := textXs(c.Elements(State{}, "", time.Time{}))
	assert.Equal(t, 44, xs["CD"])
}

func TestLayout_RemainderGoesToLastSpacer(t *testing.T) {
	c := newTestCompositor(t, 100,
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 1},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 1},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 1},
		config.WidgetConfig{Type: config.WidgetText, Text: "X"},
	)
	// leftover = 100 - 32 - (6 + 3*8) = 38 -> 12, 12, 14.
	xs := textXs(c.Elements(State{}, "", time.Time{}))
	assert.Equal(t, 16+12+8+12+8+14+8, xs["X"])
}

func TestLayout_Workspaces(t *testing.T) {
	c := newTestCompositor(t, 600, config.WidgetConfig{Type: config.WidgetWorkspaces, Display: "numbers"})
	state := State{Workspaces: []WorkspaceState{
		{ID: 1, Name: "1", Active: true, Occupied: true},
		{ID: 2, Name: "2", Occupied: true},
		{ID: 3, Name: "3"},
	}}
	elems := c.Elements(state, "", time.Time{})

	var rects []Rectangle
	var circles []Circle
	var labels []string
	for _, e := range elems[1:] {
		switch v := e.(type) {
		case Rectangle:
			rects = append(rects, v)
		case Circle:
			circles = append(circles, v)
		case Text:
			labels = append(labels, v.Text)
		}
	}

	require.Len(t, rects, 2, "empty workspace has a transparent cell")
	assert.Equal(t, platform.Rect{X: 16, Y: 5, Width: 40, Height: 20}, rects[0].Rect)
	assert.Equal(t, DefaultActiveBackground, rects[0].Color)
	assert.Equal(t, platform.Rect{X: 64, Y: 5, Width: 40, Height: 20}, rects[1].Rect)
	assert.Equal(t, DefaultOccupied, rects[1].Color)

	require.Len(t, circles, 1, "only inactive occupied workspaces get a dot")
	assert.Equal(t, Circle{CX: 96, CY: 17, Radius: 3, Color: DefaultForeground}, circles[0])
	assert.Equal(t, []string{"1", "2", "3"}, labels)
}

func TestLayout_WorkspaceStylesAndLabels(t *testing.T) {
	sheet, err := style.ParseSheet(`
workspace:active { background-color: #ff0000; }
workspace.empty { color: #00ff00; }
`, 0)
	require.NoError(t, err)
	styles := style.NewResolver(sheet.Rules, sheet.Variables, quietLogger())

	cfg := config.BarConfig{Height: 30, Font: "mini", Widgets: []config.WidgetConfig{{Type: config.WidgetWorkspaces, Display: "names"}}}
	c, err := New(cfg, platform.Size{Width: 400, Height: 300}, styles, quietLogger())
	require.NoError(t, err)

	elems := c.Elements(State{Workspaces: []WorkspaceState{
		{ID: 1, Name: "web", Active: true},
		{ID: 2, Name: "terminal"},
	}}, "", time.Time{})

	var texts []Text
	for _, e := range elems {
		switch v := e.(type) {
		case Rectangle:
			if v.Rect.Width == CellWidth {
				assert.Equal(t, style.Color{R: 1, A: 1}, v.Color)
			}
		case Text:
			texts = append(texts, v)
		}
	}
	require.Len(t, texts, 2)
	assert.Equal(t, "web", texts[0].Text)
	assert.Equal(t, "2", texts[1].Text, "long names fall back to the id")
	assert.Equal(t, style.Color{G: 1, A: 1}, texts[1].Color)
}

type fakeRenderer struct {
	next      platform.TextureID
	live      map[platform.TextureID]platform.Size
	updates   int
	lastDmg   []platform.Rect
	destroyed []platform.TextureID
}

func (f *fakeRenderer) CreateTexture(w, h int) (platform.TextureID, error) {
	if f.live == nil {
		f.live = map[platform.TextureID]platform.Size{}
	}
	f.next++
	f.live[f.next] = platform.Size{Width: w, Height: h}
	return f.next, nil
}

func (f *fakeRenderer) UpdateTexture(id platform.TextureID, pix []byte, stride int, damage []platform.Rect) error {
	f.updates++
	f.lastDmg = damage
	return nil
}

func (f *fakeRenderer) DestroyTexture(id platform.TextureID) {
	delete(f.live, id)
	f.destroyed = append(f.destroyed, id)
}

func (f *fakeRenderer) Submit(platform.Frame) error { return nil }

func TestCompositor_TextureLifecycle(t *testing.T) {
	c := newTestCompositor(t, 800,
		config.WidgetConfig{Type: config.WidgetWorkspaces},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 1},
		config.WidgetConfig{Type: config.WidgetWindowTitle, MaxWidth: 200},
		config.WidgetConfig{Type: config.WidgetSpacer, Flex: 1},
		config.WidgetConfig{Type: config.WidgetClock, Format: "%H:%M"},
	)
	r := &fakeRenderer{}
	state := State{Workspaces: []WorkspaceState{{ID: 1, Name: "1", Active: true}, {ID: 2, Name: "2"}}}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, c.Update(state, "editor", now))
	draw, err := c.Present(r)
	require.NoError(t, err)
	assert.Equal(t, platform.Rect{Width: 800, Height: 30}, draw.Target)
	assert.Equal(t, uint64(1), draw.Commit)
	assert.Equal(t, []platform.Rect{{Width: 800, Height: 30}}, draw.Damage)
	assert.Equal(t, platform.Size{Width: 800, Height: 30}, r.live[draw.Texture])

	// Same inputs a few seconds later: nothing to rasterize or upload.
	assert.False(t, c.Update(state, "editor", now.Add(5*time.Second)))
	again, err := c.Present(r)
	require.NoError(t, err)
	assert.Equal(t, draw.Texture, again.Texture)
	assert.Empty(t, again.Damage)
	assert.Equal(t, uint64(1), again.Commit)
	assert.Equal(t, 1, r.updates)
	assert.Equal(t, uint64(1), c.Rasterizations())

	// A new title only damages the title area, and the texture is reused.
	require.True(t, c.Update(state, "browser", now))
	upd, err := c.Present(r)
	require.NoError(t, err)
	assert.Equal(t, draw.Texture, upd.Texture)
	assert.Equal(t, uint64(2), upd.Commit)
	require.NotEmpty(t, upd.Damage)
	for _, d := range upd.Damage {
		assert.Less(t, d.Width, 800, "damage should not cover the whole bar")
	}

	// A height change recreates the texture.
	cfg := c.cfg
	cfg.Height = 40
	require.NoError(t, c.Reconfigure(cfg, platform.Size{Width: 800, Height: 800}, emptyStyles()))
	require.True(t, c.Update(state, "browser", now))
	resized, err := c.Present(r)
	require.NoError(t, err)
	assert.NotEqual(t, draw.Texture, resized.Texture)
	assert.Equal(t, []platform.TextureID{draw.Texture}, r.destroyed)
	assert.Equal(t, platform.Size{Width: 800, Height: 40}, r.live[resized.Texture])
}

func TestCompositor_BottomPositionReserve(t *testing.T) {
	cfg := config.BarConfig{Position: config.BarBottom, Height: 30, Font: "basic"}
	c, err := New(cfg, platform.Size{Width: 1000, Height: 1000}, emptyStyles(), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, platform.Rect{X: 0, Y: 970, Width: 1000, Height: 30}, c.Rect())
	assert.Equal(t, platform.Rect{Width: 1000, Height: 970}, c.Reserve(platform.Rect{Width: 1000, Height: 1000}))

	cfg.Position = config.BarTop
	require.NoError(t, c.Reconfigure(cfg, platform.Size{Width: 1000, Height: 1000}, emptyStyles()))
	assert.Equal(t, platform.Rect{Y: 30, Width: 1000, Height: 970}, c.Reserve(platform.Rect{Width: 1000, Height: 1000}))
}

func TestDamage(t *testing.T) {
	a := []Element{Rectangle{Rect: platform.Rect{Width: 10, Height: 10}}, Text{X: 20, Text: "ab"}}
	b := []Element{Rectangle{Rect: platform.Rect{Width: 10, Height: 10}}, Text{X: 20, Text: "abc"}}
	area := platform.Rect{Width: 100, Height: 10}

	assert.Empty(t, Damage(a, a, Mini, area))
	assert.Equal(t, []platform.Rect{{X: 20, Y: 0, Width: 18, Height: 7}}, Damage(a, b, Mini, area))
}
