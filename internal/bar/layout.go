package bar

import (
	"strconv"
	"time"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/style"
	"github.com/1broseidon/tessel/internal/workspace"
)

// Layout constants in pixels.
const (
	SidePadding   = 16
	WidgetSpacing = 8
	CellWidth     = 40
	CellHeight    = 20
	CellSpacing   = 8
	DotRadius     = 3
	DotInset      = 8
	Ellipsis      = "..."
)

// Fallback colours used when no style rule supplies one.
var (
	DefaultBackground       = style.Color{R: 0.11, G: 0.11, B: 0.18, A: 0.95}
	DefaultForeground       = style.Color{R: 0.8, G: 0.83, B: 0.96, A: 1}
	DefaultActiveBackground = style.Color{R: 0.54, G: 0.71, B: 0.98, A: 1}
	DefaultActiveForeground = style.Color{R: 0.11, G: 0.11, B: 0.18, A: 1}
	DefaultOccupied         = style.Color{R: 0.19, G: 0.20, B: 0.27, A: 1}
)

// WorkspaceState is what the workspace indicator needs per workspace.
type WorkspaceState struct {
	ID       int
	Name     string
	Active   bool
	Occupied bool
}

// State is the workspace snapshot a bar renders.
type State struct {
	Workspaces []WorkspaceState
}

// StateFromViews summarizes manager views.
func StateFromViews(views []workspace.View) State {
	s := State{Workspaces: make([]WorkspaceState, 0, len(views))}
	for _, v := range views {
		s.Workspaces = append(s.Workspaces, WorkspaceState{
			ID:       v.ID,
			Name:     v.Name,
			Active:   v.Active,
			Occupied: len(v.Windows) > 0,
		})
	}
	return s
}

// Styler resolves visual attributes for bar elements.
type Styler interface {
	Resolve(kind, state string, classes []string) style.Resolved
}

type placed struct {
	widget config.WidgetConfig
	x      int
	width  int
	text   string // title, clock or label after formatting and truncation
}

// Elements lays the widgets out left to right and returns the primitives to
// draw, in paint order, in bar-local coordinates.
func (c *Compositor) Elements(state State, title string, now time.Time) []Element {
	w, h := c.size.Width, c.size.Height
	barStyle := c.styles.Resolve("bar", "", classList(c.cfg.Class))
	fg := barStyle.ColorOr("color", DefaultForeground)

	elems := []Element{Rectangle{
		Rect:  platform.Rect{Width: w, Height: h},
		Color: barStyle.ColorOr("background-color", DefaultBackground),
	}}

	textY := (h - c.face.Height()) / 2
	cellY := (h - CellHeight) / 2

	for _, p := range c.place(state, title, now) {
		switch p.widget.Type {
		case config.WidgetWorkspaces:
			elems = c.appendWorkspaces(elems, p, state, cellY, fg)
		case config.WidgetWindowTitle:
			if p.text == "" {
				continue
			}
			rs := c.styles.Resolve("window-title", "", classList(p.widget.Class))
			elems = append(elems, Text{X: p.x, Y: textY, Text: p.text, Color: rs.ColorOr("color", fg)})
		case config.WidgetClock:
			rs := c.styles.Resolve("clock", "", classList(p.widget.Class))
			elems = append(elems, Text{X: p.x, Y: textY, Text: p.text, Color: rs.ColorOr("color", fg)})
		case config.WidgetText:
			if p.text == "" {
				continue
			}
			rs := c.styles.Resolve("text", "", classList(p.widget.Class))
			elems = append(elems, Text{X: p.x, Y: textY, Text: p.text, Color: rs.ColorOr("color", fg)})
		}
	}
	return elems
}

// place measures every widget and assigns x positions. Spacers split the
// leftover width by flex factor in whole pixels; the last spacer takes the
// remainder. With a total flex of 0 the leftover stays unused at the end.
func (c *Compositor) place(state State, title string, now time.Time) []placed {
	out := make([]placed, len(c.cfg.Widgets))
	fixed, flex, lastSpacer := 0, 0, -1
	for i, wc := range c.cfg.Widgets {
		p := placed{widget: wc}
		switch wc.Type {
		case config.WidgetWorkspaces:
			if n := len(state.Workspaces); n > 0 {
				p.width = n*CellWidth + (n-1)*CellSpacing
			}
		case config.WidgetWindowTitle:
			p.text = Truncate(c.face, title, wc.MaxWidth)
			p.width = TextWidth(c.face, p.text)
		case config.WidgetClock:
			p.text = FormatClock(wc.Format, now)
			p.width = TextWidth(c.face, p.text)
		case config.WidgetText:
			p.text = wc.Text
			p.width = TextWidth(c.face, p.text)
		case config.WidgetSpacer:
			if wc.Flex > 0 {
				flex += wc.Flex
				lastSpacer = i
			}
		}
		fixed += p.width
		out[i] = p
	}
	if len(out) > 1 {
		fixed += (len(out) - 1) * WidgetSpacing
	}

	leftover := max(c.size.Width-2*SidePadding-fixed, 0)
	if flex > 0 {
		given := 0
		for i := range out {
			if out[i].widget.Type != config.WidgetSpacer || out[i].widget.Flex <= 0 {
				continue
			}
			share := leftover * out[i].widget.Flex / flex
			if i == lastSpacer {
				share = leftover - given
			}
			out[i].width = share
			given += share
		}
	}

	x := SidePadding
	for i := range out {
		out[i].x = x
		x += out[i].width + WidgetSpacing
	}
	return out
}

func (c *Compositor) appendWorkspaces(elems []Element, p placed, state State, y int, barFg style.Color) []Element {
	x := p.x
	for _, ws := range state.Workspaces {
		pseudo := ""
		if ws.Active {
			pseudo = "active"
		}
		occupancy := "empty"
		if ws.Occupied {
			occupancy = "occupied"
		}
		rs := c.styles.Resolve("workspace", pseudo, classList(p.widget.Class, occupancy))

		bg := style.Transparent
		fg := barFg
		switch {
		case ws.Active:
			bg, fg = DefaultActiveBackground, DefaultActiveForeground
		case ws.Occupied:
			bg = DefaultOccupied
		}
		bg = rs.ColorOr("background-color", bg)
		fg = rs.ColorOr("color", fg)

		cell := platform.Rect{X: x, Y: y, Width: CellWidth, Height: CellHeight}
		if bg.A > 0 {
			elems = append(elems, Rectangle{Rect: cell, Color: bg})
		}
		if label := workspaceLabel(ws, p.widget.Display); label != "" {
			elems = append(elems, Text{
				X:     x + (CellWidth-TextWidth(c.face, label))/2,
				Y:     y + (CellHeight-c.face.Height())/2,
				Text:  label,
				Color: fg,
			})
		}
		if ws.Occupied && !ws.Active {
			elems = append(elems, Circle{
				CX:     x + CellWidth - DotInset,
				CY:     y + CellHeight - DotInset,
				Radius: DotRadius,
				Color:  rs.ColorOr("dot-color", barFg),
			})
		}
		x += CellWidth + CellSpacing
	}
	return elems
}

func workspaceLabel(ws WorkspaceState, display string) string {
	switch display {
	case "none":
		return ""
	case "names":
		if ws.Name != "" && len([]rune(ws.Name)) <= 3 {
			return ws.Name
		}
	}
	return strconv.Itoa(ws.ID)
}

// Truncate shortens s to at most maxWidth pixels of face, ending in "..."
// when anything was cut. maxWidth <= 0 means unlimited. When not even the
// ellipsis fits, only as many of its dots as fit are returned.
func Truncate(face Face, s string, maxWidth int) string {
	if maxWidth <= 0 || TextWidth(face, s) <= maxWidth {
		return s
	}
	if maxWidth < TextWidth(face, Ellipsis) {
		return Ellipsis[:maxWidth/face.Advance()]
	}
	keep := (maxWidth - TextWidth(face, Ellipsis)) / face.Advance()
	runes := []rune(s)
	return string(runes[:keep]) + Ellipsis
}

func classList(classes ...string) []string {
	out := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
