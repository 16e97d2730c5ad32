package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// styleQuery holds the form-bound query fields.
type styleQuery struct {
	kind    string
	state   string
	classes string
}

func (q styleQuery) classList() []string {
	return strings.Fields(strings.ReplaceAll(q.classes, ",", " "))
}

func (q styleQuery) String() string {
	var sb strings.Builder
	sb.WriteString(q.kind)
	for _, c := range q.classList() {
		sb.WriteString("." + c)
	}
	if q.state != "" {
		sb.WriteString(":" + q.state)
	}
	return sb.String()
}

// styleResultMsg carries resolved properties for a query.
type styleResultMsg struct {
	query styleQuery
	props map[string]string
	err   error
}

var elementKinds = []string{"desktop", "window", "bar", "workspace", "clock", "window-title", "text"}

// StylesTab queries the compositor's style resolver.
type StylesTab struct {
	client Inspector

	editing bool
	form    *huh.Form
	query   *styleQuery

	last  styleQuery
	props map[string]string
	err   error

	width  int
	height int
}

// NewStylesTab creates a StylesTab sub-model.
func NewStylesTab(client Inspector) StylesTab {
	return StylesTab{client: client, query: &styleQuery{kind: "window"}}
}

// Update implements tea.Model.
func (st StylesTab) Update(msg tea.Msg) (StylesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		st.width = msg.Width
		st.height = msg.Height
		if st.editing {
			return st.updateEditing(msg)
		}
		return st, nil
	case styleResultMsg:
		st.last = msg.query
		st.props = msg.props
		st.err = msg.err
		return st, nil
	}

	if st.editing {
		return st.updateEditing(msg)
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "e" {
		st.startEditing()
		return st, st.form.Init()
	}
	return st, nil
}

func (st *StylesTab) startEditing() {
	q := *st.query
	st.query = &q

	opts := make([]huh.Option[string], 0, len(elementKinds))
	for _, k := range elementKinds {
		opts = append(opts, huh.NewOption(k, k))
	}
	st.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Element").
				Options(opts...).
				Value(&st.query.kind),
			huh.NewInput().
				Title("State").
				Description("Pseudo-state, e.g. focus or active (optional)").
				Value(&st.query.state),
			huh.NewInput().
				Title("Classes").
				Description("Space or comma separated (optional)").
				Value(&st.query.classes),
		),
	).WithShowHelp(false)
	st.editing = true
}

func (st StylesTab) updateEditing(msg tea.Msg) (StylesTab, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		st.editing = false
		st.form = nil
		return st, nil
	}

	form, cmd := st.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		st.form = f
	}

	switch st.form.State {
	case huh.StateCompleted:
		st.editing = false
		st.form = nil
		return st, resolve(st.client, *st.query)
	case huh.StateAborted:
		st.editing = false
		st.form = nil
		return st, nil
	}
	return st, cmd
}

func resolve(client Inspector, q styleQuery) tea.Cmd {
	return func() tea.Msg {
		props, err := client.ResolveStyle(q.kind, strings.TrimSpace(q.state), q.classList())
		return styleResultMsg{query: q, props: props, err: err}
	}
}

// View implements tea.Model.
func (st StylesTab) View() string {
	if st.width == 0 || st.height == 0 {
		return ""
	}
	box := lipgloss.NewStyle().
		Width(st.width).
		Height(st.height).
		Padding(1, 2)

	if st.editing && st.form != nil {
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Resolve style") + dimStyle.Render("  (esc to cancel)")
		return box.Render(header + "\n\n" + st.form.View())
	}

	if st.last.kind == "" {
		return box.Render(dimStyle.Render("Press 'e' to resolve an element's style"))
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(st.last.String()),
		"",
	}
	switch {
	case st.err != nil:
		lines = append(lines, errStyle.Render(st.err.Error()))
	case len(st.props) == 0:
		lines = append(lines, dimStyle.Render("no matching rules"))
	default:
		names := make([]string, 0, len(st.props))
		for name := range st.props {
			names = append(names, name)
		}
		sort.Strings(names)
		label := lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(22).
			Align(lipgloss.Right).
			PaddingRight(2)
		for _, name := range names {
			lines = append(lines, label.Render(name)+st.props[name])
		}
	}
	lines = append(lines, "", dimStyle.Render(fmt.Sprintf("%d properties  e: new query", len(st.props))))
	return box.Render(strings.Join(lines, "\n"))
}
