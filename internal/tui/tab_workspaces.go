package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/ipc"
	"github.com/1broseidon/tessel/internal/workspace"
)

// workspaceItem implements list.Item for the workspace sidebar.
type workspaceItem struct {
	view workspace.View
}

func (i workspaceItem) Title() string {
	prefix := "  "
	if i.view.Active {
		prefix = "* "
	}
	name := i.view.Name
	if name == "" {
		name = fmt.Sprint(i.view.ID)
	}
	return fmt.Sprintf("%s%d:%s [%s] (%d)", prefix, i.view.ID, name, i.view.Layout, len(i.view.Windows))
}

func (i workspaceItem) Description() string { return "" }
func (i workspaceItem) FilterValue() string { return i.view.Name }

// nextLayout cycles tiling, floating, monocle.
func nextLayout(mode config.LayoutMode) config.LayoutMode {
	switch mode {
	case config.LayoutTiling:
		return config.LayoutFloating
	case config.LayoutFloating:
		return config.LayoutMonocle
	default:
		return config.LayoutTiling
	}
}

// WorkspacesTab lists workspaces and previews the active one.
type WorkspacesTab struct {
	list   list.Model
	client Inspector

	data   *ipc.WorkspacesData
	status *ipc.StatusData

	width  int
	height int
	ready  bool
}

// NewWorkspacesTab creates a WorkspacesTab sub-model.
func NewWorkspacesTab(client Inspector) WorkspacesTab {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Workspaces"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return WorkspacesTab{list: l, client: client}
}

// SetData replaces the workspace snapshot, keeping the selection.
func (wt WorkspacesTab) SetData(status *ipc.StatusData, data *ipc.WorkspacesData) WorkspacesTab {
	wt.status = status
	wt.data = data
	if data == nil {
		return wt
	}
	items := make([]list.Item, 0, len(data.Workspaces))
	for _, v := range data.Workspaces {
		items = append(items, workspaceItem{view: v})
	}
	index := wt.list.Index()
	wt.list.SetItems(items)
	if index < len(items) {
		wt.list.Select(index)
	}
	return wt
}

func (wt WorkspacesTab) selected() (workspace.View, bool) {
	item, ok := wt.list.SelectedItem().(workspaceItem)
	if !ok {
		return workspace.View{}, false
	}
	return item.view, true
}

// Update implements tea.Model.
func (wt WorkspacesTab) Update(msg tea.Msg) (WorkspacesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		wt.width = msg.Width
		wt.height = msg.Height
		wt.list.SetSize(wt.sidebarWidth(), max(wt.height-1, 1))
		wt.ready = true
		return wt, nil

	case tea.KeyMsg:
		v, ok := wt.selected()
		switch msg.String() {
		case "enter", "s":
			if !ok {
				return wt, nil
			}
			id := v.ID
			return wt, action(func() error { return wt.client.SwitchWorkspace(id) },
				fmt.Sprintf("switched to workspace %d", id))
		case "l":
			if !ok {
				return wt, nil
			}
			id, next := v.ID, nextLayout(v.Layout)
			return wt, action(func() error { return wt.client.SetLayout(id, string(next)) },
				fmt.Sprintf("workspace %d: %s", id, next))
		}
	}

	var cmd tea.Cmd
	wt.list, cmd = wt.list.Update(msg)
	return wt, cmd
}

func (wt WorkspacesTab) sidebarWidth() int {
	sw := wt.width * 35 / 100
	if sw < 24 {
		sw = 24
	}
	if sw > 44 {
		sw = 44
	}
	return sw
}

// View implements tea.Model.
func (wt WorkspacesTab) View() string {
	if !wt.ready || wt.width == 0 || wt.height == 0 {
		return ""
	}
	if wt.data == nil {
		return renderCentered("waiting for compositor", wt.width, wt.height)
	}

	sidebarWidth := wt.sidebarWidth()
	detailWidth := wt.width - sidebarWidth - 3
	if detailWidth < 10 {
		detailWidth = 10
	}

	sidebar := lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(wt.height - 1).
		Render(wt.list.View())

	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Render(strings.TrimSuffix(strings.Repeat("│\n", wt.height-1), "\n"))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " "+sep+" ", wt.renderDetail(detailWidth))
	keys := dimStyle.Render(" enter/s: switch  l: cycle layout")
	return lipgloss.JoinVertical(lipgloss.Left, columns, keys)
}

func (wt WorkspacesTab) renderDetail(width int) string {
	v, ok := wt.selected()
	if !ok {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Render(fmt.Sprintf("%s  [%s]", v.Name, v.Layout))

	lines := []string{title}
	for _, w := range v.Windows {
		marker := "  "
		if w.Focused {
			marker = "> "
		}
		flags := ""
		if w.Floating {
			flags += " floating"
		}
		if w.Sticky {
			flags += " sticky"
		}
		lines = append(lines, fmt.Sprintf("%s%d %s %q%s", marker, w.ID, w.AppID, w.Title, dimStyle.Render(flags)))
	}
	if len(v.Windows) == 0 {
		lines = append(lines, dimStyle.Render("  (empty)"))
	}

	previewHeight := wt.height - len(lines) - 2
	if v.Active && wt.status != nil && previewHeight >= 3 {
		tiles := make([]tile, 0, len(v.Windows))
		for _, w := range v.Windows {
			if r, ok := wt.data.Geometry[uint32(w.ID)]; ok {
				tiles = append(tiles, tile{rect: r, label: w.AppID})
			}
		}
		preview := renderASCIIPreview(tiles, wt.status.OutputWidth, wt.status.OutputHeight, width, previewHeight)
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("247")).Render(strings.Join(preview, "\n")))
	}
	return strings.Join(lines, "\n")
}
