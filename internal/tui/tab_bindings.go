package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tessel/internal/ipc"
)

// bindingItem implements list.Item for the keybinding list.
type bindingItem struct {
	binding ipc.BindingInfo
}

func (i bindingItem) Title() string {
	return fmt.Sprintf("%-22s %s", i.binding.Combo, i.binding.Action)
}
func (i bindingItem) Description() string { return "" }
func (i bindingItem) FilterValue() string { return i.binding.Combo + " " + i.binding.Action }

// keyEntry holds the form-bound value; it lives on the heap so the form's
// pointer survives model copies.
type keyEntry struct {
	keys string
}

// BindingsTab lists keybindings and injects key presses.
type BindingsTab struct {
	list   list.Model
	client Inspector

	editing bool
	form    *huh.Form
	entry   *keyEntry

	width  int
	height int
}

// NewBindingsTab creates a BindingsTab sub-model.
func NewBindingsTab(client Inspector) BindingsTab {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Keybindings"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return BindingsTab{list: l, client: client}
}

// SetData replaces the binding table.
func (bt BindingsTab) SetData(data *ipc.BindingsData) BindingsTab {
	if data == nil || bt.list.FilterState() == list.Filtering {
		return bt
	}
	items := make([]list.Item, 0, len(data.Bindings))
	for _, b := range data.Bindings {
		items = append(items, bindingItem{binding: b})
	}
	bt.list.SetItems(items)
	return bt
}

func dispatch(client Inspector, keys string) tea.Cmd {
	return func() tea.Msg {
		result, err := client.DispatchKey(keys)
		if err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: fmt.Sprintf("%s: %s", keys, result), refresh: true}
	}
}

// Update implements tea.Model.
func (bt BindingsTab) Update(msg tea.Msg) (BindingsTab, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		bt.width = ws.Width
		bt.height = ws.Height
		bt.list.SetSize(bt.width, max(bt.height-1, 1))
		if bt.editing {
			return bt.updateEditing(ws)
		}
		return bt, nil
	}
	if bt.editing {
		return bt.updateEditing(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && bt.list.FilterState() != list.Filtering {
		switch km.String() {
		case "enter":
			item, ok := bt.list.SelectedItem().(bindingItem)
			if !ok {
				return bt, nil
			}
			return bt, dispatch(bt.client, item.binding.Combo)
		case "x":
			bt.startEditing()
			return bt, bt.form.Init()
		}
	}

	var cmd tea.Cmd
	bt.list, cmd = bt.list.Update(msg)
	return bt, cmd
}

func (bt *BindingsTab) startEditing() {
	bt.entry = &keyEntry{}
	bt.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Key combination").
				Description("Binding syntax, e.g. Super+Shift+3").
				Value(&bt.entry.keys).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)
	bt.editing = true
}

func (bt BindingsTab) updateEditing(msg tea.Msg) (BindingsTab, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		bt.editing = false
		bt.form = nil
		return bt, nil
	}

	form, cmd := bt.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		bt.form = f
	}

	switch bt.form.State {
	case huh.StateCompleted:
		keys := strings.TrimSpace(bt.entry.keys)
		bt.editing = false
		bt.form = nil
		return bt, dispatch(bt.client, keys)
	case huh.StateAborted:
		bt.editing = false
		bt.form = nil
		return bt, nil
	}
	return bt, cmd
}

// View implements tea.Model.
func (bt BindingsTab) View() string {
	if bt.width == 0 || bt.height == 0 {
		return ""
	}
	if bt.editing && bt.form != nil {
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Send keys") + dimStyle.Render("  (esc to cancel)")
		return lipgloss.NewStyle().
			Width(bt.width).
			Height(bt.height).
			Padding(1, 2).
			Render(header + "\n\n" + bt.form.View())
	}
	keys := dimStyle.Render(" enter: run binding  x: send keys  /: filter")
	return lipgloss.JoinVertical(lipgloss.Left, bt.list.View(), keys)
}
