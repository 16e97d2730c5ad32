package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tessel/internal/ipc"
)

// Tab identifies a TUI tab.
type Tab int

const (
	TabWorkspaces Tab = iota
	TabBindings
	TabStyles
	TabCallbacks
	tabCount // sentinel for iteration
)

func (t Tab) String() string {
	switch t {
	case TabWorkspaces:
		return "Workspaces"
	case TabBindings:
		return "Bindings"
	case TabStyles:
		return "Styles"
	case TabCallbacks:
		return "Callbacks"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// renderTabBar renders the tab bar with the given active tab and width.
func renderTabBar(active Tab, width int) string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		label := fmt.Sprintf("%d:%s", int(i)+1, i)
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

// renderStatusBar renders the compositor connection status line.
func renderStatusBar(status *ipc.StatusData, err error, width int) string {
	var line string
	if status != nil && err == nil {
		dot := okStyle.Render("●")
		parts := []string{
			dot + " connected",
			fmt.Sprintf("workspace %d/%d", status.ActiveWorkspace, status.Workspaces),
			fmt.Sprintf("windows %d", status.Windows),
			fmt.Sprintf("frames %d", status.Frames),
		}
		if status.PendingCallbacks > 0 {
			parts = append(parts, fmt.Sprintf("callbacks %d", status.PendingCallbacks))
		}
		if status.DroppedCallbacks > 0 {
			parts = append(parts, fmt.Sprintf("dropped %d", status.DroppedCallbacks))
		}
		if status.FocusedTitle != "" {
			parts = append(parts, "focused: "+status.FocusedTitle)
		}
		line = strings.Join(parts, "  ")
	} else {
		dot := dimStyle.Render("●")
		line = dot + " compositor not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(line)
}

// renderHelpBar renders the bottom help line, with a transient message on the left.
func renderHelpBar(message string, isErr bool, width int) string {
	help := dimStyle.Render("tab: switch  1-4: jump  r: reload config  q: quit")
	left := ""
	if message != "" {
		if isErr {
			left = errStyle.Render(message)
		} else {
			left = okStyle.Render(message)
		}
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(help) - 2
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + help)
}

// renderCentered renders msg centered in a width x height box.
func renderCentered(msg string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Foreground(lipgloss.Color("241")).
		Align(lipgloss.Center, lipgloss.Center).
		Render(msg)
}
