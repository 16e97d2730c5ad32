package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tessel/internal/script"
)

const maxCallbackHistory = 200

// drainedMsg carries invocations removed from the compositor queue.
type drainedMsg struct {
	invocations []script.Invocation
	err         error
}

// CallbacksTab drains and shows queued script callback invocations.
type CallbacksTab struct {
	client  Inspector
	history []script.Invocation

	width  int
	height int
}

// NewCallbacksTab creates a CallbacksTab sub-model.
func NewCallbacksTab(client Inspector) CallbacksTab {
	return CallbacksTab{client: client}
}

func drain(client Inspector) tea.Cmd {
	return func() tea.Msg {
		data, err := client.DrainCallbacks()
		if err != nil {
			return drainedMsg{err: err}
		}
		return drainedMsg{invocations: data.Invocations}
	}
}

// Update implements tea.Model.
func (ct CallbacksTab) Update(msg tea.Msg) (CallbacksTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ct.width = msg.Width
		ct.height = msg.Height
	case drainedMsg:
		if msg.err != nil {
			return ct, func() tea.Msg { return statusMsg{err: msg.err} }
		}
		ct.history = append(ct.history, msg.invocations...)
		if over := len(ct.history) - maxCallbackHistory; over > 0 {
			ct.history = ct.history[over:]
		}
		n := len(msg.invocations)
		return ct, func() tea.Msg { return statusMsg{text: fmt.Sprintf("drained %d callbacks", n), refresh: true} }
	case tea.KeyMsg:
		switch msg.String() {
		case "d":
			return ct, drain(ct.client)
		case "c":
			ct.history = nil
		}
	}
	return ct, nil
}

// View implements tea.Model.
func (ct CallbacksTab) View() string {
	if ct.width == 0 || ct.height == 0 {
		return ""
	}
	rows := ct.height - 2
	if rows < 1 {
		rows = 1
	}

	var lines []string
	if len(ct.history) == 0 {
		lines = append(lines, dimStyle.Render("no callbacks drained yet"))
	}
	start := 0
	if len(ct.history) > rows {
		start = len(ct.history) - rows
	}
	for _, inv := range ct.history[start:] {
		lines = append(lines, inv.String())
	}

	body := lipgloss.NewStyle().
		Width(ct.width).
		Height(ct.height-1).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, body, dimStyle.Render(" d: drain queue  c: clear"))
}
