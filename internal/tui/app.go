package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tessel/internal/ipc"
)

const refreshInterval = time.Second

// snapshotMsg carries a fresh read of compositor state.
type snapshotMsg struct {
	status   *ipc.StatusData
	spaces   *ipc.WorkspacesData
	bindings *ipc.BindingsData
	err      error
}

type tickMsg time.Time

// statusMsg reports the outcome of an action; refresh asks for a new snapshot.
type statusMsg struct {
	text    string
	err     error
	refresh bool
}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{ seq int }

func fetch(client Inspector) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		spaces, err := client.ListWorkspaces()
		if err != nil {
			return snapshotMsg{err: err}
		}
		bindings, err := client.ListBindings()
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{status: status, spaces: spaces, bindings: bindings}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// action runs fn against the compositor and reports ok on success.
func action(fn func() error, ok string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: ok, refresh: true}
	}
}

// model is the root bubbletea model for the inspector.
type model struct {
	client Inspector

	activeTab Tab

	workspacesTab WorkspacesTab
	bindingsTab   BindingsTab
	stylesTab     StylesTab
	callbacksTab  CallbacksTab

	status  *ipc.StatusData
	lastErr error

	message      string
	messageIsErr bool
	seq          int

	width  int
	height int
}

func newModel(client Inspector) model {
	return model{
		client:        client,
		activeTab:     TabWorkspaces,
		workspacesTab: NewWorkspacesTab(client),
		bindingsTab:   NewBindingsTab(client),
		stylesTab:     NewStylesTab(client),
		callbacksTab:  NewCallbacksTab(client),
	}
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(fetch(m.client), tick())
}

func (m model) capturing() bool {
	return (m.activeTab == TabBindings && (m.bindingsTab.editing || m.bindingsTab.list.FilterState() == list.Filtering)) ||
		(m.activeTab == TabStyles && m.stylesTab.editing)
}

// resize passes the content area to every tab, so tabs that are not visible
// are laid out before they are selected.
func (m model) resize(msg tea.WindowSizeMsg) (model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	cmds := make([]tea.Cmd, 4)
	m.workspacesTab, cmds[0] = m.workspacesTab.Update(sub)
	m.bindingsTab, cmds[1] = m.bindingsTab.Update(sub)
	m.stylesTab, cmds[2] = m.stylesTab.Update(sub)
	m.callbacksTab, cmds[3] = m.callbacksTab.Update(sub)
	return m, tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg)

	case tickMsg:
		return m, tea.Batch(fetch(m.client), tick())

	case snapshotMsg:
		m.lastErr = msg.err
		if msg.err != nil {
			m.status = nil
			return m, nil
		}
		m.status = msg.status
		m.workspacesTab = m.workspacesTab.SetData(msg.status, msg.spaces)
		m.bindingsTab = m.bindingsTab.SetData(msg.bindings)
		return m, nil

	case statusMsg:
		m.seq++
		seq := m.seq
		if msg.err != nil {
			m.message = fmt.Sprintf("error: %v", msg.err)
			m.messageIsErr = true
		} else {
			m.message = msg.text
			m.messageIsErr = false
		}
		cmds := []tea.Cmd{tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{seq: seq}
		})}
		if msg.refresh {
			cmds = append(cmds, fetch(m.client))
		}
		return m, tea.Batch(cmds...)

	case styleResultMsg:
		var cmd tea.Cmd
		m.stylesTab, cmd = m.stylesTab.Update(msg)
		return m, cmd

	case drainedMsg:
		var cmd tea.Cmd
		m.callbacksTab, cmd = m.callbacksTab.Update(msg)
		return m, cmd

	case clearStatusMsg:
		if msg.seq == m.seq {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.capturing() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "tab":
				m.activeTab = (m.activeTab + 1) % tabCount
				return m, nil
			case "shift+tab":
				m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
				return m, nil
			case "1", "2", "3", "4":
				m.activeTab = Tab(msg.String()[0] - '1')
				return m, nil
			case "r":
				return m, action(m.client.Reload, "configuration reloaded")
			}
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabWorkspaces:
		m.workspacesTab, cmd = m.workspacesTab.Update(msg)
	case TabBindings:
		m.bindingsTab, cmd = m.bindingsTab.Update(msg)
	case TabStyles:
		m.stylesTab, cmd = m.stylesTab.Update(msg)
	case TabCallbacks:
		m.callbacksTab, cmd = m.callbacksTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.lastErr, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.message, m.messageIsErr, m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case m.lastErr != nil && m.activeTab != TabCallbacks:
		content = renderCentered(m.lastErr.Error(), m.width, contentHeight)
	case m.activeTab == TabWorkspaces:
		content = m.workspacesTab.View()
	case m.activeTab == TabBindings:
		content = m.bindingsTab.View()
	case m.activeTab == TabStyles:
		content = m.stylesTab.View()
	case m.activeTab == TabCallbacks:
		content = m.callbacksTab.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
