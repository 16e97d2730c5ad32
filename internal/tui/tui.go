// Package tui is an interactive inspector for a running compositor. It
// talks to the compositor over the IPC control socket only.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/tessel/internal/ipc"
)

// Inspector is the subset of the IPC client the inspector uses.
type Inspector interface {
	GetStatus() (*ipc.StatusData, error)
	ListWorkspaces() (*ipc.WorkspacesData, error)
	ListBindings() (*ipc.BindingsData, error)
	SwitchWorkspace(workspace int) error
	SetLayout(workspace int, layout string) error
	DispatchKey(keys string) (string, error)
	ResolveStyle(kind, state string, classes []string) (map[string]string, error)
	DrainCallbacks() (*ipc.CallbacksData, error)
	Reload() error
}

// Run starts the inspector and blocks until the user quits.
func Run(client Inspector) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("inspect requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
