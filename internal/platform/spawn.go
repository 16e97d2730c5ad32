package platform

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// ExecSpawner runs commands through /bin/sh in their own process group.
// Spawn returns once the process has started; exit status is only logged.
type ExecSpawner struct {
	Shell  string
	Env    []string
	Logger *slog.Logger
}

// NewExecSpawner returns a spawner using $SHELL-independent /bin/sh.
func NewExecSpawner(logger *slog.Logger) *ExecSpawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSpawner{Shell: "/bin/sh", Logger: logger}
}

func (s *ExecSpawner) Spawn(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("%w: empty command", ErrSpawnFailure)
	}
	cmd := exec.Command(s.Shell, "-c", command)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSpawnFailure, command, err)
	}
	pid := cmd.Process.Pid
	s.Logger.Debug("spawned process", "command", command, "pid", pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			s.Logger.Debug("spawned process exited", "command", command, "pid", pid, "error", err)
		}
	}()
	return nil
}
