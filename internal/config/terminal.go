package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// knownTerminals is the fallback search order when nothing else names a terminal.
var knownTerminals = []string{"foot", "kitty", "ghostty", "wezterm", "alacritty", "gnome-terminal", "konsole", "xterm"}

var (
	execLookPath         = exec.LookPath
	execCommandOutput    = func(name string, args ...string) ([]byte, error) { return exec.Command(name, args...).Output() }
	evalSymlinks         = filepath.EvalSymlinks
	detectSystemTerminal = defaultDetectSystemTerminal
	detectTerminal       = DetectTerminal
)

// DetectTerminal picks a terminal command for the default spawn binding when
// the config does not name one. It tries $TERMINAL, the desktop's default
// terminal and then a list of well-known emulators, returning the first that
// is on PATH, or "" when none is.
func DetectTerminal() string {
	if env := normalizeTerminalRef(os.Getenv("TERMINAL")); env != "" && canSpawn(env) {
		return env
	}
	if sys := normalizeTerminalRef(detectSystemTerminal()); sys != "" && canSpawn(sys) {
		return sys
	}
	for _, exe := range knownTerminals {
		if canSpawn(exe) {
			return exe
		}
	}
	return ""
}

func canSpawn(exe string) bool {
	_, err := execLookPath(exe)
	return err == nil
}

func normalizeTerminalRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	ref = strings.Trim(ref, "\"'")
	if fields := strings.Fields(ref); len(fields) > 0 {
		ref = fields[0]
	}
	ref = strings.Trim(ref, "\"'")

	if strings.Contains(ref, "/") {
		ref = filepath.Base(ref)
	}
	ref = strings.TrimSuffix(ref, ".desktop")

	if ref == "x-terminal-emulator" {
		if resolved := resolveXTerminalEmulator(); resolved != "" {
			ref = resolved
		}
	}
	ref = strings.TrimSuffix(ref, ".wrapper")

	// Desktop ids such as org.wezfurlong.wezterm name the binary last.
	if i := strings.LastIndex(ref, "."); i >= 0 && i < len(ref)-1 {
		if base := strings.ToLower(ref[i+1:]); canSpawn(base) {
			ref = base
		}
	}
	return strings.TrimSpace(ref)
}

func resolveXTerminalEmulator() string {
	path, err := execLookPath("x-terminal-emulator")
	if err != nil {
		return ""
	}
	resolved, err := evalSymlinks(path)
	if err == nil && resolved != "" {
		return filepath.Base(resolved)
	}
	return filepath.Base(path)
}

func defaultDetectSystemTerminal() string {
	if resolved := resolveXTerminalEmulator(); resolved != "" && resolved != "x-terminal-emulator" {
		return resolved
	}

	out, err := execCommandOutput("gsettings", "get",
		"org.gnome.desktop.default-applications.terminal", "exec")
	if err == nil {
		term := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(out)), "\"'"))
		if term != "" {
			return term
		}
	}

	kread := "kreadconfig5"
	if !canSpawn(kread) && canSpawn("kreadconfig6") {
		kread = "kreadconfig6"
	}
	out, err = execCommandOutput(kread, "--group", "General", "--key", "TerminalApplication")
	if err == nil {
		term := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(out)), "\"'"))
		if term != "" {
			return term
		}
	}

	return ""
}
