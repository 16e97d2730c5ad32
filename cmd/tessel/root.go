package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/ipc"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "tessel",
	Short: "Tiling compositor shell with a styled status bar",
	Long: `tessel arranges windows into numbered workspaces, dispatches keybindings,
resolves CSS-like styles and composites a status bar, one frame per tick.

Run "tessel run" to start the compositor; the other commands talk to a
running instance over its control socket.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $XDG_CONFIG_HOME/tessel/config.yaml)")
	rootCmd.PersistentFlags().String("socket", "", "Control socket path (default: $TESSEL_SOCKET or the runtime dir)")
}

// configPath returns --config or the default location.
func configPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return path, nil
	}
	return config.DefaultConfigPath()
}

func loadConfig(cmd *cobra.Command) (*config.LoadResult, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromPath(path)
	}
	return config.LoadWithSources()
}

func newClient(cmd *cobra.Command) *ipc.Client {
	if socket, _ := cmd.Flags().GetString("socket"); socket != "" {
		return ipc.NewClientAt(socket)
	}
	return ipc.NewClient()
}
