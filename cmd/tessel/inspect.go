package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/tessel/internal/tui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Interactive inspector for a running compositor",
	Long: `Open a terminal UI that shows workspaces with a layout preview, the
keybinding table, style resolution and queued callbacks of a running
compositor. Data refreshes every second.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(newClient(cmd))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
