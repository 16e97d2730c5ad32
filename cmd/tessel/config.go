package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/shell"
	"github.com/1broseidon/tessel/internal/x11"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and inspect the configuration",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without starting the compositor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		res, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		if err := shell.Validate(res.Config); err != nil {
			return err
		}
		rules := 0
		if res.Styles != nil {
			rules = len(res.Styles.Rules)
		}
		fmt.Printf("OK: %s (%d workspaces, %d keybindings, %d style rules)\n",
			path, len(res.Config.Workspaces), len(res.Config.Keybindings), rules)
		return nil
	},
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, _ := cmd.Flags().GetBool("defaults")
		cfg := config.DefaultConfig()
		if !defaults {
			res, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = res.Config
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cfg)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <yaml.path>",
	Short: "Show a config value and where it was set",
	Example: `  tessel config explain layout.gaps.outer
  tessel config explain workspaces[2].layout
  tessel config explain bar.widgets[0]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		value, src, err := config.Explain(res, args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		fmt.Printf("path: %s\n", args[0])
		fmt.Printf("source: %s\n", src)
		fmt.Printf("value:\n%s", string(out))
		return nil
	},
}

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List X11 monitors usable as the output size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := x11.NewConnection()
		if err != nil {
			return fmt.Errorf("failed to connect to X11: %w", err)
		}
		defer conn.Close()

		monitors, err := conn.Monitors()
		if err != nil {
			return err
		}
		return printJSON(monitors)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateCmd, printCmd, explainCmd, outputsCmd)
	printCmd.Flags().Bool("defaults", false, "Print built-in defaults instead of the loaded file")
	printCmd.Flags().Bool("json", false, "Print as JSON instead of YAML")
}
