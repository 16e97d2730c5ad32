package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tessel/internal/ipc"
)

var msgCmd = &cobra.Command{
	Use:   "msg",
	Short: "Send a command to the running compositor",
	Long: `Send a command to the running compositor over its control socket.

Examples:
  tessel msg status
  tessel msg switch 3
  tessel msg key Super+Shift+2
  tessel msg map 42 firefox --title "Mozilla Firefox"
  tessel msg style window --state focus --class floating`,
}

func init() {
	rootCmd.AddCommand(msgCmd)
	msgCmd.PersistentFlags().Bool("json", false, "Print the raw reply as JSON")

	msgCmd.AddCommand(
		&cobra.Command{Use: "status", Short: "Show compositor status", Args: cobra.NoArgs, RunE: runMsgStatus},
		&cobra.Command{Use: "workspaces", Short: "List workspaces and their windows", Args: cobra.NoArgs, RunE: runMsgWorkspaces},
		&cobra.Command{Use: "bindings", Short: "List active keybindings", Args: cobra.NoArgs, RunE: runMsgBindings},
		&cobra.Command{Use: "switch <workspace>", Short: "Activate a workspace", Args: cobra.ExactArgs(1), RunE: runMsgSwitch},
		&cobra.Command{Use: "move <window> <workspace>", Short: "Move a window to another workspace", Args: cobra.ExactArgs(2), RunE: runMsgMove},
		&cobra.Command{Use: "focus <window>", Short: "Focus a window and activate its workspace", Args: cobra.ExactArgs(1), RunE: runMsgFocus},
		&cobra.Command{Use: "key <combo>", Short: "Dispatch a key combination", Args: cobra.ExactArgs(1), RunE: runMsgKey},
		&cobra.Command{Use: "unmap <window>", Short: "Stop managing a window", Args: cobra.ExactArgs(1), RunE: runMsgUnmap},
		&cobra.Command{Use: "title <window> <title>", Short: "Change a window title", Args: cobra.ExactArgs(2), RunE: runMsgTitle},
		&cobra.Command{Use: "resize <window> <width>x<height>", Short: "Set the size a window keeps while floating", Args: cobra.ExactArgs(2), RunE: runMsgResize},
		&cobra.Command{Use: "callbacks", Short: "Drain pending callback invocations", Args: cobra.NoArgs, RunE: runMsgCallbacks},
		&cobra.Command{Use: "snapshot [path]", Short: "Save the last frame as PNG", Args: cobra.MaximumNArgs(1), RunE: runMsgSnapshot},
		&cobra.Command{Use: "reload", Short: "Reload the configuration", Args: cobra.NoArgs, RunE: runMsgReload},
		msgLayoutCmd,
		msgMapCmd,
		msgStyleCmd,
	)

	msgLayoutCmd.Flags().Int("workspace", 0, "Workspace id (default: active)")
	msgMapCmd.Flags().String("title", "", "Window title")
	msgMapCmd.Flags().Int("pid", 0, "Client process id")
	msgMapCmd.Flags().String("size", "", "Requested floating size, e.g. 640x480")
	msgStyleCmd.Flags().String("state", "", "Pseudo-state, e.g. focus or active")
	msgStyleCmd.Flags().StringSlice("class", nil, "Class names (repeatable)")
}

var msgLayoutCmd = &cobra.Command{
	Use:   "layout <tiling|floating|monocle>",
	Short: "Set a workspace layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _ := cmd.Flags().GetInt("workspace")
		if err := newClient(cmd).SetLayout(ws, args[0]); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

var msgMapCmd = &cobra.Command{
	Use:   "map <window> <app-id>",
	Short: "Start managing a window",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		pid, _ := cmd.Flags().GetInt("pid")
		p := ipc.MapWindowPayload{Window: id, PID: pid, AppID: args[1], Title: title}
		if size, _ := cmd.Flags().GetString("size"); size != "" {
			if p.Width, p.Height, err = parseSize(size); err != nil {
				return err
			}
		}
		if err := newClient(cmd).MapWindow(p); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

var msgStyleCmd = &cobra.Command{
	Use:   "style <kind>",
	Short: "Resolve the style of an element",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, _ := cmd.Flags().GetString("state")
		classes, _ := cmd.Flags().GetStringSlice("class")
		props, err := newClient(cmd).ResolveStyle(args[0], state, classes)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(props)
		}
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s: %s\n", name, props[name])
		}
		return nil
	},
}

func runMsgStatus(cmd *cobra.Command, args []string) error {
	status, err := newClient(cmd).GetStatus()
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(status)
	}
	fmt.Printf("active_workspace:  %d/%d\n", status.ActiveWorkspace, status.Workspaces)
	fmt.Printf("windows:           %d\n", status.Windows)
	if status.FocusedWindow != 0 {
		fmt.Printf("focused:           %d %q\n", status.FocusedWindow, status.FocusedTitle)
	}
	fmt.Printf("output:            %dx%d\n", status.OutputWidth, status.OutputHeight)
	fmt.Printf("bindings:          %d\n", status.Bindings)
	fmt.Printf("frames:            %d\n", status.Frames)
	fmt.Printf("pending_callbacks: %d\n", status.PendingCallbacks)
	if status.DroppedCallbacks > 0 {
		fmt.Printf("dropped_callbacks: %d\n", status.DroppedCallbacks)
	}
	fmt.Printf("uptime_seconds:    %d\n", status.UptimeSeconds)
	return nil
}

func runMsgWorkspaces(cmd *cobra.Command, args []string) error {
	data, err := newClient(cmd).ListWorkspaces()
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(data)
	}
	for _, ws := range data.Workspaces {
		marker := " "
		if ws.Active {
			marker = "*"
		}
		fmt.Printf("%s %d:%s [%s] %d windows\n", marker, ws.ID, ws.Name, ws.Layout, len(ws.Windows))
		for _, w := range ws.Windows {
			flags := make([]string, 0, 3)
			if w.Focused {
				flags = append(flags, "focused")
			}
			if w.Floating {
				flags = append(flags, "floating")
			}
			if w.Sticky {
				flags = append(flags, "sticky")
			}
			line := fmt.Sprintf("    %d %s %q", w.ID, w.AppID, w.Title)
			if r, ok := data.Geometry[uint32(w.ID)]; ok {
				line += fmt.Sprintf(" %dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
			}
			if len(flags) > 0 {
				line += " (" + strings.Join(flags, ", ") + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runMsgBindings(cmd *cobra.Command, args []string) error {
	data, err := newClient(cmd).ListBindings()
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(data)
	}
	for _, b := range data.Bindings {
		fmt.Printf("%-24s %s\n", b.Combo, b.Action)
	}
	return nil
}

func runMsgSwitch(cmd *cobra.Command, args []string) error {
	ws, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid workspace %q", args[0])
	}
	return okOrErr(newClient(cmd).SwitchWorkspace(ws))
}

func runMsgMove(cmd *cobra.Command, args []string) error {
	id, err := parseWindowID(args[0])
	if err != nil {
		return err
	}
	ws, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid workspace %q", args[1])
	}
	return okOrErr(newClient(cmd).MoveWindow(id, ws))
}

func runMsgFocus(cmd *cobra.Command, args []string) error {
	id, err := parseWindowID(args[0])
	if err != nil {
		return err
	}
	return okOrErr(newClient(cmd).FocusWindow(id))
}

func runMsgKey(cmd *cobra.Command, args []string) error {
	result, err := newClient(cmd).DispatchKey(args[0])
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func runMsgUnmap(cmd *cobra.Command, args []string) error {
	id, err := parseWindowID(args[0])
	if err != nil {
		return err
	}
	return okOrErr(newClient(cmd).UnmapWindow(id))
}

func runMsgTitle(cmd *cobra.Command, args []string) error {
	id, err := parseWindowID(args[0])
	if err != nil {
		return err
	}
	return okOrErr(newClient(cmd).SetTitle(id, args[1]))
}

func runMsgResize(cmd *cobra.Command, args []string) error {
	id, err := parseWindowID(args[0])
	if err != nil {
		return err
	}
	w, h, err := parseSize(args[1])
	if err != nil {
		return err
	}
	return okOrErr(newClient(cmd).ResizeWindow(id, w, h))
}

func runMsgCallbacks(cmd *cobra.Command, args []string) error {
	data, err := newClient(cmd).DrainCallbacks()
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(data)
	}
	for _, inv := range data.Invocations {
		fmt.Println(inv.String())
	}
	return nil
}

func runMsgSnapshot(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	saved, err := newClient(cmd).Snapshot(path)
	if err != nil {
		return err
	}
	fmt.Println(saved)
	return nil
}

func runMsgReload(cmd *cobra.Command, args []string) error {
	return okOrErr(newClient(cmd).Reload())
}

func parseWindowID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

// parseSize parses WIDTHxHEIGHT with both sides positive.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: expected WIDTHxHEIGHT", s)
	}
	w, werr := strconv.Atoi(ws)
	h, herr := strconv.Atoi(hs)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: expected WIDTHxHEIGHT", s)
	}
	return w, h, nil
}

func okOrErr(err error) error {
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
