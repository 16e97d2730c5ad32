// Package mcp exposes the running compositor to MCP clients over stdio.
// Every tool is a thin call over the IPC control socket.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tessel/internal/ipc"
)

const (
	ServerName    = "tessel"
	ServerVersion = "0.1.0"
)

// Controller is the subset of the IPC client the tools use.
type Controller interface {
	GetStatus() (*ipc.StatusData, error)
	ListWorkspaces() (*ipc.WorkspacesData, error)
	ListBindings() (*ipc.BindingsData, error)
	SwitchWorkspace(workspace int) error
	MoveWindow(window uint32, workspace int) error
	FocusWindow(window uint32) error
	ResizeWindow(window uint32, width, height int) error
	SetLayout(workspace int, layout string) error
	DispatchKey(keys string) (string, error)
	ResolveStyle(kind, state string, classes []string) (map[string]string, error)
	DrainCallbacks() (*ipc.CallbacksData, error)
	Snapshot(path string) (string, error)
	Reload() error
}

// Server is the MCP server for compositor control.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by ctl.
func NewServer(ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ctl: ctl, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the active workspace, window count, focused window and frame counter of the running compositor.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "List workspaces with their layout and windows. Windows on the active workspace include their on-screen rectangle.",
	}, s.handleListWorkspaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_bindings",
		Description: "List the active keybindings in canonical form with the action each one runs.",
	}, s.handleListBindings)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_workspace",
		Description: "Activate a workspace by id. Focus returns to the window last focused there.",
	}, s.handleSwitchWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window to another workspace without switching to it.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Focus a window, activating its workspace if needed.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Set the size a window keeps while it floats.",
	}, s.handleResizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_layout",
		Description: "Change a workspace's layout mode to tiling, floating or monocle.",
	}, s.handleSetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "send_keys",
		Description: "Inject a key press into the dispatcher. Returns consumed when a binding ran, forwarded otherwise.",
	}, s.handleSendKeys)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_style",
		Description: "Show the style properties that apply to an element kind, pseudo-state and class set.",
	}, s.handleResolveStyle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "drain_callbacks",
		Description: "Remove and return pending script callback invocations queued by hooks and custom bindings.",
	}, s.handleDrainCallbacks)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snapshot",
		Description: "Save the last composited frame as a PNG file and return its path.",
	}, s.handleSnapshot)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload",
		Description: "Reload configuration and stylesheets. A failed reload keeps the running configuration.",
	}, s.handleReload)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.ctl.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		ActiveWorkspace:  st.ActiveWorkspace,
		Workspaces:       st.Workspaces,
		Windows:          st.Windows,
		FocusedWindow:    st.FocusedWindow,
		FocusedTitle:     st.FocusedTitle,
		Bindings:         st.Bindings,
		Frames:           st.Frames,
		PendingCallbacks: st.PendingCallbacks,
		DroppedCallbacks: st.DroppedCallbacks,
		UptimeSeconds:    st.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWorkspaces(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWorkspacesInput) (*mcpsdk.CallToolResult, ListWorkspacesOutput, error) {
	data, err := s.ctl.ListWorkspaces()
	if err != nil {
		return nil, ListWorkspacesOutput{}, err
	}
	out := ListWorkspacesOutput{Active: data.Active, Workspaces: []WorkspaceInfo{}}
	for _, v := range data.Workspaces {
		if len(v.Windows) == 0 && !v.Active && !args.IncludeEmpty {
			continue
		}
		info := WorkspaceInfo{
			ID:      v.ID,
			Name:    v.Name,
			Layout:  string(v.Layout),
			Active:  v.Active,
			Windows: make([]WindowInfo, 0, len(v.Windows)),
		}
		for _, w := range v.Windows {
			wi := WindowInfo{
				ID:       uint32(w.ID),
				AppID:    w.AppID,
				Title:    w.Title,
				Floating: w.Floating,
				Sticky:   w.Sticky,
				Focused:  w.Focused,
				Classes:  w.Classes,
			}
			if v.Active {
				if r, ok := data.Geometry[uint32(w.ID)]; ok {
					wi.X, wi.Y, wi.Width, wi.Height = r.X, r.Y, r.Width, r.Height
				}
			}
			info.Windows = append(info.Windows, wi)
		}
		out.Workspaces = append(out.Workspaces, info)
	}
	return nil, out, nil
}

func (s *Server) handleListBindings(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListBindingsInput) (*mcpsdk.CallToolResult, ListBindingsOutput, error) {
	data, err := s.ctl.ListBindings()
	if err != nil {
		return nil, ListBindingsOutput{}, err
	}
	out := ListBindingsOutput{Bindings: make([]BindingInfo, 0, len(data.Bindings))}
	for _, b := range data.Bindings {
		out.Bindings = append(out.Bindings, BindingInfo{Combo: b.Combo, Action: b.Action})
	}
	return nil, out, nil
}

func (s *Server) handleSwitchWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchWorkspaceInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Workspace <= 0 {
		return nil, OKOutput{}, fmt.Errorf("workspace must be positive")
	}
	if err := s.ctl.SwitchWorkspace(args.Workspace); err != nil {
		return nil, OKOutput{}, err
	}
	s.logger.Info("mcp: workspace switched", "workspace", args.Workspace)
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Window == 0 {
		return nil, OKOutput{}, fmt.Errorf("window is required")
	}
	if err := s.ctl.MoveWindow(args.Window, args.Workspace); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleResizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Window == 0 {
		return nil, OKOutput{}, fmt.Errorf("window is required")
	}
	if args.Width <= 0 || args.Height <= 0 {
		return nil, OKOutput{}, fmt.Errorf("width and height must be positive")
	}
	if err := s.ctl.ResizeWindow(args.Window, args.Width, args.Height); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusWindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Window == 0 {
		return nil, OKOutput{}, fmt.Errorf("window is required")
	}
	if err := s.ctl.FocusWindow(args.Window); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleSetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args SetLayoutInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.Layout == "" {
		return nil, OKOutput{}, fmt.Errorf("layout is required")
	}
	if err := s.ctl.SetLayout(args.Workspace, args.Layout); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleSendKeys(_ context.Context, _ *mcpsdk.CallToolRequest, args SendKeysInput) (*mcpsdk.CallToolResult, SendKeysOutput, error) {
	if args.Keys == "" {
		return nil, SendKeysOutput{}, fmt.Errorf("keys is required")
	}
	result, err := s.ctl.DispatchKey(args.Keys)
	if err != nil {
		return nil, SendKeysOutput{}, err
	}
	return nil, SendKeysOutput{Result: result}, nil
}

func (s *Server) handleResolveStyle(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolveStyleInput) (*mcpsdk.CallToolResult, ResolveStyleOutput, error) {
	if args.Kind == "" {
		return nil, ResolveStyleOutput{}, fmt.Errorf("kind is required")
	}
	props, err := s.ctl.ResolveStyle(args.Kind, args.State, args.Classes)
	if err != nil {
		return nil, ResolveStyleOutput{}, err
	}
	out := ResolveStyleOutput{Properties: make([]StyleProperty, 0, len(props))}
	for name, value := range props {
		out.Properties = append(out.Properties, StyleProperty{Name: name, Value: value})
	}
	sort.Slice(out.Properties, func(i, j int) bool { return out.Properties[i].Name < out.Properties[j].Name })
	return nil, out, nil
}

func (s *Server) handleDrainCallbacks(_ context.Context, _ *mcpsdk.CallToolRequest, _ DrainCallbacksInput) (*mcpsdk.CallToolResult, DrainCallbacksOutput, error) {
	data, err := s.ctl.DrainCallbacks()
	if err != nil {
		return nil, DrainCallbacksOutput{}, err
	}
	out := DrainCallbacksOutput{Invocations: make([]CallbackInfo, 0, len(data.Invocations))}
	for _, inv := range data.Invocations {
		out.Invocations = append(out.Invocations, CallbackInfo{
			ID:        inv.ID,
			Callback:  inv.Callback,
			Event:     inv.Event,
			Window:    inv.Window,
			Workspace: inv.Workspace,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSnapshot(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, SnapshotOutput, error) {
	path, err := s.ctl.Snapshot(args.Path)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	return nil, SnapshotOutput{Path: path}, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.ctl.Reload(); err != nil {
		return nil, OKOutput{}, err
	}
	s.logger.Info("mcp: configuration reloaded")
	return nil, OKOutput{OK: true}, nil
}
