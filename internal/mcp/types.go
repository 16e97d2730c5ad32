package mcp

// StatusInput is the input for the get_status tool.
type StatusInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	ActiveWorkspace  int    `json:"active_workspace"`
	Workspaces       int    `json:"workspaces"`
	Windows          int    `json:"windows"`
	FocusedWindow    uint32 `json:"focused_window,omitempty"`
	FocusedTitle     string `json:"focused_title,omitempty"`
	Bindings         int    `json:"bindings"`
	Frames           uint64 `json:"frames"`
	PendingCallbacks int    `json:"pending_callbacks"`
	DroppedCallbacks uint64 `json:"dropped_callbacks,omitempty"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

// ListWorkspacesInput is the input for the list_workspaces tool.
type ListWorkspacesInput struct {
	IncludeEmpty bool `json:"include_empty,omitempty" jsonschema:"When true, also list workspaces without windows (default: false)"`
}

// WindowInfo describes one managed window.
type WindowInfo struct {
	ID       uint32   `json:"id"`
	AppID    string   `json:"app_id"`
	Title    string   `json:"title,omitempty"`
	Floating bool     `json:"floating"`
	Sticky   bool     `json:"sticky"`
	Focused  bool     `json:"focused"`
	Classes  []string `json:"classes,omitempty"`
	X        int      `json:"x,omitempty"`
	Y        int      `json:"y,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
}

// WorkspaceInfo describes one workspace.
type WorkspaceInfo struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Layout  string       `json:"layout"`
	Active  bool         `json:"active"`
	Windows []WindowInfo `json:"windows"`
}

// ListWorkspacesOutput is the output for the list_workspaces tool.
type ListWorkspacesOutput struct {
	Active     int             `json:"active"`
	Workspaces []WorkspaceInfo `json:"workspaces"`
}

// ListBindingsInput is the input for the list_bindings tool.
type ListBindingsInput struct{}

// BindingInfo describes one keybinding.
type BindingInfo struct {
	Combo  string `json:"combo"`
	Action string `json:"action"`
}

// ListBindingsOutput is the output for the list_bindings tool.
type ListBindingsOutput struct {
	Bindings []BindingInfo `json:"bindings"`
}

// SwitchWorkspaceInput is the input for the switch_workspace tool.
type SwitchWorkspaceInput struct {
	Workspace int `json:"workspace" jsonschema:"required,Workspace id to activate (1-based)"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	Window    uint32 `json:"window" jsonschema:"required,Window id to move"`
	Workspace int    `json:"workspace" jsonschema:"required,Target workspace id"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	Window uint32 `json:"window" jsonschema:"required,Window id"`
	Width  int    `json:"width" jsonschema:"required,Floating width in pixels"`
	Height int    `json:"height" jsonschema:"required,Floating height in pixels"`
}

// FocusWindowInput is the input for the focus_window tool.
type FocusWindowInput struct {
	Window uint32 `json:"window" jsonschema:"required,Window id to focus; its workspace becomes active"`
}

// SetLayoutInput is the input for the set_layout tool.
type SetLayoutInput struct {
	Layout    string `json:"layout" jsonschema:"required,Layout mode: tiling, floating or monocle"`
	Workspace int    `json:"workspace,omitempty" jsonschema:"Workspace id (default: active workspace)"`
}

// SendKeysInput is the input for the send_keys tool.
type SendKeysInput struct {
	Keys string `json:"keys" jsonschema:"required,Key combination in binding syntax, e.g. Super+Shift+2"`
}

// SendKeysOutput is the output for the send_keys tool.
type SendKeysOutput struct {
	Result string `json:"result"`
}

// ResolveStyleInput is the input for the resolve_style tool.
type ResolveStyleInput struct {
	Kind    string   `json:"kind" jsonschema:"required,Element kind: desktop, window, bar, workspace, clock, window-title or text"`
	State   string   `json:"state,omitempty" jsonschema:"Pseudo-state such as focus or active"`
	Classes []string `json:"classes,omitempty" jsonschema:"Class names to match"`
}

// StyleProperty is one resolved property.
type StyleProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResolveStyleOutput is the output for the resolve_style tool.
type ResolveStyleOutput struct {
	Properties []StyleProperty `json:"properties"`
}

// DrainCallbacksInput is the input for the drain_callbacks tool.
type DrainCallbacksInput struct{}

// CallbackInfo is one pending callback invocation.
type CallbackInfo struct {
	ID        string `json:"id"`
	Callback  string `json:"callback"`
	Event     string `json:"event"`
	Window    uint32 `json:"window,omitempty"`
	Workspace int    `json:"workspace,omitempty"`
}

// DrainCallbacksOutput is the output for the drain_callbacks tool.
type DrainCallbacksOutput struct {
	Invocations []CallbackInfo `json:"invocations"`
}

// SnapshotInput is the input for the snapshot tool.
type SnapshotInput struct {
	Path string `json:"path,omitempty" jsonschema:"PNG output path (default: runtime directory)"`
}

// SnapshotOutput is the output for the snapshot tool.
type SnapshotOutput struct {
	Path string `json:"path"`
}

// ReloadInput is the input for the reload tool.
type ReloadInput struct{}

// OKOutput is returned by tools that only report success.
type OKOutput struct {
	OK bool `json:"ok"`
}
