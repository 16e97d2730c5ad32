package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tessel/internal/script"
	"github.com/1broseidon/tessel/internal/workspace"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload          CommandType = "RELOAD"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandListWorkspaces  CommandType = "LIST_WORKSPACES"
	CommandListBindings    CommandType = "LIST_BINDINGS"
	CommandSwitchWorkspace CommandType = "SWITCH_WORKSPACE"
	CommandMoveWindow      CommandType = "MOVE_WINDOW"
	CommandFocusWindow     CommandType = "FOCUS_WINDOW"
	CommandSetLayout       CommandType = "SET_LAYOUT"
	CommandDispatchKey     CommandType = "DISPATCH_KEY"
	CommandMapWindow       CommandType = "MAP_WINDOW"
	CommandUnmapWindow     CommandType = "UNMAP_WINDOW"
	CommandSetTitle        CommandType = "SET_TITLE"
	CommandResizeWindow    CommandType = "RESIZE_WINDOW"
	CommandResolveStyle    CommandType = "RESOLVE_STYLE"
	CommandDrainCallbacks  CommandType = "DRAIN_CALLBACKS"
	CommandSnapshot        CommandType = "SNAPSHOT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
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
	OutputWidth      int    `json:"output_width"`
	OutputHeight     int    `json:"output_height"`
}

// WorkspacesData is returned by LIST_WORKSPACES. Geometry holds the
// active workspace's window rectangles keyed by window id.
type WorkspacesData struct {
	Active     int                 `json:"active"`
	Workspaces []workspace.View    `json:"workspaces"`
	Geometry   map[uint32]RectData `json:"geometry,omitempty"`
	Sticky     map[int][]uint32    `json:"sticky,omitempty"`
}

// RectData is a rectangle on the output.
type RectData struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BindingInfo describes one active keybinding.
type BindingInfo struct {
	Combo  string `json:"combo"`
	Keys   string `json:"keys"`
	Action string `json:"action"`
}

// BindingsData is returned by LIST_BINDINGS.
type BindingsData struct {
	Bindings []BindingInfo `json:"bindings"`
}

type WorkspacePayload struct {
	Workspace int `json:"workspace"`
}

type MoveWindowPayload struct {
	Window    uint32 `json:"window"`
	Workspace int    `json:"workspace"`
}

type WindowPayload struct {
	Window uint32 `json:"window"`
}

type SetLayoutPayload struct {
	Workspace int    `json:"workspace,omitempty"` // 0 = active
	Layout    string `json:"layout"`
}

// DispatchKeyPayload carries a combination in binding syntax, e.g. "Super+Return".
type DispatchKeyPayload struct {
	Keys string `json:"keys"`
}

type DispatchKeyData struct {
	Result string `json:"result"`
}

type MapWindowPayload struct {
	Window uint32 `json:"window"`
	PID    int    `json:"pid,omitempty"`
	AppID  string `json:"app_id"`
	Title  string `json:"title,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ResizeWindowPayload sets the size a window keeps while floating.
type ResizeWindowPayload struct {
	Window uint32 `json:"window"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type SetTitlePayload struct {
	Window uint32 `json:"window"`
	Title  string `json:"title"`
}

type ResolveStylePayload struct {
	Kind    string   `json:"kind"`
	State   string   `json:"state,omitempty"`
	Classes []string `json:"classes,omitempty"`
}

// StyleData maps each resolved property to its formatted value.
type StyleData struct {
	Properties map[string]string `json:"properties"`
}

type CallbacksData struct {
	Invocations []script.Invocation `json:"invocations"`
}

type SnapshotPayload struct {
	Path string `json:"path,omitempty"`
}

type SnapshotData struct {
	Path string `json:"path"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
