package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tessel/internal/runtimepath"
)

// Client handles IPC communication with the compositor
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w (is tessel running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("compositor error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends cmd with an optional payload and decodes the data into out
// when out is non-nil.
func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload asks the compositor to re-read its configuration.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves compositor status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListWorkspaces returns every workspace with its windows.
func (c *Client) ListWorkspaces() (*WorkspacesData, error) {
	var data WorkspacesData
	if err := c.call(CommandListWorkspaces, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListBindings returns the active keybinding table.
func (c *Client) ListBindings() (*BindingsData, error) {
	var data BindingsData
	if err := c.call(CommandListBindings, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) SwitchWorkspace(workspace int) error {
	return c.call(CommandSwitchWorkspace, WorkspacePayload{Workspace: workspace}, nil)
}

func (c *Client) MoveWindow(window uint32, workspace int) error {
	return c.call(CommandMoveWindow, MoveWindowPayload{Window: window, Workspace: workspace}, nil)
}

func (c *Client) FocusWindow(window uint32) error {
	return c.call(CommandFocusWindow, WindowPayload{Window: window}, nil)
}

// SetLayout changes a workspace's layout; workspace 0 means the active one.
func (c *Client) SetLayout(workspace int, layout string) error {
	return c.call(CommandSetLayout, SetLayoutPayload{Workspace: workspace, Layout: layout}, nil)
}

// DispatchKey injects a key press and reports whether a binding consumed it.
func (c *Client) DispatchKey(keys string) (string, error) {
	var data DispatchKeyData
	if err := c.call(CommandDispatchKey, DispatchKeyPayload{Keys: keys}, &data); err != nil {
		return "", err
	}
	return data.Result, nil
}

func (c *Client) MapWindow(p MapWindowPayload) error {
	return c.call(CommandMapWindow, p, nil)
}

func (c *Client) UnmapWindow(window uint32) error {
	return c.call(CommandUnmapWindow, WindowPayload{Window: window}, nil)
}

func (c *Client) SetTitle(window uint32, title string) error {
	return c.call(CommandSetTitle, SetTitlePayload{Window: window, Title: title}, nil)
}

// ResizeWindow sets the size a window keeps while floating.
func (c *Client) ResizeWindow(window uint32, width, height int) error {
	return c.call(CommandResizeWindow, ResizeWindowPayload{Window: window, Width: width, Height: height}, nil)
}

// ResolveStyle asks the compositor which properties apply to a query.
func (c *Client) ResolveStyle(kind, state string, classes []string) (map[string]string, error) {
	var data StyleData
	if err := c.call(CommandResolveStyle, ResolveStylePayload{Kind: kind, State: state, Classes: classes}, &data); err != nil {
		return nil, err
	}
	return data.Properties, nil
}

// DrainCallbacks removes and returns pending callback invocations.
func (c *Client) DrainCallbacks() (*CallbacksData, error) {
	var data CallbacksData
	if err := c.call(CommandDrainCallbacks, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Snapshot saves the last composited frame as PNG and returns its path.
func (c *Client) Snapshot(path string) (string, error) {
	var data SnapshotData
	if err := c.call(CommandSnapshot, SnapshotPayload{Path: path}, &data); err != nil {
		return "", err
	}
	return data.Path, nil
}

// Ping checks if the compositor is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
