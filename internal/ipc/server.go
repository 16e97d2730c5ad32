package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/hotkeys"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/runtimepath"
	"github.com/1broseidon/tessel/internal/shell"
)

// Runner executes a function against the shell on its owning goroutine.
// *shell.Loop satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func(*shell.Shell) error) error
}

// ServerOptions configures a Server. Reload and Snapshot are optional; the
// matching commands fail when they are nil.
type ServerOptions struct {
	SocketPath string
	Reload     func(ctx context.Context) error
	Snapshot   func(path string) error
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	runner       Runner
	reload       func(ctx context.Context) error
	snapshot     func(path string) error
	timeout      time.Duration
	startTime    time.Time
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(runner Runner, opts ServerOptions) (*Server, error) {
	socketPath := opts.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Remove a stale socket left by a previous run
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		runner:     runner,
		reload:     opts.Reload,
		snapshot:   opts.Snapshot,
		timeout:    timeout,
		startTime:  time.Now(),
		logger:     logger,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection serves one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.timeout + time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.send(conn, s.handleCommand(ctx, req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandListWorkspaces:
		return s.handleListWorkspaces(ctx)
	case CommandListBindings:
		return s.handleListBindings(ctx)
	case CommandSwitchWorkspace:
		return s.handleSwitchWorkspace(ctx, req.Payload)
	case CommandMoveWindow:
		return s.handleMoveWindow(ctx, req.Payload)
	case CommandFocusWindow:
		return s.handleFocusWindow(ctx, req.Payload)
	case CommandSetLayout:
		return s.handleSetLayout(ctx, req.Payload)
	case CommandDispatchKey:
		return s.handleDispatchKey(ctx, req.Payload)
	case CommandMapWindow:
		return s.handleMapWindow(ctx, req.Payload)
	case CommandUnmapWindow:
		return s.handleUnmapWindow(ctx, req.Payload)
	case CommandSetTitle:
		return s.handleSetTitle(ctx, req.Payload)
	case CommandResizeWindow:
		return s.handleResizeWindow(ctx, req.Payload)
	case CommandResolveStyle:
		return s.handleResolveStyle(ctx, req.Payload)
	case CommandDrainCallbacks:
		return s.handleDrainCallbacks(ctx)
	case CommandSnapshot:
		return s.handleSnapshot(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// do runs fn on the shell and converts the outcome into a response.
func (s *Server) do(ctx context.Context, fn func(*shell.Shell) (any, error)) *Response {
	var data any
	err := s.runner.Do(ctx, func(sh *shell.Shell) error {
		var err error
		data, err = fn(sh)
		return err
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decode(payload json.RawMessage, v any) *Response {
	if len(payload) == 0 {
		return NewErrorResponse("payload is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	return nil
}

func (s *Server) handleReload(ctx context.Context) *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not available")
	}
	s.logger.Info("IPC: reload requested")
	if err := s.reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	uptime := int64(time.Since(s.startTime).Seconds())
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		m := sh.Manager()
		status := StatusData{
			ActiveWorkspace:  m.Active(),
			Workspaces:       m.Count(),
			Windows:          m.WindowCount(),
			Bindings:         len(sh.Bindings()),
			Frames:           sh.Frames(),
			PendingCallbacks: sh.PendingInvocations(),
			DroppedCallbacks: sh.DroppedInvocations(),
			UptimeSeconds:    uptime,
			OutputWidth:      sh.Config().Output.Width,
			OutputHeight:     sh.Config().Output.Height,
		}
		if id, ok := m.Focused(); ok {
			status.FocusedWindow = uint32(id)
			if w, ok := m.Window(id); ok {
				status.FocusedTitle = w.Title
			}
		}
		return status, nil
	})
}

func (s *Server) handleListWorkspaces(ctx context.Context) *Response {
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		m := sh.Manager()
		data := WorkspacesData{
			Active:     m.Active(),
			Workspaces: m.Views(),
			Geometry:   make(map[uint32]RectData),
		}
		for id, r := range sh.Geometries() {
			data.Geometry[uint32(id)] = RectData{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
		}
		for ws, ids := range m.StickyElsewhere() {
			if data.Sticky == nil {
				data.Sticky = make(map[int][]uint32)
			}
			for _, id := range ids {
				data.Sticky[ws] = append(data.Sticky[ws], uint32(id))
			}
		}
		return data, nil
	})
}

func (s *Server) handleListBindings(ctx context.Context) *Response {
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		bindings := sh.Bindings()
		data := BindingsData{Bindings: make([]BindingInfo, 0, len(bindings))}
		for _, b := range bindings {
			data.Bindings = append(data.Bindings, BindingInfo{
				Combo:  b.Combo.String(),
				Keys:   b.Keys,
				Action: b.Action.String(),
			})
		}
		return data, nil
	})
}

func (s *Server) handleSwitchWorkspace(ctx context.Context, payload json.RawMessage) *Response {
	var req WorkspacePayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.SwitchWorkspace(req.Workspace)
	})
}

func (s *Server) handleMoveWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req MoveWindowPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.MoveWindow(platform.WindowID(req.Window), req.Workspace)
	})
}

func (s *Server) handleFocusWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req WindowPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.FocusWindow(platform.WindowID(req.Window))
	})
}

func (s *Server) handleSetLayout(ctx context.Context, payload json.RawMessage) *Response {
	var req SetLayoutPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	mode, err := config.ParseLayoutMode(req.Layout)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.SetLayout(req.Workspace, mode)
	})
}

func (s *Server) handleDispatchKey(ctx context.Context, payload json.RawMessage) *Response {
	var req DispatchKeyPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	combo, err := hotkeys.ParseCombo(req.Keys)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		r := sh.Dispatch(hotkeys.KeyEvent{Key: combo.Key, Mods: combo.Mods, Pressed: true})
		return DispatchKeyData{Result: r.String()}, nil
	})
}

func (s *Server) handleMapWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req MapWindowPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	if req.Window == 0 {
		return NewErrorResponse("window id is required")
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.MapWindow(platform.WindowInfo{
			ID:    platform.WindowID(req.Window),
			PID:   req.PID,
			AppID: req.AppID,
			Title: req.Title,
			Size:  platform.Size{Width: req.Width, Height: req.Height},
		})
	})
}

func (s *Server) handleUnmapWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req WindowPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.UnmapWindow(platform.WindowID(req.Window))
	})
}

func (s *Server) handleSetTitle(ctx context.Context, payload json.RawMessage) *Response {
	var req SetTitlePayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.SetTitle(platform.WindowID(req.Window), req.Title)
	})
}

func (s *Server) handleResizeWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req ResizeWindowPayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return nil, sh.SetFloatSize(platform.WindowID(req.Window), platform.Size{Width: req.Width, Height: req.Height})
	})
}

func (s *Server) handleResolveStyle(ctx context.Context, payload json.RawMessage) *Response {
	var req ResolveStylePayload
	if resp := decode(payload, &req); resp != nil {
		return resp
	}
	if req.Kind == "" {
		return NewErrorResponse("kind is required")
	}
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		rs := sh.Styles().Resolve(req.Kind, req.State, req.Classes)
		data := StyleData{Properties: make(map[string]string, rs.Len())}
		for _, prop := range rs.Properties() {
			v, _ := rs.Get(prop)
			data.Properties[prop] = v.String()
		}
		return data, nil
	})
}

func (s *Server) handleDrainCallbacks(ctx context.Context) *Response {
	return s.do(ctx, func(sh *shell.Shell) (any, error) {
		return CallbacksData{Invocations: sh.DrainInvocations()}, nil
	})
}

func (s *Server) handleSnapshot(ctx context.Context, payload json.RawMessage) *Response {
	if s.snapshot == nil {
		return NewErrorResponse("snapshots are not available with this renderer")
	}
	var req SnapshotPayload
	if len(payload) > 0 {
		if resp := decode(payload, &req); resp != nil {
			return resp
		}
	}
	path := req.Path
	if path == "" {
		var err error
		if path, err = runtimepath.SnapshotPath(); err != nil {
			return NewErrorResponse(err.Error())
		}
	}
	return s.do(ctx, func(*shell.Shell) (any, error) {
		if err := s.snapshot(path); err != nil {
			return nil, err
		}
		return SnapshotData{Path: path}, nil
	})
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
