// Package shell ties the core together: it owns the workspace manager,
// layout engine, style resolver, key dispatcher and bar, builds one frame
// per tick and runs bound actions.
package shell

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/tessel/internal/bar"
	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/hotkeys"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/script"
	"github.com/1broseidon/tessel/internal/style"
	"github.com/1broseidon/tessel/internal/tiling"
	"github.com/1broseidon/tessel/internal/workspace"
)

// Recorder receives counters from the shell. Implementations must be cheap.
type Recorder interface {
	FrameSubmitted()
	BarRasterized()
	KeyDispatched(result string)
	RecoverableError(kind string)
	Windows(n int)
}

type nopRecorder struct{}

func (nopRecorder) FrameSubmitted()         {}
func (nopRecorder) BarRasterized()          {}
func (nopRecorder) KeyDispatched(string)    {}
func (nopRecorder) RecoverableError(string) {}
func (nopRecorder) Windows(int)             {}

// Options are the external collaborators of a Shell.
type Options struct {
	Renderer platform.Renderer
	Spawner  platform.Spawner
	Closer   platform.Closer
	Recorder Recorder
	Logger   *slog.Logger
	// CallbackLimit bounds the pending callback queue (0 = script.DefaultQueueLimit).
	CallbackLimit int
}

// Shell is the single owner of compositor state. It is not safe for
// concurrent use; run it through a Loop.
type Shell struct {
	cfg        *config.Config
	manager    *workspace.Manager
	engine     *tiling.Engine
	styles     *style.Resolver
	dispatcher *hotkeys.Dispatcher
	bar        *bar.Compositor
	registry   *script.Registry
	queue      *script.Queue

	renderer platform.Renderer
	spawner  platform.Spawner
	closer   platform.Closer
	metrics  Recorder
	logger   *slog.Logger

	frames uint64
}

// New builds a shell from an effective configuration and its style set.
func New(cfg *config.Config, styles *config.StyleSet, opts Options) (*Shell, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("shell needs a renderer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Recorder
	if metrics == nil {
		metrics = nopRecorder{}
	}

	s := &Shell{
		cfg:      cfg,
		registry: script.NewRegistry(),
		queue:    script.NewQueue(opts.CallbackLimit),
		renderer: opts.Renderer,
		spawner:  opts.Spawner,
		closer:   opts.Closer,
		metrics:  metrics,
		logger:   logger,
	}

	resolver := newResolver(styles, logger)
	table, err := buildTable(cfg, logger)
	if err != nil {
		return nil, err
	}

	s.engine = tiling.NewEngine(cfg.Layout, logger.With("component", "layout"))
	s.manager, err = workspace.NewManager(cfg.Workspaces, s.engine, logger.With("component", "workspace"))
	if err != nil {
		return nil, err
	}
	s.styles = resolver
	s.dispatcher = hotkeys.NewDispatcher(table, s, logger.With("component", "input"))
	s.dispatcher.SetObserver(s.observeKey)
	if cfg.Bar.Enabled {
		s.bar, err = bar.New(cfg.Bar, outputSize(cfg), resolver, logger.With("component", "bar"))
		if err != nil {
			return nil, &config.ValidationError{Path: "bar", Err: err}
		}
	}
	s.registerCallbacks(cfg)
	return s, nil
}

// Validate runs every load-time check the shell performs without creating
// one: configuration structure, key combinations and duplicate policy.
func Validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := buildTable(cfg, slog.Default()); err != nil {
		return err
	}
	if cfg.Bar.Enabled {
		if _, err := bar.LookupFace(cfg.Bar.Font); err != nil {
			return &config.ValidationError{Path: "bar.font", Err: err}
		}
	}
	return nil
}

func buildTable(cfg *config.Config, logger *slog.Logger) (*hotkeys.Table, error) {
	bindings, err := hotkeys.BuildBindings(cfg.Keybindings)
	if err != nil {
		return nil, err
	}
	return hotkeys.NewTable(bindings, cfg.DuplicateKeybindings, logger)
}

func newResolver(styles *config.StyleSet, logger *slog.Logger) *style.Resolver {
	if styles == nil {
		styles = &config.StyleSet{}
	}
	r := style.NewResolver(styles.Rules, styles.Variables, logger.With("component", "style"))
	for _, err := range styles.Skipped {
		logger.Warn("style rule skipped", "error", err)
	}
	return r
}

func (s *Shell) registerCallbacks(cfg *config.Config) {
	for _, kb := range cfg.Keybindings {
		if kb.Action == config.ActionCustom {
			s.registry.Register(kb.Callback)
		}
	}
	for _, name := range cfg.Hooks {
		s.registry.Register(name)
	}
}

func outputSize(cfg *config.Config) platform.Size {
	return platform.Size{Width: cfg.Output.Width, Height: cfg.Output.Height}
}

// Config returns the active configuration.
func (s *Shell) Config() *config.Config {
	return s.cfg
}

// Manager exposes workspace state for read-only queries.
func (s *Shell) Manager() *workspace.Manager {
	return s.manager
}

// Styles returns the active style resolver.
func (s *Shell) Styles() *style.Resolver {
	return s.styles
}

// Bindings returns the active keybindings.
func (s *Shell) Bindings() []hotkeys.Binding {
	return s.dispatcher.Table().Bindings()
}

// Bar returns the bar compositor, or nil when the bar is disabled.
func (s *Shell) Bar() *bar.Compositor {
	return s.bar
}

// Registry returns the callback registry.
func (s *Shell) Registry() *script.Registry {
	return s.registry
}

// DrainInvocations hands pending callback invocations to the script host.
func (s *Shell) DrainInvocations() []script.Invocation {
	return s.queue.Drain()
}

// PendingInvocations reports how many callback runs are waiting.
func (s *Shell) PendingInvocations() int {
	return s.queue.Len()
}

// DroppedInvocations reports how many callback runs were discarded because
// nobody drained the queue in time.
func (s *Shell) DroppedInvocations() uint64 {
	return s.queue.Dropped()
}

// Frames counts submitted frames.
func (s *Shell) Frames() uint64 {
	return s.frames
}

// Dispatch feeds one key event through the binding table.
func (s *Shell) Dispatch(ev hotkeys.KeyEvent) hotkeys.Result {
	return s.dispatcher.Dispatch(ev)
}

func (s *Shell) observeKey(ev hotkeys.KeyEvent, r hotkeys.Result, err error) {
	s.metrics.KeyDispatched(r.String())
	if err != nil {
		s.recoverable(err)
	}
}

// recoverable counts an error that was handled locally.
func (s *Shell) recoverable(err error) {
	s.metrics.RecoverableError(errorKind(err))
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, workspace.ErrUnknownWorkspace):
		return "unknown_workspace"
	case errors.Is(err, workspace.ErrUnknownWindow):
		return "unknown_window"
	case errors.Is(err, workspace.ErrWindowExists):
		return "window_exists"
	case errors.Is(err, workspace.ErrInvalidSize):
		return "invalid_size"
	case errors.Is(err, platform.ErrSpawnFailure):
		return "spawn_failure"
	case errors.Is(err, style.ErrVariableUnresolved):
		return "style_variable_unresolved"
	default:
		return "other"
	}
}

// Reload swaps styles, bindings, layout settings and the bar in one step.
// Everything is built before anything is replaced, so a failed reload leaves
// the running configuration untouched. Changing the number of workspaces
// requires a restart.
func (s *Shell) Reload(cfg *config.Config, styles *config.StyleSet) error {
	if len(cfg.Workspaces) != s.manager.Count() {
		return fmt.Errorf("reload: workspace count changed from %d to %d; restart to apply", s.manager.Count(), len(cfg.Workspaces))
	}
	if cfg.Output != s.cfg.Output {
		return fmt.Errorf("reload: output size changes require a restart")
	}
	table, err := buildTable(cfg, s.logger)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if cfg.Bar.Enabled {
		if _, err := bar.LookupFace(cfg.Bar.Font); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
	}
	resolver := newResolver(styles, s.logger)

	if err := s.manager.Reconfigure(cfg.Workspaces); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	s.engine.SetDefaults(cfg.Layout)
	s.styles = resolver
	s.dispatcher.SetTable(table)

	switch {
	case !cfg.Bar.Enabled && s.bar != nil:
		s.bar.Release(s.renderer)
		s.bar = nil
	case cfg.Bar.Enabled && s.bar == nil:
		b, err := bar.New(cfg.Bar, outputSize(cfg), resolver, s.logger.With("component", "bar"))
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		s.bar = b
	case cfg.Bar.Enabled:
		if err := s.bar.Reconfigure(cfg.Bar, outputSize(cfg), resolver); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
	}

	s.cfg = cfg
	s.registerCallbacks(cfg)
	s.logger.Info("configuration reloaded", "bindings", table.Len(), "rules", len(styleRules(styles)))
	return nil
}

func styleRules(set *config.StyleSet) []style.Rule {
	if set == nil {
		return nil
	}
	return set.Rules
}
