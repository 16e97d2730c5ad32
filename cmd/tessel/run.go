package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/hotkeys"
	"github.com/1broseidon/tessel/internal/ipc"
	"github.com/1broseidon/tessel/internal/logging"
	"github.com/1broseidon/tessel/internal/metrics"
	"github.com/1broseidon/tessel/internal/output"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/runtimepath"
	"github.com/1broseidon/tessel/internal/shell"
	"github.com/1broseidon/tessel/internal/termkeys"
	"github.com/1broseidon/tessel/internal/workspace"
	"github.com/1broseidon/tessel/internal/x11"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the compositor",
	Long: `Start the compositor: load the configuration, open the control socket
and composite frames at the configured frame rate.

Key input can come from an X11 preview window (--preview), from root window
grabs (--grab-keys) or from the controlling terminal (--keys). Without any of
them, input arrives only through "tessel msg key".

Examples:
  tessel run
  tessel run --preview --grab-keys
  tessel run --keys --alt-as-super`,
	Args: cobra.NoArgs,
	RunE: runCompositor,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("preview", false, "Show composited frames in an X11 window")
	runCmd.Flags().Bool("grab-keys", false, "Grab bound key combinations on the X11 root window")
	runCmd.Flags().Bool("detect-output", false, "Size the output after the largest X11 monitor")
	runCmd.Flags().Bool("keys", false, "Read key presses from this terminal")
	runCmd.Flags().Bool("alt-as-super", false, "With --keys, treat Alt as Super")
	runCmd.Flags().Bool("no-watch", false, "Do not reload when config files change")
	runCmd.Flags().Bool("no-session", false, "Do not restore or save the active workspace and layouts")
}

type runOptions struct {
	preview      bool
	grabKeys     bool
	detectOutput bool
	termKeys     bool
	altAsSuper   bool
	watch        bool
	session      bool
}

func runCompositor(cmd *cobra.Command, args []string) error {
	var opts runOptions
	opts.preview, _ = cmd.Flags().GetBool("preview")
	opts.grabKeys, _ = cmd.Flags().GetBool("grab-keys")
	opts.detectOutput, _ = cmd.Flags().GetBool("detect-output")
	opts.termKeys, _ = cmd.Flags().GetBool("keys")
	opts.altAsSuper, _ = cmd.Flags().GetBool("alt-as-super")
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	opts.watch = !noWatch
	noSession, _ := cmd.Flags().GetBool("no-session")
	opts.session = !noSession

	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logger, logCloser, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	var conn *x11.Connection
	if opts.preview || opts.grabKeys || opts.detectOutput {
		conn, err = x11.NewConnection()
		if err != nil {
			return fmt.Errorf("failed to connect to X11: %w", err)
		}
		defer conn.Close()
	}

	var outputOverride *config.Output
	if opts.detectOutput {
		monitors, err := conn.Monitors()
		if err != nil {
			logger.Warn("monitor query failed, using screen size", "error", err)
		}
		size, ok := x11.Largest(monitors)
		if !ok {
			size = conn.ScreenSize()
		}
		outputOverride = &config.Output{Width: size.Width, Height: size.Height}
		cfg.Output = *outputOverride
		logger.Info("output sized from X11", "width", size.Width, "height", size.Height)
	}

	recorder := metrics.New()
	renderer := output.NewSoftware(logger.With("component", "output"))
	sh, err := shell.New(cfg, res.Styles, shell.Options{
		Renderer: renderer,
		Spawner:  platform.NewExecSpawner(logger.With("component", "spawn")),
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	loop := shell.NewLoop(sh, cfg.FrameRate, logger.With("component", "loop"))

	sessionPath := ""
	if opts.session {
		if sessionPath, err = runtimepath.SessionPath(); err != nil {
			logger.Warn("session state disabled", "error", err)
		} else if state, err := workspace.LoadSession(sessionPath); err != nil {
			logger.Warn("ignoring session state", "error", err)
		} else {
			n := sh.Manager().Restore(state)
			logger.Info("session restored", "path", sessionPath, "layouts", n, "active", sh.Manager().Active())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	dispatch := func(ev hotkeys.KeyEvent) {
		loop.Post(func(s *shell.Shell) { s.Dispatch(ev) })
	}

	var keys *x11.KeySource
	if conn != nil {
		keys = x11.NewKeySource(conn, dispatch, logger)
		if opts.grabKeys {
			if err := keys.Grab(sh.Bindings()); err != nil {
				logger.Warn("key grabs unavailable", "error", err)
			}
		}
	}

	var preview *x11.Preview
	if opts.preview {
		size := platform.Size{Width: cfg.Output.Width, Height: cfg.Output.Height}
		preview, err = x11.NewPreview(conn, size, "tessel", stop, logger.With("component", "preview"))
		if err != nil {
			return err
		}
		defer preview.Destroy()
		renderer.OnFrame(preview.Present)
		keys.Listen(preview.Window())
	}

	reload := func(ctx context.Context) error {
		next, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		if outputOverride != nil {
			next.Config.Output = *outputOverride
		}
		var bindings []hotkeys.Binding
		err = loop.Do(ctx, func(s *shell.Shell) error {
			if err := s.Reload(next.Config, next.Styles); err != nil {
				return err
			}
			bindings = s.Bindings()
			return nil
		})
		if err != nil {
			return err
		}
		if keys != nil && opts.grabKeys {
			if err := keys.Grab(bindings); err != nil {
				logger.Warn("key grabs unavailable after reload", "error", err)
			}
		}
		return nil
	}

	srv, err := ipc.NewServer(loop, ipc.ServerOptions{
		SocketPath: socketFlag(cmd),
		Reload:     reload,
		Snapshot:   renderer.SavePNG,
		Logger:     logger.With("component", "ipc"),
	})
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()
	logger.Info("tessel started", "socket", srv.SocketPath(), "workspaces", len(cfg.Workspaces), "frame_rate", cfg.FrameRate)

	g.Go(func() error { return loop.Run(ctx) })

	if cfg.Metrics.Listen != "" {
		g.Go(func() error { return recorder.Serve(ctx, cfg.Metrics.Listen, logger.With("component", "metrics")) })
	}

	if opts.watch && len(res.Files) > 0 {
		watcher, err := config.NewWatcher(res.Files, logger.With("component", "watch"))
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		} else {
			defer watcher.Close()
			g.Go(func() error {
				err := watcher.Run(ctx, func(changed string) {
					if err := reload(ctx); err != nil {
						logger.Warn("reload rejected, keeping previous configuration", "file", changed, "error", err)
						return
					}
					logger.Info("configuration reloaded", "file", changed)
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	}

	if conn != nil {
		if preview != nil {
			g.Go(func() error { return preview.Run(ctx) })
		}
		go conn.EventLoop()
		g.Go(func() error {
			<-ctx.Done()
			conn.Quit()
			return nil
		})
	}

	if opts.termKeys {
		src := termkeys.NewSource(os.Stdin, dispatch, termkeys.Options{AltAsSuper: opts.altAsSuper}, logger)
		g.Go(func() error {
			err := src.Run(ctx)
			if errors.Is(err, termkeys.ErrInterrupted) {
				stop()
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	// The loop has stopped; the manager has no other users.
	if sessionPath != "" {
		if serr := workspace.SaveSession(sessionPath, sh.Manager().Session()); serr != nil {
			logger.Warn("failed to save session", "error", serr)
		}
	}
	logger.Info("tessel stopped")
	return err
}

func socketFlag(cmd *cobra.Command) string {
	socket, _ := cmd.Flags().GetString("socket")
	return socket
}
