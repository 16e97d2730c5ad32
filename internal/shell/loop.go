package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Loop serialises access to a Shell. Protocol callbacks, key sources and IPC
// handlers post closures; the loop runs them between frames on one goroutine.
type Loop struct {
	shell    *Shell
	events   chan func(*Shell)
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewLoop creates a loop that ticks at frameRate frames per second.
func NewLoop(s *Shell, frameRate int, logger *slog.Logger) *Loop {
	if frameRate <= 0 {
		frameRate = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		shell:    s,
		events:   make(chan func(*Shell), 256),
		interval: time.Second / time.Duration(frameRate),
		now:      time.Now,
		logger:   logger,
	}
}

// Post queues fn to run on the loop goroutine. It blocks while the queue is full.
func (l *Loop) Post(fn func(*Shell)) {
	l.events <- fn
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*Shell) error) error {
	done := make(chan error, 1)
	select {
	case l.events <- func(s *Shell) { done <- fn(s) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events and ticks frames until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("event loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopped", "frames", l.shell.Frames())
			return nil
		case fn := <-l.events:
			l.run(fn)
		case <-ticker.C:
			l.tick()
		}
	}
}

// run executes one event. A panicking handler is logged and the loop
// keeps going.
func (l *Loop) run(fn func(*Shell)) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("event handler panic recovered", "error", err)
			l.shell.metrics.RecoverableError("panic")
		}
	}()
	fn(l.shell)
}

func (l *Loop) tick() {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("frame panic recovered", "error", fmt.Sprint(err))
			l.shell.metrics.RecoverableError("panic")
		}
	}()
	if err := l.shell.Tick(l.now()); err != nil {
		l.logger.Warn("frame dropped", "error", err)
	}
}
