package termkeys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/tessel/internal/hotkeys"
)

// ErrInterrupted is returned by Run when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// Source reads raw key input from a terminal.
type Source struct {
	in     *os.File
	sink   func(hotkeys.KeyEvent)
	opts   Options
	logger *slog.Logger
}

// NewSource creates a source reading from in. sink runs on the reader goroutine.
func NewSource(in *os.File, sink func(hotkeys.KeyEvent), opts Options, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{in: in, sink: sink, opts: opts, logger: logger.With("component", "termkeys")}
}

// Run puts the terminal in raw mode and forwards key events until ctx is
// cancelled, input ends, or Ctrl+C is pressed. The terminal state is
// restored before returning.
func (s *Source) Run(ctx context.Context) error {
	fd := int(s.in.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("key input requires an interactive terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	s.logger.Info("reading keys from terminal", "alt_as_super", s.opts.AltAsSuper)

	chunks := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := s.in.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case chunk := <-chunks:
			if s.feed(chunk) {
				return ErrInterrupted
			}
		}
	}
}

// feed dispatches a chunk and reports whether it contained Ctrl+C.
func (s *Source) feed(chunk []byte) bool {
	for _, ev := range Decode(chunk, s.opts) {
		if ev.Mods == hotkeys.ModCtrl && ev.Key.String() == "c" {
			return true
		}
		s.logger.Debug("key", "combo", ev.Combo().String())
		s.sink(ev)
	}
	return false
}
