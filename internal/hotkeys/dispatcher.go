// Package hotkeys canonicalizes key combinations, holds the binding table and
// decides whether a key event is consumed by an action or forwarded to the
// focused window.
package hotkeys

import (
	"log/slog"
	"sync/atomic"
)

// KeyEvent is one key transition with lock modifiers already stripped.
type KeyEvent struct {
	Key     Key
	Mods    Mod
	Pressed bool
}

// Combo returns the event's modifier set and key.
func (e KeyEvent) Combo() Combo {
	return Combo{Mods: e.Mods, Key: e.Key}
}

// Result says what happened to an event.
type Result int

const (
	Forwarded Result = iota
	Consumed
)

func (r Result) String() string {
	if r == Consumed {
		return "consumed"
	}
	return "forwarded"
}

// Executor runs a bound action. It is called synchronously on the event loop.
type Executor interface {
	Execute(Action) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(Action) error

func (f ExecutorFunc) Execute(a Action) error { return f(a) }

// Observer is notified of every dispatch outcome.
type Observer func(ev KeyEvent, result Result, err error)

// Dispatcher matches key events against a Table.
type Dispatcher struct {
	table    atomic.Pointer[Table]
	exec     Executor
	observer Observer
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over table.
func NewDispatcher(table *Table, exec Executor, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{exec: exec, logger: logger}
	d.SetTable(table)
	return d
}

// SetTable swaps the binding table. A nil table forwards everything.
func (d *Dispatcher) SetTable(t *Table) {
	if t == nil {
		t = &Table{byCombo: map[Combo]Binding{}}
	}
	d.table.Store(t)
}

// Table returns the current binding table.
func (d *Dispatcher) Table() *Table {
	return d.table.Load()
}

// SetObserver installs a callback for dispatch outcomes.
func (d *Dispatcher) SetObserver(o Observer) {
	d.observer = o
}

// Dispatch runs the binding whose modifier set and key exactly equal the
// event's. Releases never match. A matched event is consumed even when its
// action fails; the failure is logged.
func (d *Dispatcher) Dispatch(ev KeyEvent) Result {
	if !ev.Pressed || ev.Key == KeyNone {
		d.notify(ev, Forwarded, nil)
		return Forwarded
	}
	b, ok := d.table.Load().Lookup(ev.Combo())
	if !ok {
		d.notify(ev, Forwarded, nil)
		return Forwarded
	}

	d.logger.Debug("keybinding matched", "combo", b.Combo.String(), "action", b.Action.String())
	var err error
	if d.exec != nil {
		err = d.exec.Execute(b.Action)
	}
	if err != nil {
		d.logger.Warn("keybinding action failed", "combo", b.Combo.String(), "action", b.Action.String(), "error", err)
	}
	d.notify(ev, Consumed, err)
	return Consumed
}

func (d *Dispatcher) notify(ev KeyEvent, r Result, err error) {
	if d.observer != nil {
		d.observer(ev, r, err)
	}
}
