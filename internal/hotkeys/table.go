package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/tessel/internal/config"
)

// ErrDuplicateKeybinding is returned when two bindings share a combination
// under the reject policy.
var ErrDuplicateKeybinding = errors.New("duplicate keybinding")

// Action is the descriptor a binding runs. Kind selects which of the other
// fields are meaningful.
type Action struct {
	Kind      config.ActionName
	Command   string            // spawn
	Direction int               // focus, cycle-workspace: +1 next, -1 previous
	Workspace int               // switch-workspace, move-to-workspace
	Layout    config.LayoutMode // set-layout
	Callback  string            // custom
}

func (a Action) String() string {
	switch a.Kind {
	case config.ActionSpawn:
		return fmt.Sprintf("spawn(%q)", a.Command)
	case config.ActionFocus, config.ActionCycleWorkspace:
		return fmt.Sprintf("%s(%+d)", a.Kind, a.Direction)
	case config.ActionSwitchWorkspace, config.ActionMoveToWorkspace:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Workspace)
	case config.ActionSetLayout:
		return fmt.Sprintf("set-layout(%s)", a.Layout)
	case config.ActionCustom:
		return fmt.Sprintf("custom(%s)", a.Callback)
	default:
		return string(a.Kind)
	}
}

// Binding pairs a canonical combo with an action.
type Binding struct {
	Combo  Combo
	Action Action
	Keys   string // as written in the configuration
	Index  int    // declaration order
}

// DirectionStep maps a configured direction word to a step.
func DirectionStep(dir string) (int, error) {
	switch dir {
	case "next", "down", "right":
		return 1, nil
	case "prev", "up", "left":
		return -1, nil
	}
	return 0, fmt.Errorf("unknown direction %q", dir)
}

// BuildBindings canonicalizes configured keybindings. Errors are
// config.ValidationError values naming the offending entry.
func BuildBindings(kbs []config.KeybindingConfig) ([]Binding, error) {
	out := make([]Binding, 0, len(kbs))
	for i, kb := range kbs {
		path := fmt.Sprintf("keybindings[%d]", i)
		combo, err := ParseCombo(kb.Keys)
		if err != nil {
			return nil, &config.ValidationError{Path: path + ".keys", Err: err}
		}
		action := Action{
			Kind:      kb.Action,
			Command:   kb.Command,
			Workspace: kb.Workspace,
			Layout:    kb.Layout,
			Callback:  kb.Callback,
		}
		if kb.Action == config.ActionFocus || kb.Action == config.ActionCycleWorkspace {
			step, err := DirectionStep(kb.Direction)
			if err != nil {
				return nil, &config.ValidationError{Path: path + ".direction", Err: err}
			}
			action.Direction = step
		}
		if kb.Action == config.ActionSetLayout {
			mode, err := config.ParseLayoutMode(string(kb.Layout))
			if err != nil {
				return nil, &config.ValidationError{Path: path + ".layout", Err: err}
			}
			action.Layout = mode
		}
		out = append(out, Binding{Combo: combo, Action: action, Keys: kb.Keys, Index: i})
	}
	return out, nil
}

// Table is an immutable lookup from combo to binding.
type Table struct {
	byCombo map[Combo]Binding
	order   []Combo
}

// NewTable indexes bindings. Under DuplicateReject a repeated combo is an
// error; under DuplicateLastWins the later declaration replaces the earlier
// one and a warning is logged.
func NewTable(bindings []Binding, policy config.DuplicatePolicy, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Table{byCombo: make(map[Combo]Binding, len(bindings))}
	for _, b := range bindings {
		prev, dup := t.byCombo[b.Combo]
		if dup {
			if policy != config.DuplicateLastWins {
				return nil, &config.ValidationError{
					Path: fmt.Sprintf("keybindings[%d].keys", b.Index),
					Err:  fmt.Errorf("%w: %s (also keybindings[%d] %q)", ErrDuplicateKeybinding, b.Combo, prev.Index, prev.Keys),
				}
			}
			logger.Warn("keybinding overridden", "combo", b.Combo.String(),
				"previous", prev.Action.String(), "action", b.Action.String())
		} else {
			t.order = append(t.order, b.Combo)
		}
		t.byCombo[b.Combo] = b
	}
	return t, nil
}

// Lookup returns the binding for exactly c.
func (t *Table) Lookup(c Combo) (Binding, bool) {
	b, ok := t.byCombo[c]
	return b, ok
}

// Bindings returns the effective bindings in first-declaration order.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, 0, len(t.order))
	for _, c := range t.order {
		out = append(out, t.byCombo[c])
	}
	return out
}

// Len returns the number of distinct combos.
func (t *Table) Len() int {
	return len(t.byCombo)
}
