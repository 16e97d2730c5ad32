package config

import (
	"fmt"
	"strings"
)

// LayoutMode defines how a workspace arranges its windows.
type LayoutMode string

const (
	LayoutTiling   LayoutMode = "tiling"   // Column stack, optional primary/secondary split.
	LayoutFloating LayoutMode = "floating" // Cascaded windows keeping their own size.
	LayoutMonocle  LayoutMode = "monocle"  // Focused window fills the usable area.
)

// ParseLayoutMode accepts the canonical names plus a few common aliases.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiling", "tile", "tiled":
		return LayoutTiling, nil
	case "floating", "float":
		return LayoutFloating, nil
	case "monocle", "max", "fullscreen":
		return LayoutMonocle, nil
	default:
		return "", fmt.Errorf("unknown layout mode %q (want tiling, floating or monocle)", s)
	}
}

// BarPosition places the bar along an output edge.
type BarPosition string

const (
	BarTop    BarPosition = "top"
	BarBottom BarPosition = "bottom"
)

// WidgetType identifies a bar widget.
type WidgetType string

const (
	WidgetWorkspaces  WidgetType = "workspaces"
	WidgetWindowTitle WidgetType = "window-title"
	WidgetClock       WidgetType = "clock"
	WidgetSpacer      WidgetType = "spacer"
	WidgetText        WidgetType = "text"
)

// ActionName identifies what a keybinding does.
type ActionName string

const (
	ActionSpawn           ActionName = "spawn"
	ActionClose           ActionName = "close"
	ActionFocus           ActionName = "focus"
	ActionSwitchWorkspace ActionName = "switch-workspace"
	ActionMoveToWorkspace ActionName = "move-to-workspace"
	ActionCycleWorkspace  ActionName = "cycle-workspace"
	ActionToggleFloating  ActionName = "toggle-floating"
	ActionSetLayout       ActionName = "set-layout"
	ActionCustom          ActionName = "custom"
)

// DuplicatePolicy decides what happens when two bindings share a key combination.
type DuplicatePolicy string

const (
	DuplicateReject   DuplicatePolicy = "reject"
	DuplicateLastWins DuplicatePolicy = "last-wins"
)

// Hook events a script callback can subscribe to.
const (
	HookWindowCreate    = "window-create"
	HookWindowClose     = "window-close"
	HookWindowFocus     = "window-focus"
	HookWorkspaceSwitch = "workspace-switch"
)

// Output describes the single output the shell composes for.
type Output struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Gaps are insets in pixels: outer around the usable area, inner between windows.
type Gaps struct {
	Outer int `yaml:"outer" json:"outer"`
	Inner int `yaml:"inner" json:"inner"`
}

// LayoutDefaults apply to every workspace that does not override them.
type LayoutDefaults struct {
	Mode           LayoutMode `yaml:"mode" json:"mode"`
	Gaps           Gaps       `yaml:"gaps" json:"gaps"`
	SplitRatio     float64    `yaml:"split_ratio" json:"split_ratio"` // 0 = single column
	FloatingWidth  int        `yaml:"floating_width" json:"floating_width"`
	FloatingHeight int        `yaml:"floating_height" json:"floating_height"`
}

// WorkspaceConfig declares one workspace. After BuildEffectiveConfig every
// field is populated.
type WorkspaceConfig struct {
	ID         int        `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Layout     LayoutMode `yaml:"layout" json:"layout"`
	Gaps       Gaps       `yaml:"gaps" json:"gaps"`
	SplitRatio float64    `yaml:"split_ratio" json:"split_ratio"`
}

// WidgetConfig is one child of the bar.
type WidgetConfig struct {
	Type     WidgetType `yaml:"type" json:"type"`
	Display  string     `yaml:"display,omitempty" json:"display,omitempty"`     // workspaces: numbers, names, none
	MaxWidth int        `yaml:"max_width,omitempty" json:"max_width,omitempty"` // window-title, pixels
	Format   string     `yaml:"format,omitempty" json:"format,omitempty"`       // clock
	Flex     int        `yaml:"flex,omitempty" json:"flex,omitempty"`           // spacer
	Text     string     `yaml:"text,omitempty" json:"text,omitempty"`           // text
	Class    string     `yaml:"class,omitempty" json:"class,omitempty"`
}

// BarConfig declares the status bar.
type BarConfig struct {
	Enabled  bool           `yaml:"enabled" json:"enabled"`
	Position BarPosition    `yaml:"position" json:"position"`
	Height   int            `yaml:"height" json:"height"`
	Class    string         `yaml:"class" json:"class"`
	Font     string         `yaml:"font" json:"font"` // mini (5x7) or basic (7x13)
	Widgets  []WidgetConfig `yaml:"widgets" json:"widgets"`
}

// KeybindingConfig binds a key combination such as "Super+Shift+Return" to an action.
type KeybindingConfig struct {
	Keys      string     `yaml:"keys" json:"keys"`
	Action    ActionName `yaml:"action" json:"action"`
	Command   string     `yaml:"command,omitempty" json:"command,omitempty"`
	Workspace int        `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	Direction string     `yaml:"direction,omitempty" json:"direction,omitempty"`
	Layout    LayoutMode `yaml:"layout,omitempty" json:"layout,omitempty"`
	Callback  string     `yaml:"callback,omitempty" json:"callback,omitempty"`
}

// WindowRule adjusts newly mapped windows. AppID and Title are shell globs.
type WindowRule struct {
	AppID     string   `yaml:"app_id,omitempty" json:"app_id,omitempty"`
	Title     string   `yaml:"title,omitempty" json:"title,omitempty"`
	Workspace int      `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	Floating  *bool    `yaml:"floating,omitempty" json:"floating,omitempty"`
	Sticky    bool     `yaml:"sticky,omitempty" json:"sticky,omitempty"`
	Classes   []string `yaml:"classes,omitempty" json:"classes,omitempty"`
}

// StyleRuleConfig is a style rule written inline in YAML.
type StyleRuleConfig struct {
	Selector   string            `yaml:"selector" json:"selector"`
	Properties map[string]string `yaml:"properties" json:"properties"`
}

// StyleConfig points at stylesheets and adds inline variables and rules.
// Inline rules are ordered after every stylesheet rule.
type StyleConfig struct {
	Stylesheets []string          `yaml:"stylesheets,omitempty" json:"stylesheets,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Rules       []StyleRuleConfig `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// LoggingConfig configures the daemon log.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// File is the log file path; empty logs to stderr.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	// Format is text or json.
	Format    string `yaml:"format" json:"format"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// MetricsConfig enables the prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty" json:"listen,omitempty"`
}

// Config is the effective configuration after defaults and includes are merged.
type Config struct {
	Output               Output             `yaml:"output" json:"output"`
	FrameRate            int                `yaml:"frame_rate" json:"frame_rate"`
	Terminal             string             `yaml:"terminal" json:"terminal"`
	Layout               LayoutDefaults     `yaml:"layout" json:"layout"`
	Workspaces           []WorkspaceConfig  `yaml:"workspaces" json:"workspaces"`
	Bar                  BarConfig          `yaml:"bar" json:"bar"`
	Keybindings          []KeybindingConfig `yaml:"keybindings" json:"keybindings"`
	DuplicateKeybindings DuplicatePolicy    `yaml:"duplicate_keybindings" json:"duplicate_keybindings"`
	WindowRules          []WindowRule       `yaml:"window_rules,omitempty" json:"window_rules,omitempty"`
	Style                StyleConfig        `yaml:"style" json:"style"`
	Hooks                map[string]string  `yaml:"hooks,omitempty" json:"hooks,omitempty"`
	Logging              LoggingConfig      `yaml:"logging" json:"logging"`
	Metrics              MetricsConfig      `yaml:"metrics" json:"metrics"`
}

// DefaultConfig returns the configuration used when no file overrides a field.
func DefaultConfig() *Config {
	cfg := &Config{
		Output:    Output{Width: 1280, Height: 800},
		FrameRate: 60,
		Terminal:  "xterm",
		Layout: LayoutDefaults{
			Mode:           LayoutTiling,
			Gaps:           Gaps{Outer: 10, Inner: 10},
			FloatingWidth:  800,
			FloatingHeight: 600,
		},
		Bar: BarConfig{
			Enabled:  true,
			Position: BarTop,
			Height:   30,
			Class:    "bar",
			Font:     "mini",
			Widgets: []WidgetConfig{
				{Type: WidgetWorkspaces, Display: "numbers"},
				{Type: WidgetSpacer, Flex: 1},
				{Type: WidgetWindowTitle, MaxWidth: 400},
				{Type: WidgetSpacer, Flex: 1},
				{Type: WidgetClock, Format: "%H:%M"},
			},
		},
		DuplicateKeybindings: DuplicateReject,
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
	cfg.Workspaces = DefaultWorkspaces(9, cfg.Layout)
	cfg.Keybindings = DefaultKeybindings(len(cfg.Workspaces), cfg.Terminal)
	return cfg
}

// DefaultWorkspaces declares workspaces 1..n named after their ids.
func DefaultWorkspaces(n int, layout LayoutDefaults) []WorkspaceConfig {
	out := make([]WorkspaceConfig, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, WorkspaceConfig{
			ID:         i,
			Name:       fmt.Sprintf("%d", i),
			Layout:     layout.Mode,
			Gaps:       layout.Gaps,
			SplitRatio: layout.SplitRatio,
		})
	}
	return out
}

// DefaultKeybindings returns the stock binding table for n workspaces.
func DefaultKeybindings(n int, terminal string) []KeybindingConfig {
	binds := []KeybindingConfig{
		{Keys: "Super+Return", Action: ActionSpawn, Command: terminal},
		{Keys: "Super+q", Action: ActionClose},
		{Keys: "Super+j", Action: ActionFocus, Direction: "down"},
		{Keys: "Super+k", Action: ActionFocus, Direction: "up"},
		{Keys: "Super+Tab", Action: ActionCycleWorkspace, Direction: "next"},
		{Keys: "Super+Shift+Tab", Action: ActionCycleWorkspace, Direction: "prev"},
		{Keys: "Super+Shift+space", Action: ActionToggleFloating},
		{Keys: "Super+t", Action: ActionSetLayout, Layout: LayoutTiling},
		{Keys: "Super+f", Action: ActionSetLayout, Layout: LayoutFloating},
		{Keys: "Super+m", Action: ActionSetLayout, Layout: LayoutMonocle},
	}
	for i := 1; i <= n && i <= 9; i++ {
		binds = append(binds,
			KeybindingConfig{Keys: fmt.Sprintf("Super+%d", i), Action: ActionSwitchWorkspace, Workspace: i},
			KeybindingConfig{Keys: fmt.Sprintf("Super+Shift+%d", i), Action: ActionMoveToWorkspace, Workspace: i},
		)
	}
	return binds
}

// Workspace returns the declaration for id.
func (c *Config) Workspace(id int) (WorkspaceConfig, bool) {
	for _, ws := range c.Workspaces {
		if ws.ID == id {
			return ws, true
		}
	}
	return WorkspaceConfig{}, false
}

// WorkspaceIDs returns the declared ids in declaration order.
func (c *Config) WorkspaceIDs() []int {
	ids := make([]int, 0, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		ids = append(ids, ws.ID)
	}
	return ids
}

// Validate checks structural invariants. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return &ValidationError{Path: "output", Err: fmt.Errorf("output width and height must be > 0")}
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		return &ValidationError{Path: "frame_rate", Err: fmt.Errorf("frame_rate must be between 1 and 240")}
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateWorkspaces(); err != nil {
		return err
	}
	if err := c.validateBar(); err != nil {
		return err
	}
	if err := c.validateKeybindings(); err != nil {
		return err
	}
	for i, rule := range c.WindowRules {
		path := fmt.Sprintf("window_rules[%d]", i)
		if rule.AppID == "" && rule.Title == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("rule needs app_id or title")}
		}
		if rule.Workspace != 0 {
			if _, ok := c.Workspace(rule.Workspace); !ok {
				return &ValidationError{Path: path + ".workspace", Err: fmt.Errorf("workspace %d is not declared", rule.Workspace)}
			}
		}
	}
	for i, rule := range c.Style.Rules {
		if strings.TrimSpace(rule.Selector) == "" {
			return &ValidationError{Path: fmt.Sprintf("style.rules[%d].selector", i), Err: fmt.Errorf("selector is required")}
		}
	}
	for event, callback := range c.Hooks {
		switch event {
		case HookWindowCreate, HookWindowClose, HookWindowFocus, HookWorkspaceSwitch:
		default:
			return &ValidationError{Path: "hooks." + event, Err: fmt.Errorf("unknown hook event %q", event)}
		}
		if strings.TrimSpace(callback) == "" {
			return &ValidationError{Path: "hooks." + event, Err: fmt.Errorf("callback name must not be empty")}
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be text or json")}
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging", Err: fmt.Errorf("max_size_mb and max_files must be >= 0")}
	}
	return nil
}

func (c *Config) validateLayout() error {
	if _, err := ParseLayoutMode(string(c.Layout.Mode)); err != nil {
		return &ValidationError{Path: "layout.mode", Err: err}
	}
	if c.Layout.Gaps.Outer < 0 || c.Layout.Gaps.Inner < 0 {
		return &ValidationError{Path: "layout.gaps", Err: fmt.Errorf("gaps must be >= 0")}
	}
	if err := validateSplitRatio(c.Layout.SplitRatio); err != nil {
		return &ValidationError{Path: "layout.split_ratio", Err: err}
	}
	if c.Layout.FloatingWidth <= 0 || c.Layout.FloatingHeight <= 0 {
		return &ValidationError{Path: "layout", Err: fmt.Errorf("floating_width and floating_height must be > 0")}
	}
	return nil
}

func (c *Config) validateWorkspaces() error {
	if len(c.Workspaces) == 0 {
		return &ValidationError{Path: "workspaces", Err: fmt.Errorf("at least one workspace must be declared")}
	}
	seen := make(map[int]struct{}, len(c.Workspaces))
	for i, ws := range c.Workspaces {
		path := fmt.Sprintf("workspaces[%d]", i)
		if ws.ID < 1 || ws.ID > len(c.Workspaces) {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("workspace ids must be contiguous from 1 to %d, got %d", len(c.Workspaces), ws.ID)}
		}
		if _, dup := seen[ws.ID]; dup {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("duplicate workspace id %d", ws.ID)}
		}
		seen[ws.ID] = struct{}{}
		if _, err := ParseLayoutMode(string(ws.Layout)); err != nil {
			return &ValidationError{Path: path + ".layout", Err: err}
		}
		if ws.Gaps.Outer < 0 || ws.Gaps.Inner < 0 {
			return &ValidationError{Path: path + ".gaps", Err: fmt.Errorf("gaps must be >= 0")}
		}
		if err := validateSplitRatio(ws.SplitRatio); err != nil {
			return &ValidationError{Path: path + ".split_ratio", Err: err}
		}
	}
	return nil
}

func (c *Config) validateBar() error {
	if !c.Bar.Enabled {
		return nil
	}
	switch c.Bar.Position {
	case BarTop, BarBottom:
	default:
		return &ValidationError{Path: "bar.position", Err: fmt.Errorf("position must be top or bottom, got %q", c.Bar.Position)}
	}
	if c.Bar.Height <= 0 || c.Bar.Height >= c.Output.Height {
		return &ValidationError{Path: "bar.height", Err: fmt.Errorf("height must be > 0 and smaller than the output")}
	}
	switch c.Bar.Font {
	case "mini", "basic":
	default:
		return &ValidationError{Path: "bar.font", Err: fmt.Errorf("font must be mini or basic, got %q", c.Bar.Font)}
	}
	for i, w := range c.Bar.Widgets {
		path := fmt.Sprintf("bar.widgets[%d]", i)
		switch w.Type {
		case WidgetWorkspaces:
			switch w.Display {
			case "", "numbers", "names", "none":
			default:
				return &ValidationError{Path: path + ".display", Err: fmt.Errorf("display must be numbers, names or none")}
			}
		case WidgetWindowTitle, WidgetClock, WidgetText:
		case WidgetSpacer:
			if w.Flex < 0 {
				return &ValidationError{Path: path + ".flex", Err: fmt.Errorf("flex must be >= 0")}
			}
		default:
			return &ValidationError{Path: path + ".type", Err: fmt.Errorf("unknown widget type %q", w.Type)}
		}
		if w.MaxWidth < 0 {
			return &ValidationError{Path: path + ".max_width", Err: fmt.Errorf("max_width must be >= 0")}
		}
	}
	return nil
}

func (c *Config) validateKeybindings() error {
	switch c.DuplicateKeybindings {
	case DuplicateReject, DuplicateLastWins:
	default:
		return &ValidationError{Path: "duplicate_keybindings", Err: fmt.Errorf("must be reject or last-wins")}
	}
	for i, kb := range c.Keybindings {
		path := fmt.Sprintf("keybindings[%d]", i)
		if strings.TrimSpace(kb.Keys) == "" {
			return &ValidationError{Path: path + ".keys", Err: fmt.Errorf("keys are required")}
		}
		switch kb.Action {
		case ActionSpawn:
			if strings.TrimSpace(kb.Command) == "" {
				return &ValidationError{Path: path + ".command", Err: fmt.Errorf("spawn needs a command")}
			}
		case ActionClose, ActionToggleFloating:
		case ActionFocus:
			switch kb.Direction {
			case "left", "right", "up", "down", "next", "prev":
			default:
				return &ValidationError{Path: path + ".direction", Err: fmt.Errorf("focus direction must be left, right, up, down, next or prev")}
			}
		case ActionSwitchWorkspace, ActionMoveToWorkspace:
			if _, ok := c.Workspace(kb.Workspace); !ok {
				return &ValidationError{Path: path + ".workspace", Err: fmt.Errorf("workspace %d is not declared", kb.Workspace)}
			}
		case ActionCycleWorkspace:
			if kb.Direction != "next" && kb.Direction != "prev" {
				return &ValidationError{Path: path + ".direction", Err: fmt.Errorf("cycle direction must be next or prev")}
			}
		case ActionSetLayout:
			if _, err := ParseLayoutMode(string(kb.Layout)); err != nil {
				return &ValidationError{Path: path + ".layout", Err: err}
			}
		case ActionCustom:
			if strings.TrimSpace(kb.Callback) == "" {
				return &ValidationError{Path: path + ".callback", Err: fmt.Errorf("custom action needs a callback")}
			}
		default:
			return &ValidationError{Path: path + ".action", Err: fmt.Errorf("unknown action %q", kb.Action)}
		}
	}
	return nil
}

func validateSplitRatio(r float64) error {
	if r == 0 {
		return nil
	}
	if r < 0.1 || r > 0.9 {
		return fmt.Errorf("split_ratio must be 0 (disabled) or between 0.1 and 0.9")
	}
	return nil
}
