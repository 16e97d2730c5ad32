package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig overlays raw onto DefaultConfig and fills per-workspace
// fields from the layout defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Output != nil {
		assign(&cfg.Output.Width, raw.Output.Width)
		assign(&cfg.Output.Height, raw.Output.Height)
	}
	assign(&cfg.FrameRate, raw.FrameRate)
	if raw.Terminal != nil {
		cfg.Terminal = *raw.Terminal
	} else if term := detectTerminal(); term != "" {
		cfg.Terminal = term
	}

	if raw.Layout != nil {
		if raw.Layout.Mode != nil {
			mode, err := ParseLayoutMode(*raw.Layout.Mode)
			if err != nil {
				return nil, &ValidationError{Path: "layout.mode", Err: err}
			}
			cfg.Layout.Mode = mode
		}
		if raw.Layout.Gaps != nil {
			assign(&cfg.Layout.Gaps.Outer, raw.Layout.Gaps.Outer)
			assign(&cfg.Layout.Gaps.Inner, raw.Layout.Gaps.Inner)
		}
		assign(&cfg.Layout.SplitRatio, raw.Layout.SplitRatio)
		assign(&cfg.Layout.FloatingWidth, raw.Layout.FloatingWidth)
		assign(&cfg.Layout.FloatingHeight, raw.Layout.FloatingHeight)
	}

	if raw.Workspaces != nil {
		ws, err := buildWorkspaces(raw.Workspaces, cfg.Layout)
		if err != nil {
			return nil, err
		}
		cfg.Workspaces = ws
	} else {
		cfg.Workspaces = DefaultWorkspaces(len(cfg.Workspaces), cfg.Layout)
	}

	if raw.Bar != nil {
		assign(&cfg.Bar.Enabled, raw.Bar.Enabled)
		if raw.Bar.Position != nil {
			cfg.Bar.Position = BarPosition(*raw.Bar.Position)
		}
		assign(&cfg.Bar.Height, raw.Bar.Height)
		assign(&cfg.Bar.Class, raw.Bar.Class)
		assign(&cfg.Bar.Font, raw.Bar.Font)
		if raw.Bar.Widgets != nil {
			cfg.Bar.Widgets = buildWidgets(raw.Bar.Widgets)
		}
	}

	if raw.Keybindings != nil {
		cfg.Keybindings = raw.Keybindings
	} else {
		cfg.Keybindings = DefaultKeybindings(len(cfg.Workspaces), cfg.Terminal)
	}
	if raw.DuplicateKeybindings != nil {
		cfg.DuplicateKeybindings = DuplicatePolicy(*raw.DuplicateKeybindings)
	}
	if raw.WindowRules != nil {
		cfg.WindowRules = raw.WindowRules
	}

	if raw.Style != nil {
		cfg.Style = StyleConfig{
			Stylesheets: raw.Style.Stylesheets,
			Variables:   raw.Style.Variables,
			Rules:       raw.Style.Rules,
		}
	}
	if raw.Hooks != nil {
		cfg.Hooks = raw.Hooks
	}

	if raw.Logging != nil {
		assign(&cfg.Logging.Level, raw.Logging.Level)
		assign(&cfg.Logging.File, raw.Logging.File)
		assign(&cfg.Logging.Format, raw.Logging.Format)
		assign(&cfg.Logging.MaxSizeMB, raw.Logging.MaxSizeMB)
		assign(&cfg.Logging.MaxFiles, raw.Logging.MaxFiles)
	}
	if raw.Metrics != nil {
		assign(&cfg.Metrics.Listen, raw.Metrics.Listen)
	}

	return cfg, nil
}

func buildWorkspaces(raw []RawWorkspace, defaults LayoutDefaults) ([]WorkspaceConfig, error) {
	out := make([]WorkspaceConfig, 0, len(raw))
	for i, rw := range raw {
		ws := WorkspaceConfig{
			ID:         i + 1,
			Name:       fmt.Sprintf("%d", i+1),
			Layout:     defaults.Mode,
			Gaps:       defaults.Gaps,
			SplitRatio: defaults.SplitRatio,
		}
		assign(&ws.ID, rw.ID)
		assign(&ws.Name, rw.Name)
		if rw.Layout != nil {
			mode, err := ParseLayoutMode(*rw.Layout)
			if err != nil {
				return nil, &ValidationError{Path: fmt.Sprintf("workspaces[%d].layout", i), Err: err}
			}
			ws.Layout = mode
		}
		if rw.Gaps != nil {
			assign(&ws.Gaps.Outer, rw.Gaps.Outer)
			assign(&ws.Gaps.Inner, rw.Gaps.Inner)
		}
		assign(&ws.SplitRatio, rw.SplitRatio)
		out = append(out, ws)
	}
	return out, nil
}

func buildWidgets(raw []RawWidget) []WidgetConfig {
	out := make([]WidgetConfig, 0, len(raw))
	for _, rw := range raw {
		var w WidgetConfig
		if rw.Type != nil {
			w.Type = WidgetType(*rw.Type)
		}
		assign(&w.Display, rw.Display)
		assign(&w.MaxWidth, rw.MaxWidth)
		assign(&w.Format, rw.Format)
		assign(&w.Text, rw.Text)
		assign(&w.Class, rw.Class)
		switch w.Type {
		case WidgetSpacer:
			w.Flex = 1
		case WidgetClock:
			w.Format = "%H:%M"
			assign(&w.Format, rw.Format)
		case WidgetWorkspaces:
			if w.Display == "" {
				w.Display = "numbers"
			}
		}
		assign(&w.Flex, rw.Flex)
		out = append(out, w)
	}
	return out
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
