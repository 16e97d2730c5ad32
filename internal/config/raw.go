package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawOutput struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawGaps struct {
	Outer *int `yaml:"outer"`
	Inner *int `yaml:"inner"`
}

type RawLayout struct {
	Mode           *string  `yaml:"mode"`
	Gaps           *RawGaps `yaml:"gaps"`
	SplitRatio     *float64 `yaml:"split_ratio"`
	FloatingWidth  *int     `yaml:"floating_width"`
	FloatingHeight *int     `yaml:"floating_height"`
}

type RawWorkspace struct {
	ID         *int     `yaml:"id"`
	Name       *string  `yaml:"name"`
	Layout     *string  `yaml:"layout"`
	Gaps       *RawGaps `yaml:"gaps"`
	SplitRatio *float64 `yaml:"split_ratio"`
}

type RawWidget struct {
	Type     *string `yaml:"type"`
	Display  *string `yaml:"display"`
	MaxWidth *int    `yaml:"max_width"`
	Format   *string `yaml:"format"`
	Flex     *int    `yaml:"flex"`
	Text     *string `yaml:"text"`
	Class    *string `yaml:"class"`
}

type RawBar struct {
	Enabled  *bool       `yaml:"enabled"`
	Position *string     `yaml:"position"`
	Height   *int        `yaml:"height"`
	Class    *string     `yaml:"class"`
	Font     *string     `yaml:"font"`
	Widgets  []RawWidget `yaml:"widgets"`
}

type RawStyle struct {
	Stylesheets []string          `yaml:"stylesheets"`
	Variables   map[string]string `yaml:"variables"`
	Rules       []StyleRuleConfig `yaml:"rules"`
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	Format    *string `yaml:"format"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawMetrics struct {
	Listen *string `yaml:"listen"`
}

type RawConfig struct {
	Include              IncludeList        `yaml:"include"`
	Output               *RawOutput         `yaml:"output"`
	FrameRate            *int               `yaml:"frame_rate"`
	Terminal             *string            `yaml:"terminal"`
	Layout               *RawLayout         `yaml:"layout"`
	Workspaces           []RawWorkspace     `yaml:"workspaces"`
	Bar                  *RawBar            `yaml:"bar"`
	Keybindings          []KeybindingConfig `yaml:"keybindings"`
	DuplicateKeybindings *string            `yaml:"duplicate_keybindings"`
	WindowRules          []WindowRule       `yaml:"window_rules"`
	Style                *RawStyle          `yaml:"style"`
	Hooks                map[string]string  `yaml:"hooks"`
	Logging              *RawLoggingConfig  `yaml:"logging"`
	Metrics              *RawMetrics        `yaml:"metrics"`

	// baseDir is the directory of the file that last set Style.Stylesheets.
	baseDir string
}

// merge overlays non-nil fields of overlay onto c. Lists replace, maps merge.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Output != nil {
		if out.Output == nil {
			out.Output = &RawOutput{}
		}
		setIf(&out.Output.Width, overlay.Output.Width)
		setIf(&out.Output.Height, overlay.Output.Height)
	}
	setIf(&out.FrameRate, overlay.FrameRate)
	setIf(&out.Terminal, overlay.Terminal)
	if overlay.Layout != nil {
		if out.Layout == nil {
			out.Layout = &RawLayout{}
		}
		setIf(&out.Layout.Mode, overlay.Layout.Mode)
		out.Layout.Gaps = mergeGaps(out.Layout.Gaps, overlay.Layout.Gaps)
		setIf(&out.Layout.SplitRatio, overlay.Layout.SplitRatio)
		setIf(&out.Layout.FloatingWidth, overlay.Layout.FloatingWidth)
		setIf(&out.Layout.FloatingHeight, overlay.Layout.FloatingHeight)
	}
	if overlay.Workspaces != nil {
		out.Workspaces = overlay.Workspaces
	}
	if overlay.Bar != nil {
		if out.Bar == nil {
			out.Bar = &RawBar{}
		}
		setIf(&out.Bar.Enabled, overlay.Bar.Enabled)
		setIf(&out.Bar.Position, overlay.Bar.Position)
		setIf(&out.Bar.Height, overlay.Bar.Height)
		setIf(&out.Bar.Class, overlay.Bar.Class)
		setIf(&out.Bar.Font, overlay.Bar.Font)
		if overlay.Bar.Widgets != nil {
			out.Bar.Widgets = overlay.Bar.Widgets
		}
	}
	if overlay.Keybindings != nil {
		out.Keybindings = overlay.Keybindings
	}
	setIf(&out.DuplicateKeybindings, overlay.DuplicateKeybindings)
	if overlay.WindowRules != nil {
		out.WindowRules = overlay.WindowRules
	}
	if overlay.Style != nil {
		if out.Style == nil {
			out.Style = &RawStyle{}
		}
		if overlay.Style.Stylesheets != nil {
			out.Style.Stylesheets = overlay.Style.Stylesheets
			out.baseDir = overlay.baseDir
		}
		if overlay.Style.Variables != nil {
			if out.Style.Variables == nil {
				out.Style.Variables = make(map[string]string, len(overlay.Style.Variables))
			}
			for k, v := range overlay.Style.Variables {
				out.Style.Variables[k] = v
			}
		}
		out.Style.Rules = append(out.Style.Rules, overlay.Style.Rules...)
	}
	if overlay.Hooks != nil {
		if out.Hooks == nil {
			out.Hooks = make(map[string]string, len(overlay.Hooks))
		}
		for k, v := range overlay.Hooks {
			out.Hooks[k] = v
		}
	}
	if overlay.Logging != nil {
		if out.Logging == nil {
			out.Logging = &RawLoggingConfig{}
		}
		setIf(&out.Logging.Level, overlay.Logging.Level)
		setIf(&out.Logging.File, overlay.Logging.File)
		setIf(&out.Logging.Format, overlay.Logging.Format)
		setIf(&out.Logging.MaxSizeMB, overlay.Logging.MaxSizeMB)
		setIf(&out.Logging.MaxFiles, overlay.Logging.MaxFiles)
	}
	if overlay.Metrics != nil {
		if out.Metrics == nil {
			out.Metrics = &RawMetrics{}
		}
		setIf(&out.Metrics.Listen, overlay.Metrics.Listen)
	}
	return out
}

func mergeGaps(base, overlay *RawGaps) *RawGaps {
	if overlay == nil {
		return base
	}
	out := RawGaps{}
	if base != nil {
		out = *base
	}
	setIf(&out.Outer, overlay.Outer)
	setIf(&out.Inner, overlay.Inner)
	return &out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
