package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/1broseidon/tessel/internal/style"
)

// DefaultStylesheet is loaded before any user stylesheet, so user rules of
// equal specificity override it.
const DefaultStylesheet = `
:root {
  --bg-primary: #1e1e2e;
  --fg-primary: #cdd6f4;
  --fg-dim: #6c7086;
  --accent: #89b4fa;
  --surface: #313244;
  --border-focus: var(--accent);
  --border-normal: var(--surface);
}
desktop { background-color: var(--bg-primary); }
window { border-color: var(--border-normal); border-width: 2px; }
window:focus { border-color: var(--border-focus); }
bar { background-color: rgba(28, 28, 46, 0.95); color: var(--fg-primary); }
workspace { background-color: transparent; color: var(--fg-primary); }
workspace.occupied { background-color: var(--surface); }
workspace.empty { color: var(--fg-dim); }
workspace:active { background-color: var(--accent); color: #1c1c2e; }
window-title { color: var(--fg-primary); }
clock { color: var(--fg-primary); }
text { color: var(--fg-primary); }
`

// StyleSet is the combined rule set and variable table for a configuration.
type StyleSet struct {
	Rules     []style.Rule
	Variables map[string]string
	Files     []string
	Skipped   []error
}

// LoadStyles parses the default stylesheet, every configured stylesheet
// (relative to baseDir) and the inline rules, in that order.
func LoadStyles(cfg *Config, baseDir string) (*StyleSet, error) {
	set := &StyleSet{Variables: make(map[string]string)}

	add := func(sheet *style.Sheet) {
		set.Rules = append(set.Rules, sheet.Rules...)
		for k, v := range sheet.Variables {
			set.Variables[k] = v
		}
		set.Skipped = append(set.Skipped, sheet.Skipped...)
	}

	def, err := style.ParseSheet(DefaultStylesheet, 0)
	if err != nil {
		return nil, fmt.Errorf("default stylesheet: %w", err)
	}
	add(def)

	for _, p := range cfg.Style.Stylesheets {
		path, err := resolvePath(baseDir, p)
		if err != nil {
			return nil, &ValidationError{Path: "style.stylesheets", Err: err}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read stylesheet: %w", path, err)
		}
		sheet, err := style.ParseSheet(string(data), len(set.Rules))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		add(sheet)
		set.Files = append(set.Files, path)
	}

	for name, value := range cfg.Style.Variables {
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		set.Variables[name] = value
	}

	for i, rc := range cfg.Style.Rules {
		for _, text := range strings.Split(rc.Selector, ",") {
			sel, err := style.ParseSelector(text)
			if err != nil {
				return nil, &ValidationError{Path: fmt.Sprintf("style.rules[%d].selector", i), Err: err}
			}
			props := make([]string, 0, len(rc.Properties))
			for prop := range rc.Properties {
				props = append(props, prop)
			}
			sort.Strings(props)
			rule := style.Rule{Selector: sel, Order: len(set.Rules)}
			for _, prop := range props {
				rule.Declarations = append(rule.Declarations, style.Declaration{Property: prop, Value: rc.Properties[prop]})
			}
			set.Rules = append(set.Rules, rule)
		}
	}
	return set, nil
}
