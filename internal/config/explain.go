package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a YAML-like path and where it came from.
//
// Paths use the config file's keys, with sequence items addressed by index:
//
//	output.width
//	layout.gaps.outer
//	workspaces[2].layout
//	bar.widgets[0].type
//	keybindings[0].keys
//	hooks.window-create
//	style.variables.accent
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// String renders a source as "default" or "file:line:col".
func (s Source) String() string {
	if s.Kind != SourceFile {
		return string(SourceDefault)
	}
	if s.Line > 0 {
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
	return s.File
}

func lookupValue(cfg *Config, path string) (any, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	node := &root
	for _, seg := range splitPath(path) {
		next, err := descend(node, seg)
		if err != nil {
			return nil, fmt.Errorf("unknown path: %s: %w", path, err)
		}
		node = next
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return value, nil
}

// splitPath turns "bar.widgets[0].type" into ["bar", "widgets", "[0]", "type"].
func splitPath(path string) []string {
	var out []string
	for _, part := range strings.Split(path, ".") {
		for part != "" {
			i := strings.IndexByte(part, '[')
			if i < 0 {
				out = append(out, part)
				break
			}
			if i > 0 {
				out = append(out, part[:i])
			}
			j := strings.IndexByte(part[i:], ']')
			if j < 0 {
				out = append(out, part[i:])
				break
			}
			out = append(out, part[i:i+j+1])
			part = part[i+j+1:]
		}
	}
	return out
}

func descend(node *yaml.Node, seg string) (*yaml.Node, error) {
	if strings.HasPrefix(seg, "[") {
		if node.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%s: not a list", seg)
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(seg, "["), "]"))
		if err != nil {
			return nil, fmt.Errorf("%s: bad index", seg)
		}
		if idx < 0 || idx >= len(node.Content) {
			return nil, fmt.Errorf("%s: index out of range (have %d)", seg, len(node.Content))
		}
		return node.Content[idx], nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: not a mapping", seg)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == seg {
			return node.Content[i+1], nil
		}
	}
	return nil, fmt.Errorf("no key %q", seg)
}
