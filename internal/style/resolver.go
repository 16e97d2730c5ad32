// Package style resolves cascading style rules into concrete per-element
// visual attributes.
package style

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ErrVariableUnresolved is reported when a var() reference has no definition
// and no inline fallback.
var ErrVariableUnresolved = errors.New("style variable unresolved")

// Declaration is a single property: value pair as written.
type Declaration struct {
	Property string
	Value    string
}

// Rule is one selector with its declarations. Order is the declaration
// position across all loaded sheets and breaks specificity ties.
type Rule struct {
	Selector     Selector
	Order        int
	Declarations []Declaration
}

// Specificity returns the rule's precedence score.
func (r Rule) Specificity() int {
	return r.Selector.Specificity()
}

type compiledRule struct {
	sel         Selector
	specificity int
	order       int
	props       []string
	values      map[string]Value
}

// Resolver folds matching rules for element queries. It is safe for concurrent use.
type Resolver struct {
	rules  []compiledRule
	vars   map[string]string
	issues []error

	mu   sync.Mutex
	memo map[string]Resolved
}

// NewResolver compiles rules against the variable table. Variables are
// substituted once here; declarations that cannot be resolved or parsed are
// dropped and logged so callers fall back to their own defaults.
func NewResolver(rules []Rule, vars map[string]string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		vars: make(map[string]string, len(vars)),
		memo: make(map[string]Resolved),
	}
	for name, value := range vars {
		r.vars[normalizeVarName(name)] = value
	}

	for _, rule := range rules {
		cr := compiledRule{
			sel:         rule.Selector,
			specificity: rule.Specificity(),
			order:       rule.Order,
			values:      make(map[string]Value, len(rule.Declarations)),
		}
		for _, decl := range rule.Declarations {
			prop := strings.ToLower(strings.TrimSpace(decl.Property))
			raw, missing := r.substitute(decl.Value, nil)
			if len(missing) > 0 {
				err := fmt.Errorf("%w: %s in %s { %s }", ErrVariableUnresolved,
					strings.Join(missing, ", "), rule.Selector, prop)
				r.issues = append(r.issues, err)
				logger.Warn("style variable unresolved",
					"selector", rule.Selector.String(),
					"property", prop,
					"variables", missing)
				continue
			}
			v, err := parseValue(prop, raw)
			if err != nil {
				r.issues = append(r.issues, fmt.Errorf("%s { %s }: %w", rule.Selector, prop, err))
				logger.Warn("style value ignored",
					"selector", rule.Selector.String(),
					"property", prop,
					"error", err)
				continue
			}
			if _, seen := cr.values[prop]; !seen {
				cr.props = append(cr.props, prop)
			}
			cr.values[prop] = v
		}
		r.rules = append(r.rules, cr)
	}

	sort.SliceStable(r.rules, func(i, j int) bool {
		if r.rules[i].specificity != r.rules[j].specificity {
			return r.rules[i].specificity < r.rules[j].specificity
		}
		return r.rules[i].order < r.rules[j].order
	})
	return r
}

// Issues returns the recoverable problems found while compiling rules.
func (r *Resolver) Issues() []error {
	return append([]error(nil), r.issues...)
}

// Variable returns the fully substituted value of a variable.
func (r *Resolver) Variable(name string) (string, bool) {
	v, missing := r.substitute("var("+normalizeVarName(name)+")", nil)
	if len(missing) > 0 {
		return "", false
	}
	return v, true
}

// Resolve folds every rule matching (kind, state, classes) in ascending
// (specificity, order) so later and more specific rules win.
func (r *Resolver) Resolve(kind, state string, classes []string) Resolved {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	key := memoKey(kind, state, set)

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.memo[key]; ok {
		return res
	}

	props := make(map[string]Value)
	for _, rule := range r.rules {
		if !rule.sel.Matches(kind, state, set) {
			continue
		}
		for _, p := range rule.props {
			props[p] = rule.values[p]
		}
	}
	res := Resolved{props: props}
	r.memo[key] = res
	return res
}

func memoKey(kind, state string, set map[string]struct{}) string {
	classes := make([]string, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return kind + "\x00" + state + "\x00" + strings.Join(classes, "\x00")
}

// substitute replaces every var() reference in value, depth-first.
// stack holds the variables currently being expanded; a reference back into
// the stack is a cycle and counts as undefined.
func (r *Resolver) substitute(value string, stack []string) (string, []string) {
	var out strings.Builder
	var missing []string
	rest := value
	for {
		idx := strings.Index(rest, "var(")
		if idx < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:idx])
		body, tail, ok := splitCall(rest[idx+len("var("):])
		if !ok {
			out.WriteString(rest[idx:])
			break
		}
		rest = tail

		name, fallback, hasFallback := strings.Cut(body, ",")
		name = normalizeVarName(name)

		if raw, defined := r.vars[name]; defined && !contains(stack, name) {
			v, inner := r.substitute(raw, append(stack, name))
			if len(inner) == 0 {
				out.WriteString(v)
				continue
			}
			if !hasFallback {
				missing = append(missing, inner...)
				continue
			}
		}
		if hasFallback {
			v, inner := r.substitute(strings.TrimSpace(fallback), stack)
			missing = append(missing, inner...)
			out.WriteString(v)
			continue
		}
		missing = append(missing, name)
	}
	return strings.TrimSpace(out.String()), missing
}

// splitCall returns the body up to the matching close paren and the text after it.
func splitCall(s string) (body, tail string, ok bool) {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

func normalizeVarName(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "--") {
		name = "--" + strings.TrimLeft(name, "-")
	}
	return name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
