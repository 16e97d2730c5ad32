package style

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Sheet is a parsed stylesheet: ordered rules plus the :root variable table.
type Sheet struct {
	Rules     []Rule
	Variables map[string]string
	Skipped   []error
}

// ParseSheet parses CSS text. Rule orders start at firstOrder so several sheets
// can be concatenated while keeping declaration order global. Selectors that
// cannot be represented are skipped and reported in Skipped.
func ParseSheet(src string, firstOrder int) (*Sheet, error) {
	parsed, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse stylesheet: %w", err)
	}

	sheet := &Sheet{Variables: make(map[string]string)}
	order := firstOrder
	for _, r := range parsed.Rules {
		if r.Kind != css.QualifiedRule {
			sheet.Skipped = append(sheet.Skipped, fmt.Errorf("at-rule @%s is not supported", strings.TrimPrefix(r.Name, "@")))
			continue
		}
		decls := make([]Declaration, 0, len(r.Declarations))
		for _, d := range r.Declarations {
			decls = append(decls, Declaration{
				Property: strings.ReplaceAll(strings.TrimSpace(d.Property), " ", ""),
				Value:    strings.TrimSpace(d.Value),
			})
		}

		for _, text := range strings.Split(r.Prelude, ",") {
			sel, err := ParseSelector(text)
			if err != nil {
				sheet.Skipped = append(sheet.Skipped, err)
				continue
			}
			if sel.IsRoot() {
				for _, d := range decls {
					if strings.HasPrefix(d.Property, "--") {
						sheet.Variables[d.Property] = d.Value
					}
				}
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Selector:     sel,
				Order:        order,
				Declarations: decls,
			})
			order++
		}
	}
	return sheet, nil
}
