// Package templating substitutes {{variable}} placeholders in template HTML
// and models the two kinds of templates a user can send: predefined ones
// shipped with the binary and stored ones owned by users.
package templating

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mode selects how placeholders without a value are handled.
type Mode int

const (
	// ModePreview renders a missing variable as [name].
	ModePreview Mode = iota
	// ModeSend fails with *MissingVariablesError when any variable is missing.
	ModeSend
)

// Placeholders allow inner whitespace: {{ name }} and {{name}} are the same.
// Anything else between braces, such as {{#each items}}, is left literal.
var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// MissingVariablesError lists variables referenced by a template but absent
// from the supplied values. Names are sorted and unique.
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing template variables: %s", strings.Join(e.Names, ", "))
}

// Render replaces every placeholder in html. Values are inserted verbatim.
func Render(html string, vars map[string]string, mode Mode) (string, error) {
	var missing map[string]struct{}
	out := placeholder.ReplaceAllStringFunc(html, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		if mode == ModeSend {
			if missing == nil {
				missing = make(map[string]struct{})
			}
			missing[name] = struct{}{}
			return m
		}
		return "[" + name + "]"
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", &MissingVariablesError{Names: names}
	}
	return out, nil
}

// ExtractVariables returns the placeholder names in html, unique, in order of
// first appearance.
func ExtractVariables(html string) []string {
	matches := placeholder.FindAllStringSubmatch(html, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}
