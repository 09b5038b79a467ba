// Package variables holds the runtime variable bindings of a session and
// the {{name}} template substitution applied to every user-facing string.
package variables

import (
	"regexp"
	"strings"

	"github.com/ndanaka/chatflow/pkg/flow"
)

// Binding pairs a variable definition id with its current value. An absent
// binding and a binding to "" both render as the empty string, but only the
// former counts as unset for IS_SET.
type Binding struct {
	ID    string `json:"id"`
	Value string `json:"value,omitempty"`
}

// Bindings is the live variable state of one flow frame.
type Bindings []Binding

// ValueByID returns the bound value and whether the variable is set.
func (b Bindings) ValueByID(id string) (string, bool) {
	for _, binding := range b {
		if binding.ID == id {
			return binding.Value, true
		}
	}
	return "", false
}

// ValueByName resolves a variable name through the definitions, then looks
// up its binding. Name matching is case-sensitive.
func (b Bindings) ValueByName(defs []flow.Variable, name string) (string, bool) {
	for _, def := range defs {
		if def.Name == name {
			return b.ValueByID(def.ID)
		}
	}
	return "", false
}

// Set updates the binding for id, creating it when absent, and returns the
// updated list.
func (b Bindings) Set(id, value string) Bindings {
	for i := range b {
		if b[i].ID == id {
			b[i].Value = value
			return b
		}
	}
	return append(b, Binding{ID: id, Value: value})
}

// Clone returns an independent copy safe to mutate.
func (b Bindings) Clone() Bindings {
	if b == nil {
		return nil
	}
	out := make(Bindings, len(b))
	copy(out, b)
	return out
}

// placeholderPattern matches {{ name }} with optional inner whitespace.
// Names may not contain braces; everything else is matched literally.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Substitute replaces every {{name}} placeholder in template with the bound
// value of the matching variable, or the empty string when the variable is
// unknown or unset. Substitution is a single pass: values are never
// re-scanned for further placeholders, so self-referencing values cannot
// loop.
func Substitute(template string, defs []flow.Variable, bindings Bindings) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		value, _ := bindings.ValueByName(defs, name)
		return value
	})
}

// Env builds a name→value map of all set variables, used as the evaluation
// environment for custom set-variable expressions.
func Env(defs []flow.Variable, bindings Bindings) map[string]any {
	env := make(map[string]any, len(defs))
	for _, def := range defs {
		if value, ok := bindings.ValueByID(def.ID); ok {
			env[def.Name] = value
		}
	}
	return env
}
