package variables_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

var defs = []flow.Variable{
	{ID: "v1", Name: "Name"},
	{ID: "v2", Name: "Email"},
	{ID: "v3", Name: "Greeting"},
}

func TestSubstitute_ReplacesBoundVariables(t *testing.T) {
	bindings := variables.Bindings{}.Set("v1", "Ada").Set("v2", "ada@example.com")

	out := variables.Substitute("Hi {{Name}}, we wrote to {{Email}}", defs, bindings)
	assert.Equal(t, "Hi Ada, we wrote to ada@example.com", out)
}

func TestSubstitute_UnsetVariableBecomesEmpty(t *testing.T) {
	out := variables.Substitute("Hi {{Name}}!", defs, nil)
	assert.Equal(t, "Hi !", out)
}

func TestSubstitute_UnknownNameBecomesEmpty(t *testing.T) {
	bindings := variables.Bindings{}.Set("v1", "Ada")
	out := variables.Substitute("{{Nope}}-{{Name}}", defs, bindings)
	assert.Equal(t, "-Ada", out)
}

func TestSubstitute_WhitespaceInsidePlaceholder(t *testing.T) {
	bindings := variables.Bindings{}.Set("v1", "Ada")
	out := variables.Substitute("Hi {{  Name  }}", defs, bindings)
	assert.Equal(t, "Hi Ada", out)
}

func TestSubstitute_CaseSensitiveNames(t *testing.T) {
	bindings := variables.Bindings{}.Set("v1", "Ada")
	out := variables.Substitute("{{name}}", defs, bindings)
	assert.Equal(t, "", out)
}

func TestSubstitute_SinglePassNoRecursion(t *testing.T) {
	// A value containing placeholder syntax must come out verbatim.
	bindings := variables.Bindings{}.Set("v3", "{{Name}}").Set("v1", "Ada")

	out := variables.Substitute("{{Greeting}}", defs, bindings)
	assert.Equal(t, "{{Name}}", out)
}

func TestSubstitute_NoPlaceholders(t *testing.T) {
	out := variables.Substitute("plain text", defs, nil)
	assert.Equal(t, "plain text", out)
}

func TestSet_OverwritesExistingBinding(t *testing.T) {
	bindings := variables.Bindings{}.Set("v1", "Ada").Set("v1", "Grace")

	value, ok := bindings.ValueByID("v1")
	assert.True(t, ok)
	assert.Equal(t, "Grace", value)
	assert.Len(t, bindings, 1)
}

func TestValueByName(t *testing.T) {
	bindings := variables.Bindings{}.Set("v2", "ada@example.com")

	value, ok := bindings.ValueByName(defs, "Email")
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", value)

	_, ok = bindings.ValueByName(defs, "Name")
	assert.False(t, ok)
}

func TestClone_IsIndependent(t *testing.T) {
	original := variables.Bindings{}.Set("v1", "Ada")
	clone := original.Clone().Set("v1", "Grace")

	value, _ := original.ValueByID("v1")
	assert.Equal(t, "Ada", value)
	value, _ = clone.ValueByID("v1")
	assert.Equal(t, "Grace", value)
}

func TestEnv_ExposesNamesForExpressions(t *testing.T) {
	bindings := variables.Bindings{}.Set("v1", "Ada")

	env := variables.Env(defs, bindings)
	assert.Equal(t, "Ada", env["Name"])
	assert.NotContains(t, env, "Email") // unset variables stay out of scope
}
