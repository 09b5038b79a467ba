package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ndanaka/chatflow/pkg/condition"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

var defs = []flow.Variable{
	{ID: "score", Name: "Score"},
	{ID: "name", Name: "Name"},
	{ID: "other", Name: "Other"},
}

func comparison(varID string, op flow.ComparisonOperator, value string) flow.Comparison {
	return flow.Comparison{ID: "c", VariableID: varID, ComparisonOperator: op, Value: value}
}

func TestMatch_Operators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		op    flow.ComparisonOperator
		value string
		want  bool
	}{
		{"equal", "hello", flow.OperatorEqual, "hello", true},
		{"equal is case sensitive", "Hello", flow.OperatorEqual, "hello", false},
		{"not equal", "a", flow.OperatorNotEqual, "b", true},
		{"contains folds case", "Hello World", flow.OperatorContains, "WORLD", true},
		{"does not contain", "Hello", flow.OperatorNotContains, "bye", true},
		{"starts with folds case", "Hello World", flow.OperatorStartsWith, "hello", true},
		{"ends with folds case", "Hello World", flow.OperatorEndsWith, "WORLD", true},
		{"greater numeric", "10", flow.OperatorGreater, "9.5", true},
		{"greater non-numeric left", "abc", flow.OperatorGreater, "1", false},
		{"greater non-numeric right", "10", flow.OperatorGreater, "abc", false},
		{"less numeric", "2", flow.OperatorLess, "3", true},
		{"is set on non-empty", "x", flow.OperatorIsSet, "", true},
		{"is empty on empty", "", flow.OperatorIsEmpty, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, condition.Match(tc.input, tc.op, tc.value))
		})
	}
}

func TestEvaluate_AndRequiresAll(t *testing.T) {
	bindings := variables.Bindings{}.Set("score", "10").Set("name", "Ada")

	cond := flow.Condition{
		LogicalOperator: flow.LogicalAnd,
		Comparisons: []flow.Comparison{
			comparison("score", flow.OperatorGreater, "5"),
			comparison("name", flow.OperatorEqual, "Ada"),
		},
	}
	assert.True(t, condition.Evaluate(cond, defs, bindings))

	cond.Comparisons[1].Value = "Grace"
	assert.False(t, condition.Evaluate(cond, defs, bindings))
}

func TestEvaluate_OrRequiresAny(t *testing.T) {
	bindings := variables.Bindings{}.Set("score", "1")

	cond := flow.Condition{
		LogicalOperator: flow.LogicalOr,
		Comparisons: []flow.Comparison{
			comparison("score", flow.OperatorGreater, "5"),
			comparison("score", flow.OperatorLess, "5"),
		},
	}
	assert.True(t, condition.Evaluate(cond, defs, bindings))
}

func TestEvaluate_EmptyComparisons(t *testing.T) {
	bindings := variables.Bindings{}

	assert.True(t, condition.Evaluate(flow.Condition{LogicalOperator: flow.LogicalAnd}, defs, bindings))
	assert.False(t, condition.Evaluate(flow.Condition{LogicalOperator: flow.LogicalOr}, defs, bindings))
}

func TestEvaluate_MissingVariableIDNeverHolds(t *testing.T) {
	cond := flow.Condition{
		LogicalOperator: flow.LogicalOr,
		Comparisons:     []flow.Comparison{comparison("", flow.OperatorEqual, "x")},
	}
	assert.False(t, condition.Evaluate(cond, defs, nil))
}

func TestEvaluate_EmptyRightOperandNeverHolds(t *testing.T) {
	bindings := variables.Bindings{}.Set("name", "")

	cond := flow.Condition{
		LogicalOperator: flow.LogicalOr,
		Comparisons:     []flow.Comparison{comparison("name", flow.OperatorEqual, "")},
	}
	assert.False(t, condition.Evaluate(cond, defs, bindings))
}

func TestEvaluate_IsSetDistinguishesUnsetFromEmpty(t *testing.T) {
	set := variables.Bindings{}.Set("name", "Ada")
	empty := variables.Bindings{}.Set("name", "")

	cond := flow.Condition{
		LogicalOperator: flow.LogicalAnd,
		Comparisons:     []flow.Comparison{comparison("name", flow.OperatorIsSet, "")},
	}
	assert.True(t, condition.Evaluate(cond, defs, set))
	assert.False(t, condition.Evaluate(cond, defs, empty))
	assert.False(t, condition.Evaluate(cond, defs, nil))
}

func TestEvaluate_RightOperandSubstituted(t *testing.T) {
	bindings := variables.Bindings{}.Set("name", "Ada").Set("other", "Ada")

	cond := flow.Condition{
		LogicalOperator: flow.LogicalAnd,
		Comparisons:     []flow.Comparison{comparison("name", flow.OperatorEqual, "{{Other}}")},
	}
	assert.True(t, condition.Evaluate(cond, defs, bindings))
}

func TestPickEdge_FirstItemEdgeWhenPredicateHolds(t *testing.T) {
	bindings := variables.Bindings{}.Set("score", "10")

	block := &flow.LogicBlock{
		BaseBlock: flow.BaseBlock{ID: "b", Type: flow.BlockCondition, OutgoingEdgeID: "edge-default"},
		Items: []flow.ConditionItem{
			{
				ID:             "i1",
				OutgoingEdgeID: "edge-high",
				Content: flow.Condition{
					LogicalOperator: flow.LogicalAnd,
					Comparisons:     []flow.Comparison{comparison("score", flow.OperatorGreater, "5")},
				},
			},
		},
	}

	assert.Equal(t, "edge-high", condition.PickEdge(block, defs, bindings))
}

func TestPickEdge_OnlyFirstItemIsEvaluated(t *testing.T) {
	bindings := variables.Bindings{}.Set("score", "10")

	// A later item whose predicate holds must not steal the branch; the
	// block resolves on the first item alone.
	block := &flow.LogicBlock{
		BaseBlock: flow.BaseBlock{ID: "b", Type: flow.BlockCondition, OutgoingEdgeID: "edge-default"},
		Items: []flow.ConditionItem{
			{
				ID:             "i1",
				OutgoingEdgeID: "edge-low",
				Content: flow.Condition{
					LogicalOperator: flow.LogicalAnd,
					Comparisons:     []flow.Comparison{comparison("score", flow.OperatorLess, "5")},
				},
			},
			{
				ID:             "i2",
				OutgoingEdgeID: "edge-high",
				Content: flow.Condition{
					LogicalOperator: flow.LogicalAnd,
					Comparisons:     []flow.Comparison{comparison("score", flow.OperatorGreater, "5")},
				},
			},
		},
	}

	assert.Equal(t, "edge-default", condition.PickEdge(block, defs, bindings))
}

func TestPickEdge_NoItems(t *testing.T) {
	block := &flow.LogicBlock{
		BaseBlock: flow.BaseBlock{ID: "b", Type: flow.BlockCondition, OutgoingEdgeID: "edge-default"},
	}
	assert.Equal(t, "edge-default", condition.PickEdge(block, defs, nil))
}

func TestPickEdge_FallsBackToDefaultEdge(t *testing.T) {
	block := &flow.LogicBlock{
		BaseBlock: flow.BaseBlock{ID: "b", Type: flow.BlockCondition, OutgoingEdgeID: "edge-default"},
		Items: []flow.ConditionItem{
			{
				ID:             "i1",
				OutgoingEdgeID: "edge-yes",
				Content: flow.Condition{
					LogicalOperator: flow.LogicalAnd,
					Comparisons:     []flow.Comparison{comparison("score", flow.OperatorIsSet, "")},
				},
			},
		},
	}

	assert.Equal(t, "edge-default", condition.PickEdge(block, defs, nil))
}
