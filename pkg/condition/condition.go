// Package condition evaluates AND/OR comparison trees against the current
// variable bindings. The same operator semantics back condition blocks and
// channel start-conditions, which match the raw inbound message instead of
// a bound variable.
package condition

import (
	"strconv"
	"strings"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

// Evaluate reports whether the condition holds under the given bindings.
// An AND over zero comparisons is vacuously true; an OR is vacuously false.
func Evaluate(cond flow.Condition, defs []flow.Variable, bindings variables.Bindings) bool {
	if cond.LogicalOperator == flow.LogicalOr {
		for _, c := range cond.Comparisons {
			if evaluateComparison(c, defs, bindings) {
				return true
			}
		}
		return false
	}
	for _, c := range cond.Comparisons {
		if !evaluateComparison(c, defs, bindings) {
			return false
		}
	}
	return true
}

func evaluateComparison(c flow.Comparison, defs []flow.Variable, bindings variables.Bindings) bool {
	// A comparison with no configured variable can never hold.
	if c.VariableID == "" {
		return false
	}
	inputValue, isSet := bindings.ValueByID(c.VariableID)
	inputValue = strings.TrimSpace(inputValue)

	// IS_SET / IS_EMPTY ignore the right operand entirely.
	switch c.ComparisonOperator {
	case flow.OperatorIsSet:
		return isSet && len(inputValue) > 0
	case flow.OperatorIsEmpty:
		return len(inputValue) == 0
	}

	value := strings.TrimSpace(variables.Substitute(c.Value, defs, bindings))
	if value == "" {
		return false
	}
	return Match(inputValue, c.ComparisonOperator, value)
}

// Match applies one comparison operator to a left operand and an already
// resolved right operand. Channel adapters call it directly with the raw
// inbound message as the left operand.
func Match(inputValue string, op flow.ComparisonOperator, value string) bool {
	switch op {
	case flow.OperatorEqual:
		return inputValue == value
	case flow.OperatorNotEqual:
		return inputValue != value
	case flow.OperatorContains:
		return containsFold(inputValue, value)
	case flow.OperatorNotContains:
		return !containsFold(inputValue, value)
	case flow.OperatorStartsWith:
		return strings.HasPrefix(strings.ToLower(inputValue), strings.ToLower(value))
	case flow.OperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(inputValue), strings.ToLower(value))
	case flow.OperatorGreater:
		left, right, ok := parseBoth(inputValue, value)
		return ok && left > right
	case flow.OperatorLess:
		left, right, ok := parseBoth(inputValue, value)
		return ok && left < right
	case flow.OperatorIsSet:
		return len(inputValue) > 0
	case flow.OperatorIsEmpty:
		return len(inputValue) == 0
	default:
		return false
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(
		strings.ToLower(strings.TrimSpace(haystack)),
		strings.ToLower(strings.TrimSpace(needle)),
	)
}

// parseBoth parses both operands as floats. Non-numeric text makes the
// comparison false rather than an error.
func parseBoth(left, right string) (float64, float64, bool) {
	l, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, false
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, false
	}
	return l, r, true
}

// PickEdge resolves a condition block to the edge to follow. The predicate
// lives on the block's first item: when it holds the item's edge is taken,
// falling back to the block's default edge when the item has none or the
// predicate fails. An empty return ends the branch.
func PickEdge(block *flow.LogicBlock, defs []flow.Variable, bindings variables.Bindings) string {
	if len(block.Items) == 0 {
		return block.OutgoingEdgeID
	}
	item := block.Items[0]
	if Evaluate(item.Content, defs, bindings) && item.OutgoingEdgeID != "" {
		return item.OutgoingEdgeID
	}
	return block.OutgoingEdgeID
}
