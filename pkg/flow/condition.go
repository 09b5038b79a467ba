package flow

// LogicalOperator joins the comparisons of a condition.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// ComparisonOperator is one comparison primitive. String matching operators
// are case-insensitive; GREATER/LESS parse both sides as floats and are
// false when either side fails to parse.
type ComparisonOperator string

const (
	OperatorEqual       ComparisonOperator = "Equal to"
	OperatorNotEqual    ComparisonOperator = "Not equal"
	OperatorContains    ComparisonOperator = "Contains"
	OperatorNotContains ComparisonOperator = "Does not contain"
	OperatorGreater     ComparisonOperator = "Greater than"
	OperatorLess        ComparisonOperator = "Less than"
	OperatorStartsWith  ComparisonOperator = "Starts with"
	OperatorEndsWith    ComparisonOperator = "Ends with"
	OperatorIsSet       ComparisonOperator = "Is set"
	OperatorIsEmpty     ComparisonOperator = "Is empty"
)

// Condition is an AND/OR tree of comparisons. It appears in condition block
// items and in channel start-conditions (Settings.WhatsApp).
type Condition struct {
	LogicalOperator LogicalOperator `json:"logicalOperator"`
	Comparisons     []Comparison    `json:"comparisons"`
}

// Comparison compares a variable's current value against a right operand
// that may itself contain variable placeholders.
type Comparison struct {
	ID                 string             `json:"id,omitempty"`
	VariableID         string             `json:"variableId,omitempty"`
	ComparisonOperator ComparisonOperator `json:"comparisonOperator,omitempty"`
	Value              string             `json:"value,omitempty"`
}
