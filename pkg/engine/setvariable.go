package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

// evaluateSetVariable computes the value of a set-variable block. Custom
// expressions starting with "=" run through the expression engine with the
// session bindings in scope; anything else is a plain template.
func (e *Engine) evaluateSetVariable(opts *flow.SetVariableOptions, defs []flow.Variable, bindings variables.Bindings) string {
	switch opts.Kind {
	case flow.SetVariableEmpty:
		return ""
	case flow.SetVariableToday:
		return time.Now().Format("2006-01-02")
	case flow.SetVariableNow:
		return time.Now().Format(time.RFC3339)
	case flow.SetVariableRandomID:
		return uuid.NewString()
	case flow.SetVariableEnvironment:
		return e.environment
	}

	raw := opts.ExpressionToEvaluate
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "=") {
		return variables.Substitute(raw, defs, bindings)
	}

	source := strings.TrimPrefix(trimmed, "=")
	out, err := expr.Eval(source, variables.Env(defs, bindings))
	if err != nil {
		e.logger.Debug("set variable expression failed", "expression", source, "error", err)
		return ""
	}
	return stringifyExprResult(out)
}

func stringifyExprResult(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
