package whatsapp

import (
	"context"

	"github.com/ndanaka/chatflow/pkg/condition"
	"github.com/ndanaka/chatflow/pkg/flow"
)

// FlowSource lists the published flows enabled for the WhatsApp channel.
type FlowSource interface {
	WhatsAppFlows(ctx context.Context) ([]flow.Typebot, error)
}

// Resolve picks the flow that should answer a fresh conversation: the first
// enabled flow whose start condition matches the raw inbound text wins, and
// the first enabled flow without any start condition is the fallback.
// Returns nil when no flow volunteers.
func Resolve(candidates []flow.Typebot, messageText string) *flow.Typebot {
	var fallback *flow.Typebot
	for i := range candidates {
		candidate := &candidates[i]
		settings := candidate.Settings.WhatsApp
		if settings == nil || !settings.IsEnabled {
			continue
		}
		if settings.StartCondition == nil {
			if fallback == nil {
				fallback = candidate
			}
			continue
		}
		if matchesStartCondition(*settings.StartCondition, messageText) {
			return candidate
		}
	}
	return fallback
}

// matchesStartCondition evaluates a start condition against the raw message
// text. Unlike in-flow conditions there are no variables in scope: every
// comparison runs against the inbound text itself. AND over zero
// comparisons is vacuously true, OR is vacuously false, as in
// condition.Evaluate.
func matchesStartCondition(cond flow.Condition, text string) bool {
	if cond.LogicalOperator == flow.LogicalOr {
		for _, c := range cond.Comparisons {
			if condition.Match(text, c.ComparisonOperator, c.Value) {
				return true
			}
		}
		return false
	}
	for _, c := range cond.Comparisons {
		if !condition.Match(text, c.ComparisonOperator, c.Value) {
			return false
		}
	}
	return true
}
