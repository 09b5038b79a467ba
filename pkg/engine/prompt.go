package engine

import (
	"github.com/google/uuid"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

const defaultRetryMessage = "Invalid message. Please, try again."

// buildPrompt materializes an input block for the client: labels and choice
// items substituted, plus the bound variable's value as prefill when the
// flow opts in.
func (e *Engine) buildPrompt(b *flow.InputBlock, groupID string, defs []flow.Variable, bindings variables.Bindings, settings flow.Settings) *InputPrompt {
	opts := b.Options
	opts.Labels.Placeholder = variables.Substitute(opts.Labels.Placeholder, defs, bindings)
	opts.Labels.Button = variables.Substitute(opts.Labels.Button, defs, bindings)

	var items []flow.ChoiceItem
	if len(b.Items) > 0 {
		items = make([]flow.ChoiceItem, len(b.Items))
		for i, item := range b.Items {
			item.Content = variables.Substitute(item.Content, defs, bindings)
			items[i] = item
		}
	}

	prompt := &InputPrompt{
		BlockID: b.ID,
		GroupID: groupID,
		Type:    b.Type,
		Options: opts,
		Items:   items,
	}
	if settings.General.IsInputPrefillEnabled && opts.VariableID != "" {
		if value, ok := bindings.ValueByID(opts.VariableID); ok {
			prompt.Prefilled = value
		}
	}
	return prompt
}

// retryMessage builds the bubble shown when a reply fails validation.
func retryMessage(b *flow.InputBlock, defs []flow.Variable, bindings variables.Bindings) Message {
	text := b.Options.RetryMessageContent
	if text == "" {
		text = defaultRetryMessage
	}
	return Message{
		ID:   uuid.NewString(),
		Type: flow.BlockText,
		Content: flow.BubbleContent{
			Text: variables.Substitute(text, defs, bindings),
		},
	}
}
