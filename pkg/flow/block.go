package flow

// BlockType is the wire discriminator stored in the snapshot JSON.
type BlockType string

// Bubble blocks: static content, never wait for input.
const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockVideo BlockType = "video"
	BlockEmbed BlockType = "embed"
)

// Input blocks: pause the walk until the user replies.
const (
	BlockTextInput    BlockType = "text input"
	BlockNumberInput  BlockType = "number input"
	BlockEmailInput   BlockType = "email input"
	BlockURLInput     BlockType = "url input"
	BlockPhoneInput   BlockType = "phone number input"
	BlockDateInput    BlockType = "date input"
	BlockChoiceInput  BlockType = "choice input"
	BlockPaymentInput BlockType = "payment input"
	BlockRatingInput  BlockType = "rating input"
	BlockFileInput    BlockType = "file input"
)

// Logic blocks: mutate session state or change the traversal.
const (
	BlockSetVariable BlockType = "Set variable"
	BlockCondition   BlockType = "Condition"
	BlockRedirect    BlockType = "Redirect"
	BlockCode        BlockType = "Code"
	BlockTypebotLink BlockType = "Typebot link"
)

// Integration blocks: call an external collaborator, then continue.
const (
	BlockWebhook   BlockType = "Webhook"
	BlockSheets    BlockType = "Google Sheets"
	BlockEmail     BlockType = "Email"
	BlockAnalytics BlockType = "Google Analytics"
	BlockChatwoot  BlockType = "Chatwoot"
)

// IsBubble reports whether the type belongs to the bubble family.
func (t BlockType) IsBubble() bool {
	switch t {
	case BlockText, BlockImage, BlockVideo, BlockEmbed:
		return true
	}
	return false
}

// IsInput reports whether the type belongs to the input family.
func (t BlockType) IsInput() bool {
	switch t {
	case BlockTextInput, BlockNumberInput, BlockEmailInput, BlockURLInput,
		BlockPhoneInput, BlockDateInput, BlockChoiceInput, BlockPaymentInput,
		BlockRatingInput, BlockFileInput:
		return true
	}
	return false
}

// IsLogic reports whether the type belongs to the logic family.
func (t BlockType) IsLogic() bool {
	switch t {
	case BlockSetVariable, BlockCondition, BlockRedirect, BlockCode, BlockTypebotLink:
		return true
	}
	return false
}

// IsIntegration reports whether the type belongs to the integration family.
func (t BlockType) IsIntegration() bool {
	switch t {
	case BlockWebhook, BlockSheets, BlockEmail, BlockAnalytics, BlockChatwoot:
		return true
	}
	return false
}

// Block is the sealed interface over the four block families. The only
// implementations are *BubbleBlock, *InputBlock, *LogicBlock and
// *IntegrationBlock; walkers type-switch over those and treat anything else
// as a corrupt snapshot.
type Block interface {
	BlockID() string
	BlockType() BlockType
	// OutgoingEdge is the block's default outgoing edge id, or "" when the
	// branch dead-ends here.
	OutgoingEdge() string

	sealedBlock()
}

// BaseBlock carries the fields every block family shares.
type BaseBlock struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"groupId,omitempty"`
	Type           BlockType `json:"type"`
	OutgoingEdgeID string    `json:"outgoingEdgeId,omitempty"`
}

// BlockID implements Block.
func (b BaseBlock) BlockID() string { return b.ID }

// BlockType implements Block.
func (b BaseBlock) BlockType() BlockType { return b.Type }

// OutgoingEdge implements Block.
func (b BaseBlock) OutgoingEdge() string { return b.OutgoingEdgeID }

func (BaseBlock) sealedBlock() {}

// BubbleBlock displays static content and immediately advances.
type BubbleBlock struct {
	BaseBlock
	Content BubbleContent `json:"content,omitempty"`
}

// BubbleContent holds the payload of a bubble. Text is used by text bubbles
// (markdown, variable placeholders allowed); URL by image/video/embed.
type BubbleContent struct {
	Text   string  `json:"text,omitempty"`
	URL    string  `json:"url,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// InputBlock pauses the walk and waits for a user reply.
type InputBlock struct {
	BaseBlock
	Options InputOptions `json:"options,omitempty"`
	// Items holds the buttons of a choice input. An item without its own
	// outgoing edge falls back to the block's default edge.
	Items []ChoiceItem `json:"items,omitempty"`
}

// InputOptions is the union of per-subtype input settings. Only the fields
// relevant to the block's subtype are populated.
type InputOptions struct {
	Labels              InputLabels `json:"labels,omitempty"`
	VariableID          string      `json:"variableId,omitempty"`
	RetryMessageContent string      `json:"retryMessageContent,omitempty"`

	// Text input
	IsLong bool `json:"isLong,omitempty"`

	// Number input
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`

	// Choice input
	IsMultipleChoice bool `json:"isMultipleChoice,omitempty"`

	// Rating input
	Length int `json:"length,omitempty"`

	// Payment input
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// InputLabels carries the client-facing labels of an input block.
type InputLabels struct {
	Placeholder string `json:"placeholder,omitempty"`
	Button      string `json:"button,omitempty"`
}

// ChoiceItem is one button of a choice input.
type ChoiceItem struct {
	ID             string `json:"id"`
	Content        string `json:"content,omitempty"`
	OutgoingEdgeID string `json:"outgoingEdgeId,omitempty"`
}

// LogicBlock mutates session state or redirects the traversal. Exactly one
// of the option pointers is set, matching the block subtype; condition
// blocks use Items instead.
type LogicBlock struct {
	BaseBlock
	SetVariable *SetVariableOptions `json:"-"`
	Redirect    *RedirectOptions    `json:"-"`
	Code        *CodeOptions        `json:"-"`
	TypebotLink *TypebotLinkOptions `json:"-"`
	Items       []ConditionItem     `json:"items,omitempty"`
}

// SetVariableKind selects how a set-variable block computes its value.
type SetVariableKind string

const (
	// SetVariableCustom evaluates ExpressionToEvaluate: a template with
	// {{...}} placeholders, or an expression when prefixed with "=".
	SetVariableCustom      SetVariableKind = "Custom"
	SetVariableEmpty       SetVariableKind = "Empty"
	SetVariableToday       SetVariableKind = "Today"
	SetVariableNow         SetVariableKind = "Now"
	SetVariableRandomID    SetVariableKind = "Random ID"
	SetVariableEnvironment SetVariableKind = "Environment name"
)

// SetVariableOptions configures a set-variable block. An empty Kind means
// SetVariableCustom.
type SetVariableOptions struct {
	VariableID           string          `json:"variableId,omitempty"`
	Kind                 SetVariableKind `json:"type,omitempty"`
	ExpressionToEvaluate string          `json:"expressionToEvaluate,omitempty"`
}

// RedirectOptions configures a redirect block. A same-tab redirect ends the
// flow on the client, so the walk stops after emitting it.
type RedirectOptions struct {
	URL      string `json:"url,omitempty"`
	IsNewTab bool   `json:"isNewTab,omitempty"`
}

// CodeOptions holds a client-executed script. The engine never evaluates it.
type CodeOptions struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// TypebotLinkOptions configures a link to another flow. TypebotID may be
// the sentinel "current" to restart the running flow.
type TypebotLinkOptions struct {
	TypebotID string `json:"typebotId,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
}

// LinkedTypebotCurrent is the sentinel TypebotID meaning "this flow".
const LinkedTypebotCurrent = "current"

// ConditionItem is one branch of a condition block. The branch edge is taken
// when its condition holds; otherwise the block's default edge is the
// fallback.
type ConditionItem struct {
	ID             string    `json:"id"`
	Content        Condition `json:"content"`
	OutgoingEdgeID string    `json:"outgoingEdgeId,omitempty"`
}

// IntegrationBlock calls an external collaborator. Options stay as a loose
// map because their schema varies per provider; executors decode them with
// mapstructure right before the call.
type IntegrationBlock struct {
	BaseBlock
	Options map[string]any `json:"options,omitempty"`
	// Items optionally carries webhook outcome branches ("success"/"error")
	// whose edges override the default edge for the observed outcome.
	Items []OutcomeItem `json:"items,omitempty"`
}

// OutcomeItem binds an integration outcome to an edge.
type OutcomeItem struct {
	ID             string `json:"id"`
	Outcome        string `json:"outcome"` // "success" or "error"
	OutgoingEdgeID string `json:"outgoingEdgeId,omitempty"`
}

// ItemEdge returns the outgoing edge configured for an item id, falling back
// to the block's default edge when the item has none.
func (b *InputBlock) ItemEdge(itemID string) string {
	for _, it := range b.Items {
		if it.ID == itemID {
			if it.OutgoingEdgeID != "" {
				return it.OutgoingEdgeID
			}
			break
		}
	}
	return b.OutgoingEdgeID
}

// OutcomeEdge returns the edge configured for the observed outcome, falling
// back to the block's default edge.
func (b *IntegrationBlock) OutcomeEdge(outcome string) string {
	for _, it := range b.Items {
		if it.Outcome == outcome && it.OutgoingEdgeID != "" {
			return it.OutgoingEdgeID
		}
	}
	return b.OutgoingEdgeID
}
