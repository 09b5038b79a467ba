package engine

import (
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
)

// Message is a fully substituted bubble ready for display.
type Message struct {
	ID      string             `json:"id"`
	Type    flow.BlockType     `json:"type"`
	Content flow.BubbleContent `json:"content"`
}

// InputPrompt describes the input block the walk paused on. The client
// renders it and posts the user's reply back through ContinueChat.
type InputPrompt struct {
	BlockID   string            `json:"blockId"`
	GroupID   string            `json:"groupId"`
	Type      flow.BlockType    `json:"type"`
	Options   flow.InputOptions `json:"options"`
	Items     []flow.ChoiceItem `json:"items,omitempty"`
	Prefilled string            `json:"prefilledValue,omitempty"`
}

// ClientActionType enumerates the side effects the server delegates to the
// client runtime.
type ClientActionType string

const (
	ActionRedirect ClientActionType = "redirect"
	ActionCode     ClientActionType = "codeToExecute"
	ActionChatwoot ClientActionType = "chatwoot"
)

// RedirectAction asks the client to navigate away.
type RedirectAction struct {
	URL      string `json:"url"`
	IsNewTab bool   `json:"isNewTab"`
}

// CodeAction carries a script snippet for the client to run.
type CodeAction struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// ClientAction is the tagged union of delegated side effects.
type ClientAction struct {
	Type     ClientActionType `json:"type"`
	Redirect *RedirectAction  `json:"redirect,omitempty"`
	Code     *CodeAction      `json:"code,omitempty"`
	Chatwoot map[string]any   `json:"chatwoot,omitempty"`
}

// Reply is the outcome of one walk: everything accumulated between the
// resume point and the next input block (or the end of the flow).
type Reply struct {
	SessionID     string         `json:"sessionId"`
	Messages      []Message      `json:"messages"`
	Input         *InputPrompt   `json:"input,omitempty"`
	ClientActions []ClientAction `json:"clientSideActions,omitempty"`
	Logs          []ports.Log    `json:"logs,omitempty"`
	IsCompleted   bool           `json:"isCompleted"`
}

func (r *Reply) appendLog(l ports.Log) {
	r.Logs = append(r.Logs, l)
}
