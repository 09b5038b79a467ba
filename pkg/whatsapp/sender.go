package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/flow"
)

const (
	defaultGraphBaseURL = "https://graph.facebook.com/v17.0"

	// maxTextLength is the Cloud API limit for one text message body.
	maxTextLength = 4096

	// maxInteractiveButtons is the Cloud API limit for reply buttons; choice
	// inputs with more items degrade to a numbered text list.
	maxInteractiveButtons = 3
)

// Sender pushes engine replies to a contact through the Graph API.
type Sender struct {
	client        *resty.Client
	phoneNumberID string
	logger        *slog.Logger
}

// SenderOption customizes a Sender.
type SenderOption func(*Sender)

// WithBaseURL overrides the Graph API endpoint, used by tests.
func WithBaseURL(url string) SenderOption {
	return func(s *Sender) { s.client.SetBaseURL(url) }
}

// WithSenderLogger sets the structured logger.
func WithSenderLogger(logger *slog.Logger) SenderOption {
	return func(s *Sender) { s.logger = logger }
}

// WithHTTPClient replaces the underlying client, used by tests.
func WithHTTPClient(client *resty.Client) SenderOption {
	return func(s *Sender) { s.client = client }
}

// NewSender builds a Sender for one business phone number.
func NewSender(phoneNumberID, token string, opts ...SenderOption) *Sender {
	client := resty.New().
		SetBaseURL(defaultGraphBaseURL).
		SetAuthToken(token).
		SetTimeout(30 * time.Second)

	s := &Sender{
		client:        client,
		phoneNumberID: phoneNumberID,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendReply delivers every outbound frame of a reply, in order. A failed
// frame aborts the remainder so the contact never sees messages out of
// sequence.
func (s *Sender) SendReply(ctx context.Context, to string, reply *engine.Reply) error {
	for _, msg := range reply.Messages {
		for _, payload := range s.messagePayloads(to, msg) {
			if err := s.post(ctx, payload); err != nil {
				return err
			}
		}
	}
	if prompt := reply.Input; prompt != nil && prompt.Type == flow.BlockChoiceInput {
		if err := s.post(ctx, s.choicePayload(to, prompt)); err != nil {
			return err
		}
	}
	return nil
}

// messagePayloads converts one bubble into Cloud API message payloads,
// splitting long texts at the body size limit.
func (s *Sender) messagePayloads(to string, msg engine.Message) []map[string]any {
	switch msg.Type {
	case flow.BlockImage:
		return []map[string]any{{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              "image",
			"image":             map[string]any{"link": msg.Content.URL},
		}}
	case flow.BlockVideo:
		return []map[string]any{{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              "video",
			"video":             map[string]any{"link": msg.Content.URL},
		}}
	case flow.BlockEmbed:
		// No embed primitive on WhatsApp; send the URL as text.
		return textPayloads(to, msg.Content.URL)
	default:
		return textPayloads(to, msg.Content.Text)
	}
}

func textPayloads(to, text string) []map[string]any {
	if text == "" {
		return nil
	}
	var out []map[string]any
	for _, chunk := range chunkText(text, maxTextLength) {
		out = append(out, map[string]any{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              "text",
			"text":              map[string]any{"body": chunk},
		})
	}
	return out
}

// choicePayload renders a choice input: interactive reply buttons when the
// items fit the platform limit, a numbered text list otherwise.
func (s *Sender) choicePayload(to string, prompt *engine.InputPrompt) map[string]any {
	if len(prompt.Items) <= maxInteractiveButtons {
		buttons := make([]map[string]any, 0, len(prompt.Items))
		for _, item := range prompt.Items {
			buttons = append(buttons, map[string]any{
				"type": "reply",
				"reply": map[string]any{
					"id":    item.ID,
					"title": truncateTitle(item.Content),
				},
			})
		}
		return map[string]any{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              "interactive",
			"interactive": map[string]any{
				"type":   "button",
				"body":   map[string]any{"text": promptBody(prompt)},
				"action": map[string]any{"buttons": buttons},
			},
		}
	}

	var b strings.Builder
	b.WriteString(promptBody(prompt))
	for i, item := range prompt.Items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item.Content)
	}
	return map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": b.String()},
	}
}

func promptBody(prompt *engine.InputPrompt) string {
	if prompt.Options.Labels.Placeholder != "" {
		return prompt.Options.Labels.Placeholder
	}
	return "Select an option"
}

// truncateTitle keeps button titles within the 20 character platform limit.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 20 {
		return title
	}
	return string(runes[:20])
}

func (s *Sender) post(ctx context.Context, payload map[string]any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(fmt.Sprintf("/%s/messages", s.phoneNumberID))
	if err != nil {
		return fmt.Errorf("sending whatsapp message: %w", err)
	}
	if resp.IsError() {
		s.logger.Warn("whatsapp send rejected", "status", resp.StatusCode(), "body", string(resp.Body()))
		return fmt.Errorf("sending whatsapp message: status %d", resp.StatusCode())
	}
	return nil
}

// chunkText splits text into pieces of at most limit runes, preferring to
// break on newlines, then spaces.
func chunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		if cut == limit {
			for i := limit; i > limit/2; i-- {
				if runes[i-1] == ' ' {
					cut = i
					break
				}
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), " \n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
