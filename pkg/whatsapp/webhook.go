// Package whatsapp bridges inbound WhatsApp Cloud API webhooks to the
// engine and pushes replies back through the Graph API.
package whatsapp

import (
	"encoding/json"
	"fmt"
)

// WebhookPayload mirrors the Meta webhook envelope, trimmed to the fields
// the channel reads.
type WebhookPayload struct {
	Entry []WebhookEntry `json:"entry"`
}

// WebhookEntry is one account-level notification batch.
type WebhookEntry struct {
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange is one field change inside an entry.
type WebhookChange struct {
	Value WebhookValue `json:"value"`
}

// WebhookValue carries the actual messages and the receiving number.
type WebhookValue struct {
	Metadata WebhookMetadata  `json:"metadata"`
	Contacts []WebhookContact `json:"contacts"`
	Messages []InboundMessage `json:"messages"`
}

// WebhookMetadata identifies the business phone number the message hit.
type WebhookMetadata struct {
	PhoneNumberID string `json:"phone_number_id"`
}

// WebhookContact carries the sender's profile.
type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMedia is an attached media object. Only the caption is read; the
// media itself stays on Meta's servers.
type InboundMedia struct {
	Caption string `json:"caption"`
}

// InboundMessage is one user message in its raw Cloud API shape.
type InboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image    *InboundMedia `json:"image,omitempty"`
	Video    *InboundMedia `json:"video,omitempty"`
	Document *InboundMedia `json:"document,omitempty"`
	Button *struct {
		Text string `json:"text"`
	} `json:"button,omitempty"`
	Interactive *struct {
		ButtonReply *struct {
			Title string `json:"title"`
		} `json:"button_reply,omitempty"`
		ListReply *struct {
			Title string `json:"title"`
		} `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
}

// Body extracts the textual content of the message regardless of its type:
// plain text, template button tap, interactive reply, or media caption.
func (m InboundMessage) Body() string {
	switch {
	case m.Text != nil:
		return m.Text.Body
	case m.Button != nil:
		return m.Button.Text
	case m.Image != nil:
		return m.Image.Caption
	case m.Video != nil:
		return m.Video.Caption
	case m.Document != nil:
		return m.Document.Caption
	case m.Interactive != nil && m.Interactive.ButtonReply != nil:
		return m.Interactive.ButtonReply.Title
	case m.Interactive != nil && m.Interactive.ListReply != nil:
		return m.Interactive.ListReply.Title
	default:
		return ""
	}
}

// Message is one normalized inbound message ready for the channel service.
type Message struct {
	PhoneNumberID string
	From          string
	SenderName    string
	Text          string
}

// ParseWebhook decodes a webhook body into normalized messages. Entries
// without messages (delivery statuses, read receipts) yield none.
func ParseWebhook(body []byte) ([]Message, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding webhook payload: %w", err)
	}

	var out []Message
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			names := make(map[string]string, len(value.Contacts))
			for _, contact := range value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, msg := range value.Messages {
				text := msg.Body()
				if text == "" {
					continue
				}
				out = append(out, Message{
					PhoneNumberID: value.Metadata.PhoneNumberID,
					From:          msg.From,
					SenderName:    names[msg.From],
					Text:          text,
				})
			}
		}
	}
	return out, nil
}
