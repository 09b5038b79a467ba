package flow

// DefaultSessionExpiryTimeoutHours is applied when a channel's settings do
// not configure an expiry.
const DefaultSessionExpiryTimeoutHours = 4

// Settings carries the published snapshot's behavior flags. Only the fields
// the engine reads are modeled; purely visual settings stay with the client.
type Settings struct {
	General         GeneralSettings   `json:"general,omitempty"`
	TypingEmulation TypingEmulation   `json:"typingEmulation,omitempty"`
	WhatsApp        *WhatsAppSettings `json:"whatsApp,omitempty"`
}

// GeneralSettings holds channel-agnostic flags.
type GeneralSettings struct {
	// IsInputPrefillEnabled prefills input prompts with the bound
	// variable's current value.
	IsInputPrefillEnabled bool `json:"isInputPrefillEnabled,omitempty"`
}

// TypingEmulation configures the client-side typing indicator. The engine
// passes it through in input prompts; it never delays the walk itself.
type TypingEmulation struct {
	Enabled  bool    `json:"enabled,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	MaxDelay float64 `json:"maxDelay,omitempty"`
}

// WhatsAppSettings enables a flow for the WhatsApp channel.
type WhatsAppSettings struct {
	IsEnabled bool `json:"isEnabled"`
	// StartCondition is matched against the raw inbound message to pick
	// which enabled flow answers a new conversation.
	StartCondition *Condition `json:"startCondition,omitempty"`
	// SessionExpiryTimeout is in hours; zero means the default.
	SessionExpiryTimeout int `json:"sessionExpiryTimeout,omitempty"`
}

// ExpiryTimeoutHours returns the configured expiry or the default.
func (s *WhatsAppSettings) ExpiryTimeoutHours() int {
	if s == nil || s.SessionExpiryTimeout <= 0 {
		return DefaultSessionExpiryTimeoutHours
	}
	return s.SessionExpiryTimeout
}
