// Package session owns the mutable per-conversation state and the locking
// discipline around it. State is plain serializable data: the flow snapshot
// is embedded by value and all cross references are ids, so a session can be
// rehydrated from storage on every request of a stateless deployment.
package session

import (
	"errors"
	"time"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

// ErrNotFound is returned by stores when a session id has no state.
var ErrNotFound = errors.New("session not found")

// Cursor points at the block the session is paused on.
type Cursor struct {
	GroupID string `json:"groupId"`
	BlockID string `json:"blockId"`
}

// Frame is one entry of the linked-flow stack. The head frame is the flow
// currently executing; parent frames resume at ResumeEdgeID once the child
// flow ends.
type Frame struct {
	Typebot   flow.Typebot       `json:"typebot"`
	ResultID  string             `json:"resultId,omitempty"`
	Variables variables.Bindings `json:"variables,omitempty"`
	// ResumeEdgeID is the edge of the parent flow to walk after this
	// frame's child (pushed above it) completes.
	ResumeEdgeID string `json:"resumeEdgeId,omitempty"`
}

// WhatsAppState is the channel sub-state of a WhatsApp conversation.
type WhatsAppState struct {
	Contact WhatsAppContact `json:"contact"`
}

// WhatsAppContact identifies the remote party.
type WhatsAppContact struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name,omitempty"`
}

// State is the full execution context of one conversation.
type State struct {
	ID string `json:"id"`
	// TypebotsQueue is the explicit call stack of linked flows; index 0 is
	// the active frame.
	TypebotsQueue []Frame        `json:"typebotsQueue"`
	CurrentBlock  *Cursor        `json:"currentBlock,omitempty"`
	WhatsApp      *WhatsAppState `json:"whatsApp,omitempty"`
	// ExpiresAt is zero for sessions without channel-imposed expiry; the
	// store's TTL still applies.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// New creates a session over a single flow snapshot.
func New(id string, typebot flow.Typebot, resultID string) *State {
	return &State{
		ID: id,
		TypebotsQueue: []Frame{{
			Typebot:  typebot,
			ResultID: resultID,
		}},
		UpdatedAt: time.Now().UTC(),
	}
}

// Current returns the active frame, or nil for a drained session.
func (s *State) Current() *Frame {
	if len(s.TypebotsQueue) == 0 {
		return nil
	}
	return &s.TypebotsQueue[0]
}

// Push makes frame the active one, keeping the previous flows below it.
func (s *State) Push(frame Frame) {
	s.TypebotsQueue = append([]Frame{frame}, s.TypebotsQueue...)
}

// Pop drops the active frame and returns the newly exposed parent, or nil
// when the stack is drained.
func (s *State) Pop() *Frame {
	if len(s.TypebotsQueue) == 0 {
		return nil
	}
	s.TypebotsQueue = s.TypebotsQueue[1:]
	return s.Current()
}

// IsExpired reports whether the channel expiry has passed.
func (s *State) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Variables returns the active frame's bindings; nil for a drained session.
func (s *State) Variables() variables.Bindings {
	if f := s.Current(); f != nil {
		return f.Variables
	}
	return nil
}

// SetVariable writes a binding into the active frame.
func (s *State) SetVariable(id, value string) {
	if f := s.Current(); f != nil {
		f.Variables = f.Variables.Set(id, value)
	}
}
