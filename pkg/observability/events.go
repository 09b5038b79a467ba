// Package observability defines the engine's lifecycle hook surface and a
// Prometheus-backed implementation of it.
package observability

import (
	"context"
	"time"
)

// EventType categorizes an engine lifecycle event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventSessionEnd   EventType = "session_end"
	EventBlockVisit   EventType = "block_visit"
	EventIntegration  EventType = "integration"
	EventWalkDone     EventType = "walk_done"
)

// BlockEvent is emitted once per visited block.
type BlockEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TypebotID string    `json:"typebotId"`
	BlockID   string    `json:"blockId"`
	BlockType string    `json:"blockType"`
	Family    string    `json:"family"` // bubble, input, logic, integration
}

// IntegrationEvent is emitted after each integration call.
type IntegrationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TypebotID string    `json:"typebotId"`
	Provider  string    `json:"provider"`
	IsError   bool      `json:"isError"`
}

// SessionEvent marks session start and completion.
type SessionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TypebotID string    `json:"typebotId"`
	SessionID string    `json:"sessionId"`
}

// WalkEvent reports the duration and breadth of one walk invocation.
type WalkEvent struct {
	Timestamp     time.Time     `json:"timestamp"`
	TypebotID     string        `json:"typebotId"`
	Duration      time.Duration `json:"duration"`
	BlocksVisited int           `json:"blocksVisited"`
}

// LifecycleHooks is the callback set the engine emits into. Any field may
// be nil; use the Emit helpers so callers never have to nil-check.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *SessionEvent)
	OnSessionEnd   func(context.Context, *SessionEvent)
	OnBlockVisit   func(context.Context, *BlockEvent)
	OnIntegration  func(context.Context, *IntegrationEvent)
	OnWalkDone     func(context.Context, *WalkEvent)
}

// EmitSessionStart fires OnSessionStart if set.
func (h LifecycleHooks) EmitSessionStart(ctx context.Context, typebotID, sessionID string) {
	if h.OnSessionStart != nil {
		h.OnSessionStart(ctx, &SessionEvent{Timestamp: time.Now(), TypebotID: typebotID, SessionID: sessionID})
	}
}

// EmitSessionEnd fires OnSessionEnd if set.
func (h LifecycleHooks) EmitSessionEnd(ctx context.Context, typebotID, sessionID string) {
	if h.OnSessionEnd != nil {
		h.OnSessionEnd(ctx, &SessionEvent{Timestamp: time.Now(), TypebotID: typebotID, SessionID: sessionID})
	}
}

// EmitBlockVisit fires OnBlockVisit if set.
func (h LifecycleHooks) EmitBlockVisit(ctx context.Context, typebotID, blockID, blockType, family string) {
	if h.OnBlockVisit != nil {
		h.OnBlockVisit(ctx, &BlockEvent{Timestamp: time.Now(), TypebotID: typebotID, BlockID: blockID, BlockType: blockType, Family: family})
	}
}

// EmitIntegration fires OnIntegration if set.
func (h LifecycleHooks) EmitIntegration(ctx context.Context, typebotID, provider string, isError bool) {
	if h.OnIntegration != nil {
		h.OnIntegration(ctx, &IntegrationEvent{Timestamp: time.Now(), TypebotID: typebotID, Provider: provider, IsError: isError})
	}
}

// EmitWalkDone fires OnWalkDone if set.
func (h LifecycleHooks) EmitWalkDone(ctx context.Context, typebotID string, d time.Duration, blocks int) {
	if h.OnWalkDone != nil {
		h.OnWalkDone(ctx, &WalkEvent{Timestamp: time.Now(), TypebotID: typebotID, Duration: d, BlocksVisited: blocks})
	}
}
