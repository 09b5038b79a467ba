package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/session"
)

// ReplySender delivers engine replies to a contact.
type ReplySender interface {
	SendReply(ctx context.Context, to string, reply *engine.Reply) error
}

// SessionID derives the deterministic session key for a contact on a
// business number, so every inbound message lands on the same conversation.
func SessionID(phoneNumberID, from string) string {
	return fmt.Sprintf("wa-%s-%s", phoneNumberID, from)
}

// Service ties inbound messages to engine walks: it resolves which flow
// answers a fresh contact, continues existing conversations, applies the
// channel expiry and pushes replies back out.
type Service struct {
	engine   *engine.Engine
	sessions *session.Manager
	flows    FlowSource
	sender   ReplySender
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source, used by expiry tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService wires the channel service.
func NewService(eng *engine.Engine, sessions *session.Manager, flows FlowSource, sender ReplySender, opts ...ServiceOption) *Service {
	s := &Service{
		engine:   eng,
		sessions: sessions,
		flows:    flows,
		sender:   sender,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage processes one inbound message under the session lock. A
// message for an expired session transparently starts a new conversation.
// Messages no flow volunteers for are dropped.
func (s *Service) HandleMessage(ctx context.Context, msg Message) error {
	sessionID := SessionID(msg.PhoneNumberID, msg.From)

	return s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := s.sessions.Load(ctx, sessionID)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return err
		}

		now := s.now()
		if state != nil && state.IsExpired(now) {
			s.logger.Debug("whatsapp session expired", "session", sessionID)
			if err := s.sessions.Delete(ctx, sessionID); err != nil {
				return err
			}
			state = nil
		}

		var reply *engine.Reply
		if state == nil {
			state, reply, err = s.startSession(ctx, sessionID, msg)
			if err != nil {
				return err
			}
			if state == nil {
				return nil
			}
		} else {
			reply, err = s.engine.ContinueChat(ctx, state, msg.Text)
			if errors.Is(err, engine.ErrNotAwaitingInput) {
				s.logger.Debug("whatsapp session stale, dropping", "session", sessionID)
				return s.sessions.Delete(ctx, sessionID)
			}
			if err != nil {
				return err
			}
		}

		if frame := state.Current(); frame != nil {
			hours := frame.Typebot.Settings.WhatsApp.ExpiryTimeoutHours()
			state.ExpiresAt = now.Add(time.Duration(hours) * time.Hour)
		}

		if err := s.sender.SendReply(ctx, msg.From, reply); err != nil {
			s.logger.Warn("failed to deliver whatsapp reply", "session", sessionID, "error", err)
		}

		if reply.IsCompleted {
			return s.sessions.Delete(ctx, sessionID)
		}
		return s.sessions.Save(ctx, state)
	})
}

// startSession resolves the flow for a fresh contact and runs the opening
// walk. When the flow opens directly on an input block, the inbound message
// doubles as the answer to it, so the contact is not prompted for something
// they already said.
func (s *Service) startSession(ctx context.Context, sessionID string, msg Message) (*session.State, *engine.Reply, error) {
	candidates, err := s.flows.WhatsAppFlows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing whatsapp flows: %w", err)
	}

	bot := Resolve(candidates, msg.Text)
	if bot == nil {
		s.logger.Debug("no whatsapp flow matched", "from", msg.From)
		return nil, nil, nil
	}

	state, reply, err := s.engine.StartChat(ctx, engine.StartParams{
		TypebotID: bot.ID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, nil, err
	}
	state.WhatsApp = &session.WhatsAppState{
		Contact: session.WhatsAppContact{
			PhoneNumber: msg.From,
			Name:        msg.SenderName,
		},
	}

	if reply.Input != nil && entryIsInput(bot) {
		next, err := s.engine.ContinueChat(ctx, state, msg.Text)
		if err != nil {
			return nil, nil, err
		}
		reply = mergeReplies(reply, next)
	}
	return state, reply, nil
}

// entryIsInput reports whether the flow's very first block awaits a reply.
func entryIsInput(bot *flow.Typebot) bool {
	group := bot.FirstGroup()
	if group == nil {
		return false
	}
	block := group.FirstBlock()
	if block == nil {
		return false
	}
	_, ok := block.(*flow.InputBlock)
	return ok
}

// mergeReplies concatenates an opening walk with its immediate continuation.
func mergeReplies(first, second *engine.Reply) *engine.Reply {
	merged := *second
	merged.Messages = append(append([]engine.Message(nil), first.Messages...), second.Messages...)
	merged.ClientActions = append(append([]engine.ClientAction(nil), first.ClientActions...), second.ClientActions...)
	merged.Logs = append(append([]ports.Log(nil), first.Logs...), second.Logs...)
	return &merged
}
