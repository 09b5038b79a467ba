// Package engine walks a published flow snapshot block by block, turning a
// session state plus an optional user reply into the next batch of messages.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/integrations"
	"github.com/ndanaka/chatflow/pkg/observability"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/session"
	"github.com/ndanaka/chatflow/pkg/variables"
)

const defaultMaxBlocksPerWalk = 500

// Engine executes flows. It is stateless: all conversation state lives in
// the session.State passed through StartChat and ContinueChat, so a single
// Engine can serve any number of concurrent sessions.
type Engine struct {
	flows       ports.FlowStore
	results     ports.ResultStore
	executor    *integrations.Executor
	hooks       observability.LifecycleHooks
	logger      *slog.Logger
	environment string
	maxBlocks   int
}

// Option customizes an Engine.
type Option func(*Engine)

// WithResultStore wires answer and result persistence.
func WithResultStore(rs ports.ResultStore) Option {
	return func(e *Engine) { e.results = rs }
}

// WithExecutor wires the integration executor used by webhook, sheets,
// email and analytics blocks.
func WithExecutor(x *integrations.Executor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithHooks installs lifecycle observers.
func WithHooks(h observability.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEnvironment sets the value produced by "Environment name" set
// variable blocks.
func WithEnvironment(name string) Option {
	return func(e *Engine) { e.environment = name }
}

// WithMaxBlocksPerWalk overrides the loop safety limit.
func WithMaxBlocksPerWalk(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBlocks = n
		}
	}
}

// New builds an Engine reading published snapshots from flows.
func New(flows ports.FlowStore, opts ...Option) *Engine {
	e := &Engine{
		flows:       flows,
		executor:    integrations.NewExecutor(),
		logger:      logging.NewNop(),
		environment: "production",
		maxBlocks:   defaultMaxBlocksPerWalk,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartParams configures a new conversation.
type StartParams struct {
	TypebotID string
	// SessionID pins the session id; channels use deterministic ids so a
	// contact maps to one session. Empty means a generated id.
	SessionID string
	// Prefilled seeds variable bindings by name before the walk starts.
	Prefilled map[string]string
}

// StartChat creates a fresh session for the given bot and walks until the
// first input block or the end of the flow.
func (e *Engine) StartChat(ctx context.Context, params StartParams) (*session.State, *Reply, error) {
	typebot, err := e.flows.PublicTypebot(ctx, params.TypebotID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading flow %s: %w", params.TypebotID, err)
	}

	resultID, err := e.createResult(ctx, typebot.ID)
	if err != nil {
		return nil, nil, err
	}

	sessionID := params.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state := session.New(sessionID, *typebot, resultID)
	if len(params.Prefilled) > 0 {
		frame := state.Current()
		for name, value := range params.Prefilled {
			if def := typebot.VariableByName(name); def != nil {
				frame.Variables = frame.Variables.Set(def.ID, value)
			}
		}
	}

	e.hooks.EmitSessionStart(ctx, typebot.ID, state.ID)

	entry := typebot.FirstGroup()
	if entry == nil {
		return nil, nil, &GroupNotFoundError{GroupID: "start"}
	}

	reply := &Reply{SessionID: state.ID}
	w := &walker{engine: e, state: state, reply: reply}
	if err := w.run(ctx, target{groupID: entry.ID}); err != nil {
		return nil, nil, err
	}
	return state, reply, nil
}

// ContinueChat validates the user's reply against the pending input block,
// records the answer, then resumes the walk. The state is mutated in place;
// callers persist it afterwards. A rejected reply yields a retry prompt and
// leaves the cursor untouched.
func (e *Engine) ContinueChat(ctx context.Context, state *session.State, input string) (*Reply, error) {
	frame := state.Current()
	if frame == nil || state.CurrentBlock == nil {
		return nil, ErrNotAwaitingInput
	}

	block := frame.Typebot.BlockByID(state.CurrentBlock.BlockID)
	if block == nil {
		return nil, &BlockNotFoundError{BlockID: state.CurrentBlock.BlockID}
	}
	inputBlock, ok := block.(*flow.InputBlock)
	if !ok {
		return nil, fmt.Errorf("block %s: %w", block.BlockID(), ErrNotAwaitingInput)
	}

	defs := frame.Typebot.Variables
	reply := &Reply{SessionID: state.ID}

	value, verr := validateReply(inputBlock, input, defs, frame.Variables)
	if verr != nil {
		e.logger.Debug("reply rejected", "session", state.ID, "block", inputBlock.ID, "reason", verr.Message)
		reply.Messages = append(reply.Messages, retryMessage(inputBlock, defs, frame.Variables))
		reply.Input = e.buildPrompt(inputBlock, state.CurrentBlock.GroupID, defs, frame.Variables, frame.Typebot.Settings)
		return reply, nil
	}

	if varID := inputBlock.Options.VariableID; varID != "" {
		state.SetVariable(varID, value)
	}
	e.saveAnswer(ctx, frame, state.CurrentBlock, inputBlock, value)

	next := e.replyTarget(inputBlock, state.CurrentBlock, frame, value)
	state.CurrentBlock = nil

	w := &walker{engine: e, state: state, reply: reply}
	if err := w.run(ctx, next); err != nil {
		return nil, err
	}
	return reply, nil
}

// replyTarget resolves where the walk resumes after an accepted reply:
// the matched choice item's edge, the block's default edge, or the next
// block of the same group when neither is wired.
func (e *Engine) replyTarget(block *flow.InputBlock, cursor *session.Cursor, frame *session.Frame, value string) target {
	edgeID := block.OutgoingEdgeID
	if block.Type == flow.BlockChoiceInput && !block.Options.IsMultipleChoice {
		defs := frame.Typebot.Variables
		for _, item := range block.Items {
			content := variables.Substitute(item.Content, defs, frame.Variables)
			if content == value && item.OutgoingEdgeID != "" {
				edgeID = item.OutgoingEdgeID
				break
			}
		}
	}
	if edgeID != "" {
		return target{edgeID: edgeID}
	}
	return target{groupID: cursor.GroupID, blockID: cursor.BlockID, afterBlock: true}
}

func (e *Engine) createResult(ctx context.Context, typebotID string) (string, error) {
	if e.results == nil {
		return uuid.NewString(), nil
	}
	resultID, err := e.results.CreateResult(ctx, typebotID)
	if err != nil {
		return "", fmt.Errorf("creating result for %s: %w", typebotID, err)
	}
	return resultID, nil
}

func (e *Engine) saveAnswer(ctx context.Context, frame *session.Frame, cursor *session.Cursor, block *flow.InputBlock, value string) {
	if e.results == nil {
		return
	}
	answer := ports.Answer{
		ID:         uuid.NewString(),
		ResultID:   frame.ResultID,
		GroupID:    cursor.GroupID,
		BlockID:    block.ID,
		VariableID: block.Options.VariableID,
		Content:    value,
	}
	if err := e.results.UpsertAnswer(ctx, answer); err != nil {
		e.logger.Warn("failed to save answer", "result", frame.ResultID, "block", block.ID, "error", err)
	}
	started := true
	if err := e.results.UpdateResult(ctx, frame.ResultID, ports.ResultPatch{HasStarted: &started}); err != nil {
		e.logger.Warn("failed to mark result started", "result", frame.ResultID, "error", err)
	}
}
