package chatflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/pkg/adapters/memory"
	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/integrations"
	"github.com/ndanaka/chatflow/pkg/observability"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/session"
)

// Version is the library version, reported by the CLI.
const Version = "0.4.0"

// Bot is the high-level entry point: an engine wired to flow, session and
// result storage, ready to run conversations.
type Bot struct {
	engine   *engine.Engine
	flows    *memory.FlowStore
	sessions *session.Manager
	results  ports.ResultStore
	logger   *slog.Logger

	sessionStore session.Store
	locker       session.Locker
	executor     *integrations.Executor
	hooks        observability.LifecycleHooks
	environment  string
}

// Option configures a Bot.
type Option func(*Bot)

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store session.Store) Option {
	return func(b *Bot) { b.sessionStore = store }
}

// WithLocker adds distributed session locking.
func WithLocker(locker session.Locker) Option {
	return func(b *Bot) { b.locker = locker }
}

// WithResultStore replaces the default in-memory result store.
func WithResultStore(store ports.ResultStore) Option {
	return func(b *Bot) { b.results = store }
}

// WithExecutor replaces the default integration executor.
func WithExecutor(x *integrations.Executor) Option {
	return func(b *Bot) { b.executor = x }
}

// WithHooks installs lifecycle observers.
func WithHooks(hooks observability.LifecycleHooks) Option {
	return func(b *Bot) { b.hooks = hooks }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithEnvironment sets the environment name exposed to flows.
func WithEnvironment(name string) Option {
	return func(b *Bot) { b.environment = name }
}

// New builds a Bot. Without options everything runs in memory.
func New(opts ...Option) *Bot {
	b := &Bot{
		flows:  memory.NewFlowStore(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sessionStore == nil {
		b.sessionStore = memory.NewSessionStore()
	}
	if b.results == nil {
		b.results = memory.NewResultStore()
	}
	if b.executor == nil {
		b.executor = integrations.NewExecutor(integrations.WithLogger(b.logger))
	}

	sessionOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker))
	}
	b.sessions = session.NewManager(b.sessionStore, sessionOpts...)

	engineOpts := []engine.Option{
		engine.WithResultStore(b.results),
		engine.WithExecutor(b.executor),
		engine.WithHooks(b.hooks),
		engine.WithLogger(b.logger),
	}
	if b.environment != "" {
		engineOpts = append(engineOpts, engine.WithEnvironment(b.environment))
	}
	b.engine = engine.New(b.flows, engineOpts...)
	return b
}

// RegisterFlow publishes a snapshot after checking its structural
// integrity.
func (b *Bot) RegisterFlow(typebot flow.Typebot) error {
	if problems := flow.Lint(&typebot); len(problems) > 0 {
		return fmt.Errorf("flow %s: %s", typebot.ID, problems[0].Message)
	}
	b.flows.Register(typebot)
	return nil
}

// LoadFlowFile reads and publishes one snapshot file.
func (b *Bot) LoadFlowFile(path string) error {
	typebot, err := ReadFlowFile(path)
	if err != nil {
		return err
	}
	return b.RegisterFlow(*typebot)
}

// LoadFlowsDir publishes every *.json snapshot under dir.
func (b *Bot) LoadFlowsDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading flows dir %s: %w", dir, err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := b.LoadFlowFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no flow snapshots found in %s", dir)
	}
	b.logger.Info("flows loaded", "dir", dir, "count", loaded)
	return nil
}

// ReadFlowFile parses one snapshot file without publishing it.
func ReadFlowFile(path string) (*flow.Typebot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow %s: %w", path, err)
	}
	var typebot flow.Typebot
	if err := json.Unmarshal(data, &typebot); err != nil {
		return nil, fmt.Errorf("parsing flow %s: %w", path, err)
	}
	if typebot.ID == "" {
		typebot.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &typebot, nil
}

// StartChat opens a conversation and persists its session.
func (b *Bot) StartChat(ctx context.Context, typebotID string) (*engine.Reply, error) {
	state, reply, err := b.engine.StartChat(ctx, engine.StartParams{TypebotID: typebotID})
	if err != nil {
		return nil, err
	}
	if !reply.IsCompleted {
		if err := b.sessions.Save(ctx, state); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// SendMessage continues a conversation under its session lock.
func (b *Bot) SendMessage(ctx context.Context, sessionID, message string) (*engine.Reply, error) {
	var reply *engine.Reply
	err := b.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := b.sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		reply, err = b.engine.ContinueChat(ctx, state, message)
		if err != nil {
			return err
		}
		if reply.IsCompleted {
			return b.sessions.Delete(ctx, sessionID)
		}
		return b.sessions.Save(ctx, state)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Engine exposes the underlying engine for embedding scenarios.
func (b *Bot) Engine() *engine.Engine { return b.engine }

// Sessions exposes the session manager.
func (b *Bot) Sessions() *session.Manager { return b.sessions }

// Flows exposes the flow store.
func (b *Bot) Flows() *memory.FlowStore { return b.flows }
