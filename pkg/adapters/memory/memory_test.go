package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndanaka/chatflow/pkg/adapters/memory"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/ports/portstest"
	"github.com/ndanaka/chatflow/pkg/session"
)

func TestSessionStore_Contract(t *testing.T) {
	portstest.RunSessionStoreTests(t, memory.NewSessionStore())
}

func TestFlowStore_Lookup(t *testing.T) {
	store := memory.NewFlowStore()
	store.Register(flow.Typebot{ID: "bot1", Groups: []flow.Group{{ID: "g1"}}})

	got, err := store.PublicTypebot(context.Background(), "bot1")
	require.NoError(t, err)
	assert.Equal(t, "bot1", got.ID)

	_, err = store.PublicTypebot(context.Background(), "missing")
	assert.Error(t, err)
}

func TestFlowStore_RegisterReplaces(t *testing.T) {
	store := memory.NewFlowStore()
	store.Register(flow.Typebot{ID: "bot1", Name: "old"})
	store.Register(flow.Typebot{ID: "bot1", Name: "new"})

	got, err := store.PublicTypebot(context.Background(), "bot1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.Len(t, store.All(), 1)
}

func TestFlowStore_WhatsAppFlows(t *testing.T) {
	store := memory.NewFlowStore()
	store.Register(flow.Typebot{ID: "b", Settings: flow.Settings{WhatsApp: &flow.WhatsAppSettings{IsEnabled: true}}})
	store.Register(flow.Typebot{ID: "a", Settings: flow.Settings{WhatsApp: &flow.WhatsAppSettings{IsEnabled: true}}})
	store.Register(flow.Typebot{ID: "c"})

	flows, err := store.WhatsAppFlows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 2)
	// Deterministic order so Resolve's fallback is stable across restarts.
	assert.Equal(t, "a", flows[0].ID)
	assert.Equal(t, "b", flows[1].ID)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()

	state := session.New("s1", flow.Typebot{ID: "bot1"}, "r1")
	state.SetVariable("v1", "Ada")
	require.NoError(t, store.Save(ctx, "s1", state))

	// Mutations after Save must not leak into the stored copy.
	state.SetVariable("v1", "Grace")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	value, ok := loaded.Current().Variables.ValueByID("v1")
	require.True(t, ok)
	assert.Equal(t, "Ada", value)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStore_TTL(t *testing.T) {
	store := memory.NewSessionStore(memory.WithSessionTTL(10 * time.Millisecond))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", session.New("s1", flow.Typebot{ID: "bot1"}, "r1")))
	_, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestResultStore_AnswerUpsert(t *testing.T) {
	store := memory.NewResultStore()
	ctx := context.Background()

	id, err := store.CreateResult(ctx, "bot1")
	require.NoError(t, err)

	require.NoError(t, store.UpsertAnswer(ctx, ports.Answer{ResultID: id, BlockID: "b1", Content: "first"}))
	require.NoError(t, store.UpsertAnswer(ctx, ports.Answer{ResultID: id, BlockID: "b2", Content: "other"}))
	require.NoError(t, store.UpsertAnswer(ctx, ports.Answer{ResultID: id, BlockID: "b1", Content: "second"}))

	result, ok := store.Result(id)
	require.True(t, ok)
	require.Len(t, result.Answers, 2)
	assert.Equal(t, "second", result.Answers[0].Content)
	assert.Equal(t, "other", result.Answers[1].Content)
}

func TestResultStore_PatchAndLogs(t *testing.T) {
	store := memory.NewResultStore()
	ctx := context.Background()

	id, err := store.CreateResult(ctx, "bot1")
	require.NoError(t, err)

	started := true
	require.NoError(t, store.UpdateResult(ctx, id, ports.ResultPatch{HasStarted: &started}))
	require.NoError(t, store.AppendLog(ctx, id, ports.Log{Status: "error", Description: "boom"}))

	result, ok := store.Result(id)
	require.True(t, ok)
	assert.True(t, result.HasStarted)
	assert.False(t, result.IsCompleted)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, "boom", result.Logs[0].Description)

	assert.Error(t, store.UpsertAnswer(ctx, ports.Answer{ResultID: "missing", BlockID: "b"}))
	assert.Error(t, store.UpdateResult(ctx, "missing", ports.ResultPatch{}))
}
