// Package portstest holds reusable conformance suites for port
// implementations. Adapter packages call these from their own tests so
// every backend honors the same contract.
package portstest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/session"
)

// RunSessionStoreTests exercises the session.Store contract against the
// given implementation: save/load round-trip, not-found on miss, overwrite
// on re-save and delete.
func RunSessionStoreTests(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing returns ErrNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "portstest-missing")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("save load round trip", func(t *testing.T) {
		state := contractState("portstest-roundtrip")
		require.NoError(t, store.Save(ctx, state.ID, state))

		loaded, err := store.Load(ctx, state.ID)
		require.NoError(t, err)
		assert.Equal(t, state.ID, loaded.ID)
		assert.Equal(t, "greeter", loaded.Current().Typebot.ID)
		value, ok := loaded.Variables().ValueByID("v1")
		require.True(t, ok)
		assert.Equal(t, "Ada", value)
		require.NotNil(t, loaded.CurrentBlock)
		assert.Equal(t, "b1", loaded.CurrentBlock.BlockID)
	})

	t.Run("re-save overwrites", func(t *testing.T) {
		state := contractState("portstest-overwrite")
		require.NoError(t, store.Save(ctx, state.ID, state))

		state.SetVariable("v1", "Grace")
		require.NoError(t, store.Save(ctx, state.ID, state))

		loaded, err := store.Load(ctx, state.ID)
		require.NoError(t, err)
		value, _ := loaded.Variables().ValueByID("v1")
		assert.Equal(t, "Grace", value)
	})

	t.Run("delete removes the session", func(t *testing.T) {
		state := contractState("portstest-delete")
		require.NoError(t, store.Save(ctx, state.ID, state))
		require.NoError(t, store.Delete(ctx, state.ID))

		_, err := store.Load(ctx, state.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		// Deleting an absent session is a no-op.
		assert.NoError(t, store.Delete(ctx, state.ID))
	})
}

func contractState(id string) *session.State {
	bot := flow.Typebot{
		ID:   "greeter",
		Name: "Greeter",
		Variables: []flow.Variable{
			{ID: "v1", Name: "Name"},
		},
	}
	state := session.New(id, bot, "result-1")
	state.SetVariable("v1", "Ada")
	state.CurrentBlock = &session.Cursor{GroupID: "g1", BlockID: "b1"}
	return state
}
