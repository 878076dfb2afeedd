package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load with no persisted session", func(t *testing.T) {
		store := NewMemoryStore()

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		store := NewMemoryStore()

		sess := testSession(t, "U123")
		require.NoError(t, store.Save(ctx, sess))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.True(t, sess.Equal(loaded))
	})

	t.Run("remove drops the session", func(t *testing.T) {
		store := NewMemoryStore()

		require.NoError(t, store.Save(ctx, testSession(t, "U123")))
		require.NoError(t, store.Remove(ctx))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		// Idempotent
		require.NoError(t, store.Remove(ctx))
	})
}
