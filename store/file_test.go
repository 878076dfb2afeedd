package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		sessionDir := filepath.Join(tmpDir, "sessions")

		store, err := NewFileStore(sessionDir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(sessionDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load with no persisted session", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		sess := testSession(t, "U123")
		require.NoError(t, store.Save(ctx, sess))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.True(t, sess.Equal(loaded))
		assert.Equal(t, "U123@example.com", loaded.User().Email)
	})

	t.Run("session file has private permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewFileStore(tmpDir)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, testSession(t, "U123")))

		info, err := os.Stat(filepath.Join(tmpDir, sessionFileName))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("corrupt file degrades to no session", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewFileStore(tmpDir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, sessionFileName), []byte("{garbage"), 0600))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("remove deletes the session", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewFileStore(tmpDir)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, testSession(t, "U123")))
		require.NoError(t, store.Remove(ctx))

		_, err = os.Stat(filepath.Join(tmpDir, sessionFileName))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Remove(ctx))
		require.NoError(t, store.Remove(ctx))
	})
}
