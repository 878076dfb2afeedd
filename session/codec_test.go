package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSession(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		s := testSession(t, "U123", 1000)
		s.UpdateUser(User{UserID: "U123", Email: "ada@example.com"})

		data, err := EncodeSession(s)
		require.NoError(t, err)

		loaded, err := DecodeSession(data)
		require.NoError(t, err)
		assert.True(t, s.Equal(loaded))
		assert.Equal(t, "ada@example.com", loaded.User().Email)
	})

	t.Run("nil session", func(t *testing.T) {
		_, err := EncodeSession(nil)
		require.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodeSession([]byte("not json"))
		require.Error(t, err)
	})

	t.Run("undecodable tokens", func(t *testing.T) {
		_, err := DecodeSession([]byte(`{"version":1,"session_token":"a.b","refresh_token":"a.b","user":{}}`))
		require.Error(t, err)
	})
}
