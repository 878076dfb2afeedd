package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_Expired(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "U123", "exp": int64(1000)})
	tok, err := Decode(raw)
	require.NoError(t, err)

	t.Run("before expiry", func(t *testing.T) {
		assert.False(t, tok.Expired(time.Unix(999, 0)))
	})

	t.Run("exact boundary is expired", func(t *testing.T) {
		assert.True(t, tok.Expired(time.Unix(1000, 0)))
	})

	t.Run("after expiry", func(t *testing.T) {
		assert.True(t, tok.Expired(time.Unix(1001, 0)))
	})
}

func TestToken_ExpiresWithin(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "U123", "exp": int64(1000)})
	tok, err := Decode(raw)
	require.NoError(t, err)

	t.Run("outside the window", func(t *testing.T) {
		assert.False(t, tok.ExpiresWithin(time.Unix(939, 0), 60*time.Second))
	})

	t.Run("window boundary", func(t *testing.T) {
		assert.True(t, tok.ExpiresWithin(time.Unix(940, 0), 60*time.Second))
	})

	t.Run("non expiring token never enters the window", func(t *testing.T) {
		forever, err := Decode(signToken(t, jwt.MapClaims{"sub": "U123"}))
		require.NoError(t, err)
		assert.False(t, forever.ExpiresWithin(time.Unix(940, 0), 60*time.Second))
	})
}

func TestToken_Authorization(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":         "U123",
		"permissions": []any{"billing"},
		"tenants": map[string]any{
			"t1": map[string]any{"permissions": []any{"read"}},
		},
	})
	tok, err := Decode(raw)
	require.NoError(t, err)

	t.Run("tenant scope returns only that tenant", func(t *testing.T) {
		assert.Equal(t, []string{"read"}, tok.Permissions("t1"))
		assert.True(t, tok.HasPermission("read", "t1"))
		assert.False(t, tok.HasPermission("billing", "t1"))
	})

	t.Run("absent tenant yields empty set", func(t *testing.T) {
		assert.Empty(t, tok.Permissions("t2"))
		assert.False(t, tok.HasPermission("read", "t2"))
	})

	t.Run("project scope is never merged with tenants", func(t *testing.T) {
		assert.Equal(t, []string{"billing"}, tok.Permissions(""))
		assert.False(t, tok.HasPermission("read", ""))
	})

	t.Run("tenants are listed sorted", func(t *testing.T) {
		multi, err := Decode(signToken(t, jwt.MapClaims{
			"sub": "U123",
			"tenants": map[string]any{
				"t2": map[string]any{"roles": []any{"viewer"}},
				"t1": map[string]any{"permissions": []any{"read"}},
			},
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, multi.Tenants())
	})
}

func TestToken_Equal(t *testing.T) {
	first, err := Decode(signToken(t, jwt.MapClaims{"sub": "U123", "n": int64(1)}))
	require.NoError(t, err)
	second, err := Decode(signToken(t, jwt.MapClaims{"sub": "U123", "n": int64(2)}))
	require.NoError(t, err)

	assert.True(t, first.Equal(first))
	assert.False(t, first.Equal(second))
	assert.False(t, first.Equal(nil))
}

func TestToken_Fingerprint(t *testing.T) {
	tok, err := Decode(signToken(t, jwt.MapClaims{"sub": "U123"}))
	require.NoError(t, err)

	fp := tok.Fingerprint()
	assert.Len(t, fp, 12)

	again, err := Decode(tok.Raw())
	require.NoError(t, err)
	assert.Equal(t, fp, again.Fingerprint())

	other, err := Decode(signToken(t, jwt.MapClaims{"sub": "U456"}))
	require.NoError(t, err)
	assert.NotEqual(t, fp, other.Fingerprint())
}
