package store

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/sessionkit/session"
	"github.com/wolfeidau/sessionkit/token"
)

// testSession builds a decoded session for the given subject.
func testSession(t *testing.T, subject string) *session.Session {
	t.Helper()

	sign := func(claims jwt.MapClaims) *token.Token {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		tok, err := token.Decode(raw)
		require.NoError(t, err)

		return tok
	}

	s, err := session.New(
		sign(jwt.MapClaims{"sub": subject, "exp": time.Now().Add(time.Hour).Unix()}),
		sign(jwt.MapClaims{"sub": subject}),
		session.User{UserID: subject, Email: subject + "@example.com"},
	)
	require.NoError(t, err)

	return s
}
