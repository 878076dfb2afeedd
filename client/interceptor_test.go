package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/sessionkit/session"
	"github.com/wolfeidau/sessionkit/store"
	"github.com/wolfeidau/sessionkit/token"
)

// staticInvoker satisfies session.RefreshInvoker with a fixed outcome.
type staticInvoker struct {
	result *session.RefreshResult
	err    error
}

func (s *staticInvoker) Refresh(ctx context.Context, refreshToken string) (*session.RefreshResult, error) {
	return s.result, s.err
}

func testManager(t *testing.T, inv session.RefreshInvoker) *session.Manager {
	t.Helper()

	m, err := session.NewManager(context.Background(), session.Config{
		ProjectID: "P123",
		Storage:   store.NewMemoryStore(),
		Invoker:   inv,
	})
	require.NoError(t, err)

	return m
}

func testSession(t *testing.T, exp time.Time) *session.Session {
	t.Helper()

	sign := func(claims jwt.MapClaims) *token.Token {
		tok, err := token.Decode(signRaw(t, claims))
		require.NoError(t, err)
		return tok
	}

	sessionClaims := jwt.MapClaims{"sub": "U123"}
	if !exp.IsZero() {
		sessionClaims["exp"] = exp.Unix()
	}

	s, err := session.New(sign(sessionClaims), sign(jwt.MapClaims{"sub": "U123"}), session.User{UserID: "U123"})
	require.NoError(t, err)

	return s
}

func TestNewAuthInterceptor(t *testing.T) {
	t.Run("requires a manager", func(t *testing.T) {
		_, err := NewAuthInterceptor(nil)
		require.Error(t, err)
	})

	t.Run("with a manager", func(t *testing.T) {
		interceptor, err := NewAuthInterceptor(testManager(t, &staticInvoker{}))
		require.NoError(t, err)
		assert.NotNil(t, interceptor)
	})
}

func TestAuthInterceptor_AddAuthHeader(t *testing.T) {
	t.Run("injects the bearer credential", func(t *testing.T) {
		m := testManager(t, &staticInvoker{})
		sess := testSession(t, time.Now().Add(time.Hour))
		require.NoError(t, m.ManageSession(context.Background(), sess))

		interceptor, err := NewAuthInterceptor(m)
		require.NoError(t, err)

		headers := http.Header{}
		require.NoError(t, interceptor.addAuthHeader(context.Background(), headers))
		assert.Equal(t, "Bearer P123:"+sess.SessionToken().Raw(), headers.Get("Authorization"))
	})

	t.Run("no managed session leaves the request unauthenticated", func(t *testing.T) {
		interceptor, err := NewAuthInterceptor(testManager(t, &staticInvoker{}))
		require.NoError(t, err)

		headers := http.Header{}
		require.NoError(t, interceptor.addAuthHeader(context.Background(), headers))
		assert.Empty(t, headers.Get("Authorization"))
	})

	t.Run("refreshes a session close to expiry", func(t *testing.T) {
		refreshed := signRaw(t, jwt.MapClaims{"sub": "U123", "exp": time.Now().Add(time.Hour).Unix()})
		m := testManager(t, &staticInvoker{result: &session.RefreshResult{SessionToken: refreshed}})

		sess := testSession(t, time.Now().Add(10*time.Second))
		require.NoError(t, m.ManageSession(context.Background(), sess))

		interceptor, err := NewAuthInterceptor(m)
		require.NoError(t, err)

		headers := http.Header{}
		require.NoError(t, interceptor.addAuthHeader(context.Background(), headers))
		assert.Equal(t, "Bearer P123:"+refreshed, headers.Get("Authorization"))
	})

	t.Run("refresh failure surfaces", func(t *testing.T) {
		m := testManager(t, &staticInvoker{err: errors.New("boom")})

		require.NoError(t, m.ManageSession(context.Background(), testSession(t, time.Now().Add(10*time.Second))))

		interceptor, err := NewAuthInterceptor(m)
		require.NoError(t, err)

		err = interceptor.addAuthHeader(context.Background(), http.Header{})
		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrRefreshFailed)
	})
}
