package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/wolfeidau/sessionkit/internal/telemetry"
	"github.com/wolfeidau/sessionkit/token"
)

// RefreshWindow is how far ahead of session-token expiry a refresh is
// triggered. Refreshing early avoids the race where a token expires while a
// dependent request is in flight.
const RefreshWindow = 60 * time.Second

// ErrRefreshFailed wraps a refresh invoker failure. The current session is
// left untouched so the caller can retry.
var ErrRefreshFailed = errors.New("session refresh failed")

// RefreshResult carries the tokens returned by a refresh call. RefreshToken
// is empty when the service did not rotate it, the existing one stays valid.
type RefreshResult struct {
	SessionToken string
	RefreshToken string
}

// RefreshInvoker performs the network refresh call.
type RefreshInvoker interface {
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
}

// Lifecycle owns the current session reference and guarantees at most one
// refresh call is in flight at a time. Concurrent callers join the in-flight
// attempt and observe the identical outcome.
type Lifecycle struct {
	invoker RefreshInvoker
	persist func(context.Context, *Session) error

	// now is replaced in tests to pin the refresh window arithmetic.
	now func() time.Time

	mu      sync.RWMutex
	current *Session

	group singleflight.Group
}

// NewLifecycle creates a lifecycle around the given invoker. persist, when
// non-nil, is called exactly once after a refresh has been applied to the
// current session.
func NewLifecycle(invoker RefreshInvoker, persist func(context.Context, *Session) error) *Lifecycle {
	return &Lifecycle{
		invoker: invoker,
		persist: persist,
		now:     time.Now,
	}
}

// Current returns the session the lifecycle is tracking, or nil.
func (l *Lifecycle) Current() *Session {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Set replaces the tracked session. A refresh already in flight for the
// previous session will discard its result on completion.
func (l *Lifecycle) Set(s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = s
}

// Clear drops the tracked session. Idempotent.
func (l *Lifecycle) Clear() {
	l.Set(nil)
}

// RefreshIfNeeded refreshes the current session when its token is within
// RefreshWindow of expiry. Without a current session, or outside the window,
// it returns immediately and the invoker is never contacted. Cancelling the
// caller's context detaches that caller from the wait, the underlying
// refresh keeps running for the other waiters.
func (l *Lifecycle) RefreshIfNeeded(ctx context.Context) (*Session, error) {
	current := l.Current()
	if current == nil {
		return nil, nil
	}

	if !current.SessionToken().ExpiresWithin(l.now(), RefreshWindow) {
		return current, nil
	}

	ch := l.group.DoChan("refresh", func() (any, error) {
		// The flight outlives any single caller.
		return l.refresh(context.WithoutCancel(ctx), current)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			telemetry.GetMetrics().RefreshJoinedTotal.Add(ctx, 1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

// refresh performs one refresh attempt for the session the flight started
// from, applying the result only if that session is still current.
func (l *Lifecycle) refresh(ctx context.Context, started *Session) (*Session, error) {
	// Double-check inside the flight: a refresh that completed between the
	// caller's window check and this one makes this attempt a no-op.
	if !started.SessionToken().ExpiresWithin(l.now(), RefreshWindow) {
		return started, nil
	}

	metrics := telemetry.GetMetrics()
	metrics.RefreshTotal.Add(ctx, 1)
	startedAt := time.Now()

	result, err := l.invoker.Refresh(ctx, started.RefreshToken().Raw())
	if err != nil {
		metrics.RefreshErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	metrics.RefreshDuration.Record(ctx, float64(time.Since(startedAt).Milliseconds()))

	sessionToken, err := token.Decode(result.SessionToken)
	if err != nil {
		metrics.RefreshErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	var refreshToken *token.Token
	if result.RefreshToken != "" {
		refreshToken, err = token.Decode(result.RefreshToken)
		if err != nil {
			metrics.RefreshErrorsTotal.Add(ctx, 1)
			return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
	}

	l.mu.Lock()
	if l.current != started {
		// The session was cleared or replaced mid-flight. That change wins,
		// a stale refresh must not resurrect it.
		current := l.current
		l.mu.Unlock()

		log.Warn().
			Str("token", sessionToken.Fingerprint()).
			Msg("session changed during refresh, discarding result")

		return current, nil
	}
	started.UpdateTokens(sessionToken, refreshToken)
	l.mu.Unlock()

	log.Debug().
		Str("token", sessionToken.Fingerprint()).
		Time("expiresAt", sessionToken.ExpiresAt()).
		Msg("session refreshed")

	if l.persist != nil {
		if err := l.persist(ctx, started); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
		}
	}

	return started, nil
}
