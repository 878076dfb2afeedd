package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfeidau/sessionkit/token"
)

// ErrEntityMismatch is returned when the session and refresh tokens were not
// issued for the same subject.
var ErrEntityMismatch = errors.New("session and refresh token subjects differ")

// User is a denormalized snapshot of the profile fields returned alongside
// tokens. It can be updated independently of the tokens.
type User struct {
	UserID           string         `json:"user_id"`
	Name             string         `json:"name,omitempty"`
	Email            string         `json:"email,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	VerifiedEmail    bool           `json:"verified_email,omitempty"`
	VerifiedPhone    bool           `json:"verified_phone,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	CustomAttributes map[string]any `json:"custom_attributes,omitempty"`
}

// Session pairs a short-lived session token with the longer-lived refresh
// token used to renew it, plus the user snapshot. Tokens are replaced as a
// unit under an internal lock so concurrent readers never observe a torn
// update.
type Session struct {
	mu           sync.RWMutex
	sessionToken *token.Token
	refreshToken *token.Token
	user         User
}

// New creates a session from a decoded session/refresh token pair. Both
// tokens must have been issued for the same subject.
func New(sessionToken, refreshToken *token.Token, user User) (*Session, error) {
	if sessionToken == nil || refreshToken == nil {
		return nil, errors.New("session requires both a session and a refresh token")
	}

	if sessionToken.EntityID() != refreshToken.EntityID() {
		return nil, fmt.Errorf("%w: session %q refresh %q",
			ErrEntityMismatch, sessionToken.EntityID(), refreshToken.EntityID())
	}

	return &Session{
		sessionToken: sessionToken,
		refreshToken: refreshToken,
		user:         user,
	}, nil
}

// SessionToken returns the current session token.
func (s *Session) SessionToken() *token.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() *token.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the current user snapshot.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// EntityID returns the subject both tokens were issued for.
func (s *Session) EntityID() string {
	return s.SessionToken().EntityID()
}

// Expired reports whether the session token has expired at the given time.
func (s *Session) Expired(now time.Time) bool {
	return s.SessionToken().Expired(now)
}

// HasPermission reports whether the session token grants the permission in
// the given tenant scope (project-wide when tenant is empty).
func (s *Session) HasPermission(permission string, tenant string) bool {
	return s.SessionToken().HasPermission(permission, tenant)
}

// HasRole reports whether the session token grants the role in the given
// tenant scope (project-wide when tenant is empty).
func (s *Session) HasRole(role string, tenant string) bool {
	return s.SessionToken().HasRole(role, tenant)
}

// Permissions returns the session token's permission set for the scope.
func (s *Session) Permissions(tenant string) []string {
	return s.SessionToken().Permissions(tenant)
}

// Roles returns the session token's role set for the scope.
func (s *Session) Roles(tenant string) []string {
	return s.SessionToken().Roles(tenant)
}

// UpdateTokens replaces the session token and, when a rotated refresh token
// was issued, the refresh token. A nil refresh token means the service kept
// the old one valid, it is retained, not erased.
func (s *Session) UpdateTokens(sessionToken, refreshToken *token.Token) {
	if sessionToken == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionToken = sessionToken
	if refreshToken != nil {
		s.refreshToken = refreshToken
	}
}

// UpdateUser replaces the user snapshot. Tokens are unaffected.
func (s *Session) UpdateUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Equal reports whether two sessions hold the same token pair by compact
// string.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.SessionToken().Equal(other.SessionToken()) &&
		s.RefreshToken().Equal(other.RefreshToken())
}
