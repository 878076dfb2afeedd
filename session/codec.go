package session

import (
	"encoding/json"
	"fmt"

	"github.com/wolfeidau/sessionkit/token"
)

// persistedSession is the storage wire format: the two compact token strings
// plus the user snapshot. Tokens are re-decoded on load, so claims are never
// persisted separately and cannot drift from the wire representation.
type persistedSession struct {
	Version      int    `json:"version"`
	SessionToken string `json:"session_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

const persistedVersion = 1

// EncodeSession serializes a session for storage.
func EncodeSession(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot encode nil session")
	}

	return json.MarshalIndent(persistedSession{
		Version:      persistedVersion,
		SessionToken: s.SessionToken().Raw(),
		RefreshToken: s.RefreshToken().Raw(),
		User:         s.User(),
	}, "", "  ")
}

// DecodeSession deserializes a session previously written by EncodeSession.
func DecodeSession(data []byte) (*Session, error) {
	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse persisted session: %w", err)
	}

	sessionToken, err := token.Decode(p.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("persisted session token: %w", err)
	}

	refreshToken, err := token.Decode(p.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("persisted refresh token: %w", err)
	}

	return New(sessionToken, refreshToken, p.User)
}
