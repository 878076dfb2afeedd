package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessionkit/internal/telemetry"
	"github.com/wolfeidau/sessionkit/token"
)

// Storage persists a session's serialized form. Load must tolerate a first
// run and corrupted state by returning nil rather than failing, a broken
// persisted session must not block application startup.
type Storage interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Remove(ctx context.Context) error
}

// Config configures a Manager.
type Config struct {
	// ProjectID identifies the project with the issuing service and prefixes
	// every bearer credential.
	ProjectID string

	// Storage persists the managed session. Required.
	Storage Storage

	// Invoker performs the network refresh call. Required.
	Invoker RefreshInvoker
}

// Manager is the application-facing facade: it composes storage and the
// refresh lifecycle around a single current session.
type Manager struct {
	projectID string
	storage   Storage
	lifecycle *Lifecycle
}

// NewManager creates a manager and loads any previously persisted session as
// the initial current session. A failed load degrades to no session.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("project ID is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("refresh invoker is required")
	}

	m := &Manager{
		projectID: cfg.ProjectID,
		storage:   cfg.Storage,
	}
	m.lifecycle = NewLifecycle(cfg.Invoker, m.persist)

	loaded, err := cfg.Storage.Load(ctx)
	if err != nil {
		// Storage implementations are expected to degrade to nil themselves,
		// this is a second line of defence.
		telemetry.GetMetrics().StorageErrorsTotal.Add(ctx, 1)
		log.Warn().Err(err).Msg("failed to load persisted session, starting without one")
	} else if loaded != nil {
		telemetry.GetMetrics().SessionLoadsTotal.Add(ctx, 1)
		m.lifecycle.Set(loaded)

		log.Debug().
			Str("token", loaded.SessionToken().Fingerprint()).
			Msg("restored persisted session")
	}

	return m, nil
}

// Session returns the current session, or nil when none is managed.
func (m *Manager) Session() *Session {
	return m.lifecycle.Current()
}

// ManageSession makes the given session the current one and persists it. Any
// previously managed session is discarded from memory.
func (m *Manager) ManageSession(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("cannot manage a nil session")
	}

	m.lifecycle.Set(s)

	if err := m.persist(ctx, s); err != nil {
		return err
	}

	log.Debug().
		Str("token", s.SessionToken().Fingerprint()).
		Str("entityID", s.EntityID()).
		Msg("session managed")

	return nil
}

// ClearSession drops the current session and erases it from storage.
// Idempotent, clearing with no active session is a no-op.
func (m *Manager) ClearSession(ctx context.Context) error {
	m.lifecycle.Clear()

	if err := m.storage.Remove(ctx); err != nil {
		telemetry.GetMetrics().StorageErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to erase persisted session: %w", err)
	}

	log.Debug().Msg("session cleared")

	return nil
}

// RefreshSessionIfNeeded refreshes the current session when its token is
// within RefreshWindow of expiry, guaranteeing a single in-flight refresh
// call across concurrent callers. Any applied change is persisted before
// this returns.
func (m *Manager) RefreshSessionIfNeeded(ctx context.Context) (*Session, error) {
	return m.lifecycle.RefreshIfNeeded(ctx)
}

// UpdateTokens applies a refresh result to the current session and persists
// it. A no-op when there is no current session.
func (m *Manager) UpdateTokens(ctx context.Context, result *RefreshResult) error {
	current := m.lifecycle.Current()
	if current == nil || result == nil {
		return nil
	}

	sessionToken, err := token.Decode(result.SessionToken)
	if err != nil {
		return err
	}

	var refreshToken *token.Token
	if result.RefreshToken != "" {
		refreshToken, err = token.Decode(result.RefreshToken)
		if err != nil {
			return err
		}
	}

	current.UpdateTokens(sessionToken, refreshToken)

	return m.persist(ctx, current)
}

// UpdateUser replaces the current session's user snapshot and persists it. A
// no-op when there is no current session.
func (m *Manager) UpdateUser(ctx context.Context, user User) error {
	current := m.lifecycle.Current()
	if current == nil {
		return nil
	}

	current.UpdateUser(user)

	return m.persist(ctx, current)
}

// BearerAuthorization returns the Authorization header value for the current
// session, in the form "Bearer <projectID>:<sessionToken>". The second
// return is false when no session is managed.
func (m *Manager) BearerAuthorization() (string, bool) {
	current := m.lifecycle.Current()
	if current == nil {
		return "", false
	}
	return "Bearer " + m.projectID + ":" + current.SessionToken().Raw(), true
}

func (m *Manager) persist(ctx context.Context, s *Session) error {
	if err := m.storage.Save(ctx, s); err != nil {
		telemetry.GetMetrics().StorageErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to persist session: %w", err)
	}

	telemetry.GetMetrics().SessionSavesTotal.Add(ctx, 1)

	return nil
}
