package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfeidau/sessionkit/internal/logger"
	"github.com/wolfeidau/sessionkit/session"
	"github.com/wolfeidau/sessionkit/token"
)

// SessionCmd manages the locally persisted session.
type SessionCmd struct {
	Show    SessionShowCmd    `cmd:"" help:"Show the current session"`
	Import  SessionImportCmd  `cmd:"" help:"Import a session from raw tokens"`
	Refresh SessionRefreshCmd `cmd:"" help:"Refresh the session if it is close to expiry"`
	Clear   SessionClearCmd   `cmd:"" help:"Clear the current session"`
}

// SessionShowCmd prints the persisted session.
type SessionShowCmd struct {
	serviceFlags
}

func (c *SessionShowCmd) Run(ctx context.Context, globals *Globals) error {
	manager, _, err := c.newManager(ctx)
	if err != nil {
		return err
	}

	sess := manager.Session()
	if sess == nil {
		fmt.Println("No session found.")
		fmt.Println()
		fmt.Println("To import a session:")
		fmt.Println("  sessionkit-cli session import <session-token> <refresh-token>")
		return nil
	}

	sessionToken := sess.SessionToken()

	fmt.Printf("Entity:       %s\n", sessionToken.EntityID())
	fmt.Printf("Fingerprint:  %s\n", sessionToken.Fingerprint())
	if sessionToken.ExpiresAt().IsZero() {
		fmt.Println("Expires:      never")
	} else {
		status := ""
		if sessionToken.Expired(time.Now()) {
			status = "  (expired)"
		}
		fmt.Printf("Expires:      %s%s\n", sessionToken.ExpiresAt().Format("2006-01-02 15:04:05"), status)
	}

	user := sess.User()
	if user.Name != "" {
		fmt.Printf("Name:         %s\n", user.Name)
	}
	if user.Email != "" {
		fmt.Printf("Email:        %s\n", user.Email)
	}

	return nil
}

// SessionImportCmd imports a session from raw tokens, typically copied from a
// sign-in flow completed elsewhere.
type SessionImportCmd struct {
	SessionToken string `arg:"" help:"Raw session JWT"`
	RefreshToken string `arg:"" help:"Raw refresh JWT"`
	FetchProfile bool   `help:"Fetch the user profile from the service" default:"true" negatable:""`

	serviceFlags
}

func (c *SessionImportCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	manager, authClient, err := c.newManager(ctx)
	if err != nil {
		return err
	}

	sessionToken, err := token.Decode(c.SessionToken)
	if err != nil {
		return fmt.Errorf("failed to decode session token: %w", err)
	}

	refreshToken, err := token.Decode(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to decode refresh token: %w", err)
	}

	sess, err := session.New(sessionToken, refreshToken, session.User{UserID: sessionToken.EntityID()})
	if err != nil {
		return fmt.Errorf("failed to import tokens: %w", err)
	}

	if c.FetchProfile {
		user, err := authClient.Me(ctx, c.SessionToken)
		if err != nil {
			log.Warn().Err(err).Msg("failed to fetch user profile, importing without it")
		} else {
			sess.UpdateUser(*user)
		}
	}

	if err := manager.ManageSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	fmt.Printf("Session imported for %s.\n", sess.SessionToken().EntityID())
	return nil
}

// SessionRefreshCmd refreshes the session when it is expired or close to
// expiry. Fresh sessions are left alone.
type SessionRefreshCmd struct {
	serviceFlags
}

func (c *SessionRefreshCmd) Run(ctx context.Context, globals *Globals) error {
	manager, _, err := c.newManager(ctx)
	if err != nil {
		return err
	}

	before := manager.Session()
	if before == nil {
		return fmt.Errorf("no session found, run 'sessionkit-cli session import' first")
	}

	// The session is refreshed in place, keep the old raw token around to
	// tell a refresh apart from a no-op.
	beforeRaw := before.SessionToken().Raw()

	after, err := manager.RefreshSessionIfNeeded(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}

	if after.SessionToken().Raw() == beforeRaw {
		fmt.Printf("Session is still fresh, expires %s.\n", after.SessionToken().ExpiresAt().Format("2006-01-02 15:04:05"))
		return nil
	}

	fmt.Printf("Session refreshed, now expires %s.\n", after.SessionToken().ExpiresAt().Format("2006-01-02 15:04:05"))
	return nil
}

// SessionClearCmd clears the persisted session.
type SessionClearCmd struct {
	Revoke bool `help:"Also revoke the refresh token on the service" default:"true" negatable:""`

	serviceFlags
}

func (c *SessionClearCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	manager, authClient, err := c.newManager(ctx)
	if err != nil {
		return err
	}

	sess := manager.Session()
	if sess == nil {
		fmt.Println("No session to clear.")
		return nil
	}

	if c.Revoke {
		if err := authClient.Logout(ctx, sess.RefreshToken().Raw()); err != nil {
			log.Warn().Err(err).Msg("failed to revoke refresh token, clearing locally anyway")
		}
	}

	if err := manager.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Println("Session cleared.")
	return nil
}
