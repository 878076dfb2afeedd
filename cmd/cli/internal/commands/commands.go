package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/sessionkit/client"
	"github.com/wolfeidau/sessionkit/session"
	"github.com/wolfeidau/sessionkit/store"
)

type Globals struct {
	Debug   bool
	Version string
}

// serviceFlags are shared by every command that talks to the
// authentication service. Flags override the config file.
type serviceFlags struct {
	BaseURL   string `help:"Authentication service base URL"`
	ProjectID string `help:"Project the session belongs to"`
	ConfigDir string `help:"Custom configuration directory"`
}

// newManager builds a session manager backed by the local file store and the
// HTTP client for the configured service.
func (f *serviceFlags) newManager(ctx context.Context) (*session.Manager, *client.Client, error) {
	cfg, err := loadConfig(f.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.ProjectID != "" {
		cfg.ProjectID = f.ProjectID
	}

	authClient, err := client.New(client.Config{
		BaseURL:   cfg.BaseURL,
		ProjectID: cfg.ProjectID,
	})
	if err != nil {
		return nil, nil, err
	}

	fileStore, err := store.NewFileStore(f.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	manager, err := session.NewManager(ctx, session.Config{
		ProjectID: cfg.ProjectID,
		Storage:   fileStore,
		Invoker:   authClient,
	})
	if err != nil {
		return nil, nil, err
	}

	return manager, authClient, nil
}
