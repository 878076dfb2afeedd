// Package store provides Storage implementations for persisting the managed
// session: a local file (the default for CLI and desktop hosts), an
// in-process memory store, and a Redis store for server-side hosts.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessionkit/session"
)

const sessionFileName = "session.json"

// FileStore persists the session as a JSON file on the local filesystem.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir. If baseDir is empty,
// uses ~/.sessionkit/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".sessionkit")
	}

	// Session files hold live credentials, keep the directory private
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("file session store initialized")

	return &FileStore{baseDir: baseDir}, nil
}

// Load reads the persisted session. A missing or unreadable file degrades to
// no session rather than an error, a corrupt persisted session must never
// block startup.
func (s *FileStore) Load(ctx context.Context) (*session.Session, error) {
	path := filepath.Join(s.baseDir, sessionFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read persisted session, ignoring")
		}
		return nil, nil
	}

	loaded, err := session.DecodeSession(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("persisted session is corrupt, ignoring")
		return nil, nil
	}

	return loaded, nil
}

// Save writes the session atomically via a temp file and rename.
func (s *FileStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := session.EncodeSession(sess)
	if err != nil {
		return err
	}

	path := filepath.Join(s.baseDir, sessionFileName)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Remove deletes the persisted session. Removing an absent session is not an
// error.
func (s *FileStore) Remove(ctx context.Context) error {
	path := filepath.Join(s.baseDir, sessionFileName)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	return nil
}
