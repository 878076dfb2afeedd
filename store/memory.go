package store

import (
	"context"
	"sync"

	"github.com/wolfeidau/sessionkit/session"
)

// MemoryStore keeps the serialized session in process memory. Useful for
// tests and for hosts that manage persistence themselves.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored session, or nil when none was saved. Corrupt data
// degrades to no session.
func (s *MemoryStore) Load(ctx context.Context) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, nil
	}

	loaded, err := session.DecodeSession(s.data)
	if err != nil {
		return nil, nil
	}

	return loaded, nil
}

// Save stores the serialized session.
func (s *MemoryStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := session.EncodeSession(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data

	return nil
}

// Remove drops the stored session. Idempotent.
func (s *MemoryStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil

	return nil
}
