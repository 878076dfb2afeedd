package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessionkit/session"
)

// RedisStore persists the session in Redis, for server-side hosts that keep
// a managed session per service identity across restarts and replicas.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store writing under the given key. A
// ttl of zero means the key never expires, otherwise it is refreshed on
// every save.
func NewRedisStore(client redis.UniversalClient, key string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if key == "" {
		return nil, errors.New("redis key is required")
	}

	return &RedisStore{client: client, key: key, ttl: ttl}, nil
}

// Load reads the persisted session. A missing key or corrupt value degrades
// to no session, Redis being unreachable is surfaced so the caller can log
// it, the manager still degrades to no session.
func (s *RedisStore) Load(ctx context.Context) (*session.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session from redis: %w", err)
	}

	loaded, err := session.DecodeSession(data)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("persisted session is corrupt, ignoring")
		return nil, nil
	}

	return loaded, nil
}

// Save writes the serialized session, refreshing the TTL when one is set.
func (s *RedisStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := session.EncodeSession(sess)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session to redis: %w", err)
	}

	return nil
}

// Remove deletes the persisted session. Idempotent.
func (s *RedisStore) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to remove session from redis: %w", err)
	}

	return nil
}
