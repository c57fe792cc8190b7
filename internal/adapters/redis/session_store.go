package redis

// Package redis provides the Redis-backed session store. Redis key TTLs
// carry the expiry, so the reaper has nothing to reclaim here.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions as JSON values keyed by token, with the key
// TTL set to the session lifetime.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a Redis session store with the default prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:")
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key
// prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock overrides the store's clock. Test hook.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) key(token string) string {
	return s.prefix + token
}

func (s *SessionStore) Create(ctx context.Context, params ports.CreateSessionParams) (*domainauth.Session, error) {
	if params.Token == "" {
		return nil, errors.New("session token cannot be empty")
	}
	if params.TTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	now := s.now()
	sess := domainauth.Session{
		ID:         uuid.NewString(),
		UserID:     params.UserID,
		Token:      params.Token,
		DeviceInfo: params.DeviceInfo,
		ExpiresAt:  now.Add(params.TTL),
		LastActive: now,
		CreatedAt:  now,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(params.Token), data, params.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, ports.ErrTokenExists
	}

	return &sess, nil
}

func (s *SessionStore) FindByToken(ctx context.Context, token string) (*domainauth.Session, error) {
	if token == "" {
		return nil, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Double-check expiration (Redis TTL should handle this, but be defensive)
	if sess.Expired(s.now()) {
		if _, deleteErr := s.DeleteByToken(ctx, token); deleteErr != nil {
			return nil, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return nil, ports.ErrSessionNotFound
	}

	return &sess, nil
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	removed, err := s.client.Del(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return removed > 0, nil
}

// DeleteExpired is a no-op for Redis: key TTLs reclaim expired sessions
// without a sweep.
func (s *SessionStore) DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	return 0, nil
}

func (s *SessionStore) Touch(ctx context.Context, token string, now time.Time) error {
	if token == "" {
		return ports.ErrSessionNotFound
	}

	key := s.key(token)
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.ErrSessionNotFound
		}
		return fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	sess.LastActive = now

	updated, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// KeepTTL preserves the remaining expiry; touching must not extend it.
	return s.client.Set(ctx, key, updated, redis.KeepTTL).Err()
}
