package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserStore    = (*MemoryUserStore)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
)

// MemoryUserStore is an in-memory UserStore honoring the same sentinel
// errors as the Postgres repository.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]domainauth.User
	byEmail map[string]string

	// CreateErr, when set, is returned by Create to simulate storage failures.
	CreateErr error

	Clock func() time.Time
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]domainauth.User),
		byEmail: make(map[string]string),
		Clock:   time.Now,
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, name, email, passwordHash string) (*domainauth.User, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, ports.ErrEmailTaken
	}

	u := domainauth.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.Clock(),
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return &u, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*domainauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id string) (*domainauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	return &u, nil
}

// Len reports how many users are stored.
func (s *MemoryUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// MemorySessionStore is an in-memory SessionStore keyed by token. Expiry
// is enforced at read time against the injectable clock, matching the
// lookup semantics of the real stores.
type MemorySessionStore struct {
	mu      sync.RWMutex
	byToken map[string]domainauth.Session

	// FindErr and TouchErr, when set, simulate storage failures.
	FindErr  error
	TouchErr error

	Clock func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		byToken: make(map[string]domainauth.Session),
		Clock:   time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, params ports.CreateSessionParams) (*domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byToken[params.Token]; exists {
		return nil, ports.ErrTokenExists
	}

	now := s.Clock()
	sess := domainauth.Session{
		ID:         uuid.NewString(),
		UserID:     params.UserID,
		Token:      params.Token,
		DeviceInfo: params.DeviceInfo,
		ExpiresAt:  now.Add(params.TTL),
		LastActive: now,
		CreatedAt:  now,
	}
	s.byToken[params.Token] = sess
	return &sess, nil
}

func (s *MemorySessionStore) FindByToken(ctx context.Context, token string) (*domainauth.Session, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byToken[token]
	if !ok || sess.Expired(s.Clock()) {
		return nil, ports.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemorySessionStore) DeleteByToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byToken[token]; !ok {
		return false, nil
	}
	delete(s.byToken, token)
	return true, nil
}

func (s *MemorySessionStore) DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, sess := range s.byToken {
		if int(removed) >= limit {
			break
		}
		if !sess.ExpiresAt.After(cutoff) {
			delete(s.byToken, token)
			removed++
		}
	}
	return removed, nil
}

func (s *MemorySessionStore) Touch(ctx context.Context, token string, now time.Time) error {
	if s.TouchErr != nil {
		return s.TouchErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return ports.ErrSessionNotFound
	}
	sess.LastActive = now
	s.byToken[token] = sess
	return nil
}

// Len reports how many sessions are stored, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
