package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
)

// Sentinel errors shared by all store implementations. Services translate
// these at the HTTP boundary; raw store errors never reach clients.
var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when creating a user with an email that
	// already exists. The storage layer's uniqueness constraint is the
	// guarantee; any pre-check is an optimization only.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionNotFound is returned when no live session matches the token.
	// Expired sessions are reported as not found even before reclamation.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenExists is returned when creating a session with a token that
	// is already bound. Collisions are negligible given issuer entropy, but
	// the contract is still defined.
	ErrTokenExists = errors.New("session token already exists")
)

// Token verification errors. Each implies a different client remediation,
// but the HTTP layer deliberately collapses them into one generic 401.
var (
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// UserStore persists user identity records. No update or delete operations
// are in scope; users are immutable after signup.
type UserStore interface {
	// Create inserts a new user. Returns ErrEmailTaken if the email exists.
	Create(ctx context.Context, name, email, passwordHash string) (*domainauth.User, error)

	// FindByEmail returns the user with the given email, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*domainauth.User, error)

	// FindByID returns the user with the given ID, or ErrUserNotFound.
	FindByID(ctx context.Context, id string) (*domainauth.User, error)
}

// CreateSessionParams groups inputs for SessionStore.Create.
type CreateSessionParams struct {
	UserID     string
	Token      string
	DeviceInfo string
	TTL        time.Duration
}

// SessionStore persists issued tokens bound to a user, with expiry and
// device metadata. Implementations must be safe for concurrent use.
type SessionStore interface {
	// Create inserts a session expiring TTL from now.
	// Returns ErrTokenExists when the token is already bound.
	Create(ctx context.Context, params CreateSessionParams) (*domainauth.Session, error)

	// FindByToken returns the live session for the token, or
	// ErrSessionNotFound. A session past its expiry is not found even if
	// the record has not been physically reclaimed yet.
	FindByToken(ctx context.Context, token string) (*domainauth.Session, error)

	// DeleteByToken removes the session bound to the token, reporting
	// whether a record was removed. Idempotent.
	DeleteByToken(ctx context.Context, token string) (bool, error)

	// DeleteExpired removes up to limit sessions whose expiry is at or
	// before cutoff, returning the number removed. The reaper calls this
	// in a loop until it returns zero.
	DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error)

	// Touch updates the session's last-active timestamp. Best-effort:
	// callers log failures instead of propagating them.
	Touch(ctx context.Context, token string, now time.Time) error
}

// PasswordHasher derives and verifies salted one-way password hashes.
type PasswordHasher interface {
	// Hash derives a hash with a fresh random salt. It fails only on
	// entropy or resource exhaustion.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches the hash, in constant time.
	// A mismatch is a false return, never an error.
	Verify(plaintext, hash string) bool
}

// TokenIssuer mints and verifies signed, time-limited bearer tokens.
// Implementations hold no per-request state and are shareable.
type TokenIssuer interface {
	// Issue mints a token embedding {userID, issuedAt, expiresAt = issuedAt + ttl}.
	Issue(userID string, ttl time.Duration) (string, domainauth.Claims, error)

	// Verify validates signature and expiry and returns the embedded
	// claims. Fails with ErrTokenSignature, ErrTokenExpired, or
	// ErrTokenMalformed.
	Verify(token string) (domainauth.Claims, error)
}
