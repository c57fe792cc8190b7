package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects which store persists session records.
type SessionBackend string

const (
	// SessionBackendPostgres persists sessions in PostgreSQL with a reaper sweep.
	SessionBackendPostgres SessionBackend = "postgres"
	// SessionBackendRedis persists sessions in Redis with native key TTL.
	SessionBackendRedis SessionBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (s *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "postgres", "redis":
		*s = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: postgres, redis)", v)
	}
}

// Bcrypt cost bounds. Costs below 10 are too cheap against offline
// brute force on current hardware; costs above 12 make interactive
// logins noticeably slow.
const (
	minBcryptCost = 10
	maxBcryptCost = 12
)

// AuthConfig groups token, password hashing, and session configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC signing key for bearer tokens.
	// Its absence is a fatal startup condition, never a per-request error.
	JWTSecret string `env:"JWT_SECRET,required"`

	// TokenTTL is the lifetime of issued tokens and their session records.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	// SessionBackend selects where session records live.
	SessionBackend SessionBackend `env:"SESSION_BACKEND" envDefault:"postgres"`

	// RequireLiveSession makes the auth middleware confirm the session record
	// still exists on every protected request, at the cost of a store
	// round-trip. When false, a verified token is trusted until its embedded
	// expiry, so a logged-out token keeps working until then. The default
	// favors real revocation.
	RequireLiveSession bool `env:"AUTH_REQUIRE_LIVE_SESSION" envDefault:"true"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.TokenTTL <= 0 {
		a.TokenTTL = 24 * time.Hour
	}
	if a.BcryptCost < minBcryptCost {
		a.BcryptCost = minBcryptCost
	}
	if a.BcryptCost > maxBcryptCost {
		a.BcryptCost = maxBcryptCost
	}
	if a.SessionBackend == "" {
		a.SessionBackend = SessionBackendPostgres
	}
}
