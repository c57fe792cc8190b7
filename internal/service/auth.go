package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/observability/statsd"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

const minPasswordLength = 6

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users    ports.UserStore      // Required: user store
	Sessions ports.SessionStore   // Required: session store
	Hasher   ports.PasswordHasher // Required: password hasher
	Issuer   ports.TokenIssuer    // Required: token issuer

	TokenTTL           time.Duration // Optional: defaults to 24h
	RequireLiveSession bool          // Confirm session record on every Authenticate
	Logger             *slog.Logger  // Optional: structured logger
	Metrics            statsd.Sink   // Optional: metrics sink (StatsD-compatible)
	Clock              func() time.Time
}

// AuthService orchestrates signup, login, logout, and request
// authentication by coordinating the hasher, the token issuer, and the
// user and session stores.
type AuthService struct {
	users    ports.UserStore
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	issuer   ports.TokenIssuer

	tokenTTL           time.Duration
	requireLiveSession bool
	logger             *slog.Logger
	metrics            statsd.Sink
	clock              func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Users == nil {
		return nil, errors.New("UserStore is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("PasswordHasher is required")
	}
	if opts.Issuer == nil {
		return nil, errors.New("TokenIssuer is required")
	}

	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "auth_service")
	}

	return &AuthService{
		users:              opts.Users,
		sessions:           opts.Sessions,
		hasher:             opts.Hasher,
		issuer:             opts.Issuer,
		tokenTTL:           ttl,
		requireLiveSession: opts.RequireLiveSession,
		logger:             logger,
		metrics:            opts.Metrics,
		clock:              clock,
	}, nil
}

// SignupInput groups parameters for Signup.
type SignupInput struct {
	Name       string
	Email      string
	Password   string
	DeviceInfo string
}

// LoginInput groups parameters for Login.
type LoginInput struct {
	Email      string
	Password   string
	DeviceInfo string
}

// AuthResult is returned by Signup and Login: the client-facing user shape
// plus a fresh bearer token.
type AuthResult struct {
	User      domainauth.UserSummary
	Token     string
	ExpiresAt time.Time
}

// Signup registers a new user and opens their first session.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, NewValidationError("name is required")
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, name, input.Email, hash)
	if err != nil {
		// ErrEmailTaken passes through for the handler's 409.
		return nil, err
	}

	result, err := s.openSession(ctx, user, input.DeviceInfo)
	if err != nil {
		return nil, err
	}

	s.count("auth.signup", nil)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	}
	return result, nil
}

// Login authenticates credentials and opens a new session. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, NewValidationError("email is required")
	}
	if input.Password == "" {
		return nil, NewValidationError("password is required")
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			s.count("auth.login_failed", nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.count("auth.login_failed", nil)
		return nil, ErrInvalidCredentials
	}

	result, err := s.openSession(ctx, user, input.DeviceInfo)
	if err != nil {
		return nil, err
	}

	s.count("auth.login", nil)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	}
	return result, nil
}

// Logout revokes the session bound to the token. Unknown and already
// logged-out tokens succeed; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	removed, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.count("auth.logout", nil)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "logout", "session_removed", removed)
	}
	return nil
}

// Authenticate resolves a bearer token to the current user. Every failure
// mode collapses into ErrUnauthenticated so callers cannot distinguish a
// forged token from a revoked one.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domainauth.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		s.count("auth.token_rejected", nil)
		return nil, ErrUnauthenticated
	}

	if s.requireLiveSession {
		if _, err := s.sessions.FindByToken(ctx, token); err != nil {
			if errors.Is(err, ports.ErrSessionNotFound) {
				s.count("auth.session_revoked", nil)
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("find session: %w", err)
		}

		// Best-effort activity tracking; a failed touch never rejects the request.
		if touchErr := s.sessions.Touch(ctx, token, s.clock()); touchErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "session touch failed", "error", touchErr)
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// openSession mints a token and persists its session record. The token is
// returned to the caller atomically with the session; a failure at either
// step yields neither.
func (s *AuthService) openSession(ctx context.Context, user *domainauth.User, deviceInfo string) (*AuthResult, error) {
	token, claims, err := s.issuer.Issue(user.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if _, err := s.sessions.Create(ctx, ports.CreateSessionParams{
		UserID:     user.ID,
		Token:      token,
		DeviceInfo: deviceInfo,
		TTL:        s.tokenTTL,
	}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResult{
		User:      user.Summary(),
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *AuthService) count(name string, tags map[string]string) {
	if s.metrics != nil {
		s.metrics.Count(name, 1, tags)
	}
}

func validateEmail(email string) error {
	e := strings.TrimSpace(email)
	if e == "" {
		return NewValidationError("email is required")
	}
	at := strings.Index(e, "@")
	if at <= 0 || at == len(e)-1 {
		return NewValidationError("email is malformed")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return NewValidationError("password is required")
	}
	if len(password) < minPasswordLength {
		return NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
