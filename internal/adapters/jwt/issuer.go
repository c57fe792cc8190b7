// Package jwt adapts github.com/golang-jwt/jwt to the TokenIssuer port.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

var _ ports.TokenIssuer = (*Issuer)(nil)

// tokenClaims is the wire shape signed into tokens: the registered claim
// set plus the user identifier.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Issuer mints and verifies HS256-signed bearer tokens. It is a pure
// function of (secret, claims, clock): it holds no per-request state and is
// safe to share across all requests.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer with the given signing secret. An empty
// secret is a configuration error, caught at construction rather than per
// request.
func NewIssuer(secret []byte) (*Issuer, error) {
	return NewIssuerWithClock(secret, time.Now)
}

// NewIssuerWithClock creates an Issuer with an injected clock (useful for
// tests).
func NewIssuerWithClock(secret []byte, now func() time.Time) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, now: now}, nil
}

// Issue mints a signed token carrying {userID, issuedAt, expiresAt}.
func (i *Issuer) Issue(userID string, ttl time.Duration) (string, domainauth.Claims, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(ttl)

	// A unique jti guarantees two tokens minted in the same second differ,
	// so every login yields a distinct session token.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", domainauth.Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, domainauth.Claims{
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates the signature and expiry and returns the embedded
// claims. Expiry is checked from the claim itself, independent of any
// session record.
func (i *Issuer) Verify(tokenString string) (domainauth.Claims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domainauth.Claims{}, mapParseError(err)
	}
	if !token.Valid || claims.UserID == "" {
		return domainauth.Claims{}, ports.ErrTokenMalformed
	}

	out := domainauth.Claims{UserID: claims.UserID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// mapParseError translates jwt library errors into the port's failure
// kinds. Expiry wins over signature: an expired token with a valid
// signature tells the client to re-login, not to discard the token format.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ports.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ports.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ports.ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %w", ports.ErrTokenMalformed, err)
	}
}
