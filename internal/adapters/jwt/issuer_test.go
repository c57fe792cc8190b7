package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquilhq/tranquil-api/internal/ports"
)

var testSecret = []byte("test-signing-secret")

func TestNewIssuerRejectsEmptySecret(t *testing.T) {
	_, err := NewIssuer(nil)
	assert.Error(t, err)

	_, err = NewIssuer([]byte{})
	assert.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuerWithClock(testSecret, func() time.Time { return fixed })
	require.NoError(t, err)

	token, claims, err := issuer.Issue("user-123", 24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, fixed, claims.IssuedAt)
	assert.Equal(t, fixed.Add(24*time.Hour), claims.ExpiresAt)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.UserID)
	assert.Equal(t, claims.IssuedAt.Unix(), got.IssuedAt.Unix())
	assert.Equal(t, claims.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestIssueMintsDistinctTokens(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuerWithClock(testSecret, func() time.Time { return fixed })
	require.NoError(t, err)

	// Identical user, TTL, and clock; the jti must still differ.
	t1, _, err := issuer.Issue("user-123", time.Hour)
	require.NoError(t, err)
	t2, _, err := issuer.Issue("user-123", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestVerifyExpiredToken(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuerWithClock(testSecret, func() time.Time { return clock })
	require.NoError(t, err)

	token, _, err := issuer.Issue("user-123", time.Hour)
	require.NoError(t, err)

	// Advance past expiry.
	clock = clock.Add(2 * time.Hour)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ports.ErrTokenExpired)
}

func TestVerifyForgedSignature(t *testing.T) {
	issuer, err := NewIssuer(testSecret)
	require.NoError(t, err)

	other, err := NewIssuer([]byte("a-different-secret"))
	require.NoError(t, err)

	token, _, err := other.Issue("user-123", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ports.ErrTokenSignature)
}

func TestVerifyTamperedPayload(t *testing.T) {
	issuer, err := NewIssuer(testSecret)
	require.NoError(t, err)

	token, _, err := issuer.Issue("user-123", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = "eyJ1aWQiOiJzb21lYm9keS1lbHNlIn0"
	_, err = issuer.Verify(strings.Join(parts, "."))

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrTokenExpired)
}

func TestVerifyMalformedToken(t *testing.T) {
	issuer, err := NewIssuer(testSecret)
	require.NoError(t, err)

	for _, bad := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := issuer.Verify(bad)
		assert.ErrorIs(t, err, ports.ErrTokenMalformed, "token %q", bad)
	}
}
