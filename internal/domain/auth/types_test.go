package auth

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserJSONNeverLeaksPasswordHash(t *testing.T) {
	u := User{
		ID:           "u-1",
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: "$2a$10$supersecret",
		CreatedAt:    time.Now(),
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "supersecret"))

	sum, err := json.Marshal(u.Summary())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(sum), "supersecret"))
	assert.JSONEq(t, `{"id":"u-1","name":"Ann","email":"ann@x.com"}`, string(sum))
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}

	assert.True(t, s.Expired(now), "session expires exactly at ExpiresAt")
	assert.True(t, s.Expired(now.Add(time.Second)))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}
