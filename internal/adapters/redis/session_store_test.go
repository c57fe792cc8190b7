package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquilhq/tranquil-api/internal/ports"
	"github.com/tranquilhq/tranquil-api/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestSessionStore_CreateAndFind(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	sess, err := store.Create(ctx, ports.CreateSessionParams{
		UserID:     "user-123",
		Token:      "token-abc",
		DeviceInfo: "cli/1.0",
		TTL:        30 * time.Minute,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "user-123", sess.UserID)

	found, err := store.FindByToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
	assert.Equal(t, "cli/1.0", found.DeviceInfo)
	assert.WithinDuration(t, sess.ExpiresAt, found.ExpiresAt, time.Second)
}

func TestSessionStore_CreateDuplicateToken(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	params := ports.CreateSessionParams{UserID: "user-1", Token: "dup-token", TTL: time.Minute}
	_, err := store.Create(ctx, params)
	require.NoError(t, err)

	_, err = store.Create(ctx, params)
	assert.ErrorIs(t, err, ports.ErrTokenExists)
}

func TestSessionStore_FindNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.FindByToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_FindExpired(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	clock := time.Now()
	store := NewSessionStore(client).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	_, err := store.Create(ctx, ports.CreateSessionParams{
		UserID: "user-1",
		Token:  "short-lived",
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	// Advance the store clock past expiry. The Redis key TTL has not fired
	// yet, so this exercises the read-side expiry check.
	clock = clock.Add(2 * time.Hour)

	_, err = store.FindByToken(ctx, "short-lived")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// The stale key is removed as part of the read.
	exists, err := client.Exists(ctx, "session:short-lived").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestSessionStore_DeleteByToken(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	_, err := store.Create(ctx, ports.CreateSessionParams{UserID: "user-1", Token: "to-delete", TTL: time.Minute})
	require.NoError(t, err)

	removed, err := store.DeleteByToken(ctx, "to-delete")
	require.NoError(t, err)
	assert.True(t, removed)

	// Second delete is a no-op.
	removed, err = store.DeleteByToken(ctx, "to-delete")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSessionStore_Touch(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	sess, err := store.Create(ctx, ports.CreateSessionParams{UserID: "user-1", Token: "touch-me", TTL: time.Hour})
	require.NoError(t, err)

	later := sess.LastActive.Add(10 * time.Minute)
	require.NoError(t, store.Touch(ctx, "touch-me", later))

	found, err := store.FindByToken(ctx, "touch-me")
	require.NoError(t, err)
	assert.WithinDuration(t, later, found.LastActive, time.Second)

	// Touch must not extend the key TTL.
	ttl, err := client.TTL(ctx, "session:touch-me").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Hour)
	assert.Greater(t, ttl, 50*time.Minute)
}

func TestSessionStore_TouchMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	err := store.Touch(context.Background(), "ghost", time.Now())
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_DeleteExpiredIsNoOp(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	n, err := store.DeleteExpired(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}
