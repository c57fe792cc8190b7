package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquilhq/tranquil-api/internal/ports"
	"github.com/tranquilhq/tranquil-api/internal/testutil"
)

func TestSessionRepo_CreateAndFind(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		user := createTestUser(t, db, fmt.Sprintf("sess-%d@example.com", time.Now().UnixNano()))
		repo := NewSessionRepo(db)

		sess, err := repo.Create(ctx, ports.CreateSessionParams{
			UserID:     user.ID,
			Token:      "token-1",
			DeviceInfo: "cli/1.0",
			TTL:        time.Hour,
		})
		require.NoError(t, err)
		require.NotEmpty(t, sess.ID)
		assert.Equal(t, user.ID, sess.UserID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

		found, err := repo.FindByToken(ctx, "token-1")
		require.NoError(t, err)
		assert.Equal(t, sess.ID, found.ID)
		assert.Equal(t, "cli/1.0", found.DeviceInfo)
	})
}

func TestSessionRepo_DuplicateToken(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		user := createTestUser(t, db, fmt.Sprintf("dup-%d@example.com", time.Now().UnixNano()))
		repo := NewSessionRepo(db)

		params := ports.CreateSessionParams{UserID: user.ID, Token: "same-token", TTL: time.Hour}
		_, err := repo.Create(ctx, params)
		require.NoError(t, err)

		_, err = repo.Create(ctx, params)
		assert.ErrorIs(t, err, ports.ErrTokenExists)
	})
}

func TestSessionRepo_ExpiredIsInvisible(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		user := createTestUser(t, db, fmt.Sprintf("exp-%d@example.com", time.Now().UnixNano()))

		// Create with a clock in the past so the session is already expired,
		// then read with the real clock.
		past := NewFixedTimeProvider(time.Now().Add(-2 * time.Hour))
		writer := NewSessionRepoWithTimeProvider(db, past)
		_, err := writer.Create(ctx, ports.CreateSessionParams{UserID: user.ID, Token: "stale", TTL: time.Hour})
		require.NoError(t, err)

		reader := NewSessionRepo(db)
		_, err = reader.FindByToken(ctx, "stale")
		assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	})
}

func TestSessionRepo_DeleteByToken(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		user := createTestUser(t, db, fmt.Sprintf("del-%d@example.com", time.Now().UnixNano()))
		repo := NewSessionRepo(db)

		_, err := repo.Create(ctx, ports.CreateSessionParams{UserID: user.ID, Token: "bye", TTL: time.Hour})
		require.NoError(t, err)

		removed, err := repo.DeleteByToken(ctx, "bye")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.DeleteByToken(ctx, "bye")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		user := createTestUser(t, db, fmt.Sprintf("reap-%d@example.com", time.Now().UnixNano()))

		past := NewFixedTimeProvider(time.Now().Add(-2 * time.Hour))
		writer := NewSessionRepoWithTimeProvider(db, past)
		for i := range 5 {
			_, err := writer.Create(ctx, ports.CreateSessionParams{
				UserID: user.ID,
				Token:  fmt.Sprintf("stale-%d", i),
				TTL:    time.Hour,
			})
			require.NoError(t, err)
		}
		repo := NewSessionRepo(db)
		_, err := repo.Create(ctx, ports.CreateSessionParams{UserID: user.ID, Token: "live", TTL: time.Hour})
		require.NoError(t, err)

		// Batch size smaller than the backlog; two sweeps drain it.
		n, err := repo.DeleteExpired(ctx, time.Now(), 3)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		n, err = repo.DeleteExpired(ctx, time.Now(), 3)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = repo.DeleteExpired(ctx, time.Now(), 3)
		require.NoError(t, err)
		assert.Zero(t, n)

		// The live session survives the sweep.
		_, err = repo.FindByToken(ctx, "live")
		assert.NoError(t, err)
	})
}

func TestSessionRepo_Touch(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		user := createTestUser(t, db, fmt.Sprintf("touch-%d@example.com", time.Now().UnixNano()))
		repo := NewSessionRepo(db)

		sess, err := repo.Create(ctx, ports.CreateSessionParams{UserID: user.ID, Token: "touchable", TTL: time.Hour})
		require.NoError(t, err)

		later := sess.LastActive.Add(15 * time.Minute)
		require.NoError(t, repo.Touch(ctx, "touchable", later))

		found, err := repo.FindByToken(ctx, "touchable")
		require.NoError(t, err)
		assert.WithinDuration(t, later, found.LastActive, time.Second)

		err = repo.Touch(ctx, "ghost", time.Now())
		assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	})
}

func TestSessionRepo_EmptyTokenShortCircuits(t *testing.T) {
	// No DB needed; empty tokens never reach a connection.
	repo := NewSessionRepo(nil)
	ctx := context.Background()

	_, err := repo.FindByToken(ctx, "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	removed, err := repo.DeleteByToken(ctx, "")
	require.NoError(t, err)
	assert.False(t, removed)

	err = repo.Touch(ctx, "", time.Now())
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}
