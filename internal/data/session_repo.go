package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tranquilhq/tranquil-api/internal/data/pgxutil"
	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

var _ ports.SessionStore = (*SessionRepo)(nil)

// SessionRepo provides database operations for sessions. Expiry is
// enforced twice: lookups filter on expires_at, and the reaper physically
// removes expired rows in batches.
type SessionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSessionRepo creates a new SessionRepo with real time provider.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSessionRepoWithTimeProvider creates a new SessionRepo with a custom time provider (useful for tests).
func NewSessionRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SessionRepo {
	return &SessionRepo{DB: db, timeProvider: tp}
}

type sessionRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Token      string    `db:"token"`
	DeviceInfo string    `db:"device_info"`
	ExpiresAt  time.Time `db:"expires_at"`
	LastActive time.Time `db:"last_active"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r sessionRow) toDomain() *domainauth.Session {
	return &domainauth.Session{
		ID:         r.ID,
		UserID:     r.UserID,
		Token:      r.Token,
		DeviceInfo: r.DeviceInfo,
		ExpiresAt:  r.ExpiresAt,
		LastActive: r.LastActive,
		CreatedAt:  r.CreatedAt,
	}
}

// Create inserts a session expiring TTL from now.
func (r *SessionRepo) Create(ctx context.Context, params ports.CreateSessionParams) (*domainauth.Session, error) {
	if params.Token == "" {
		return nil, errors.New("session token cannot be empty")
	}
	if params.TTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	now := r.timeProvider.Now().UTC()

	var out sessionRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO sessions (user_id, token, device_info, expires_at, last_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, user_id, token, device_info, expires_at, last_active, created_at
		`,
			params.UserID,
			params.Token,
			params.DeviceInfo,
			now.Add(params.TTL),
			now,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[sessionRow])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ports.ErrTokenExists
		}
		return nil, err
	}
	return out.toDomain(), nil
}

// FindByToken returns the live session for the token. Rows past their
// expiry are invisible here even before the reaper removes them.
func (r *SessionRepo) FindByToken(ctx context.Context, token string) (*domainauth.Session, error) {
	if token == "" {
		return nil, ports.ErrSessionNotFound
	}

	var out sessionRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, user_id, token, device_info, expires_at, last_active, created_at
			FROM sessions
			WHERE token = $1 AND expires_at > $2
		`, token, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[sessionRow])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, err
	}
	return out.toDomain(), nil
}

// DeleteByToken removes the session bound to the token. Idempotent.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var removed bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// DeleteExpired removes up to limit sessions whose expiry is at or before
// cutoff. The ctid subquery keeps each sweep bounded so the reaper never
// holds a long delete over a large backlog.
func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 1000
	}

	var removed int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			DELETE FROM sessions
			WHERE ctid IN (
				SELECT ctid FROM sessions
				WHERE expires_at <= $1
				LIMIT $2
			)
		`, cutoff.UTC(), limit)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Touch updates the session's last-active timestamp.
func (r *SessionRepo) Touch(ctx context.Context, token string, now time.Time) error {
	if token == "" {
		return ports.ErrSessionNotFound
	}

	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE sessions SET last_active = $1 WHERE token = $2
		`, now.UTC(), token)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ports.ErrSessionNotFound
		}
		return nil
	})
}
