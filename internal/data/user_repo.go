package data

// Package data implements Postgres-backed repositories for users and
// sessions. Queries go through the pgx stdlib bridge so pgx row collection
// helpers stay available while sharing the database/sql pool.

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tranquilhq/tranquil-api/internal/data/pgxutil"
	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

var _ ports.UserStore = (*UserRepo)(nil)

// UserRepo provides database operations for users.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// userRow is the scan target matching column names.
type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domainauth.User {
	return &domainauth.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// Create inserts a new user. The unique index on email is the source of
// truth for duplicates; a violation maps to ports.ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (*domainauth.User, error) {
	createdAt := r.timeProvider.Now().UTC()

	var out userRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (name, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, name, email, password_hash, created_at
		`,
			strings.TrimSpace(name),
			email,
			passwordHash,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ports.ErrEmailTaken
		}
		return nil, err
	}
	return out.toDomain(), nil
}

// FindByEmail retrieves a user by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domainauth.User, error) {
	return r.findBy(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = $1
	`, email)
}

// FindByID retrieves a user by ID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*domainauth.User, error) {
	return r.findBy(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = $1
	`, id)
}

func (r *UserRepo) findBy(ctx context.Context, query string, arg any) (*domainauth.User, error) {
	var out userRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrUserNotFound
		}
		return nil, err
	}
	return out.toDomain(), nil
}
