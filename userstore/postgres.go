package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authcore "github.com/casekit/authcore"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// Postgres is a [authcore.UserDirectory] backed by a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// Open connects to dsn with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewWithDB wraps an existing database handle.
func NewWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the underlying pool.
func (s *Postgres) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = "id, email, name, image, password_hash, status"

func scanUser(row *sql.Row) (authcore.UserRecord, error) {
	var (
		user   authcore.UserRecord
		status int16
	)
	err := row.Scan(&user.UserID, &user.Email, &user.Name, &user.Image, &user.PasswordHash, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, fmt.Errorf("scan user: %w", err)
	}
	user.Status = authcore.AccountStatus(status)
	return user, nil
}

// GetUserByEmail implements [authcore.UserDirectory].
func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (authcore.UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
	return scanUser(row)
}

// GetUserByID implements [authcore.UserDirectory].
func (s *Postgres) GetUserByID(ctx context.Context, userID string) (authcore.UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID)
	return scanUser(row)
}

// CreateUser implements [authcore.UserDirectory]. A unique-email conflict
// is reported as [authcore.ErrDuplicateEmail].
func (s *Postgres) CreateUser(ctx context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	id := uuid.NewString()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, name, image, password_hash, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		id, input.Email, input.Name, input.Image, input.PasswordHash, int16(input.Status))

	user, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return authcore.UserRecord{}, authcore.ErrDuplicateEmail
		}
		return authcore.UserRecord{}, err
	}
	return user, nil
}

// UpdatePasswordHash implements [authcore.UserDirectory].
func (s *Postgres) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1",
		userID, newHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if affected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// UpdateAccountStatus implements [authcore.UserDirectory].
func (s *Postgres) UpdateAccountStatus(ctx context.Context, userID string, status authcore.AccountStatus) (authcore.UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users SET status = $2, updated_at = now() WHERE id = $1
		 RETURNING `+userColumns,
		userID, int16(status))
	return scanUser(row)
}
