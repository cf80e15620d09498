package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-id/sentinel/internal/platform/db"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateWithDefaultRole(ctx context.Context, user User) (*User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
	SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error
	FindByResetToken(ctx context.Context, token string) (*User, error)
	ClaimResetToken(ctx context.Context, token, passwordHash string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password, first_name, last_name, phone_number,
	is_active, is_email_verified, last_login_at,
	reset_password_token, reset_password_expires, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &u.IsActive, &u.IsEmailVerified, &u.LastLoginAt,
		&u.ResetToken, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// CreateWithDefaultRole inserts a user and attaches the default "user" role in
// one transaction. The unique index on email makes concurrent registrations
// with the same address lose with ErrConflict rather than racing.
func (r *PGRepository) CreateWithDefaultRole(ctx context.Context, user User) (*User, error) {
	var created *User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var roleID int64
		err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = 'user'`).Scan(&roleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: default user role not found", shared.ErrInvalidInput)
			}
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO users (email, password, first_name, last_name, phone_number, is_active, is_email_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, false, now(), now())
			RETURNING `+userColumns,
			user.Email, user.PasswordHash, user.FirstName, user.LastName, user.PhoneNumber)
		created, err = scanUser(row)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: user with this email already exists", shared.ErrConflict)
			}
			return err
		}

		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, created.ID, roleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// TouchLastLogin records the login timestamp.
func (r *PGRepository) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`, userID)
	return err
}

// SetResetToken persists a freshly issued reset token and its expiry.
func (r *PGRepository) SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_password_token = $2, reset_password_expires = $3, updated_at = now()
		WHERE id = $1`, userID, token, expires.UTC())
	return err
}

// FindByResetToken fetches the user holding the exact token value.
func (r *PGRepository) FindByResetToken(ctx context.Context, token string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reset_password_token = $1`, token)
	return scanUser(row)
}

// ClaimResetToken atomically consumes an unexpired token: it swaps in the new
// password hash and clears both reset fields in a single UPDATE, so two
// concurrent consumers of the same token cannot both succeed. Returns
// ErrNotFound when no live token matched.
func (r *PGRepository) ClaimResetToken(ctx context.Context, token, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET password = $2, reset_password_token = NULL, reset_password_expires = NULL, updated_at = now()
		WHERE reset_password_token = $1 AND reset_password_expires IS NOT NULL AND reset_password_expires > now()
		RETURNING `+userColumns, token, passwordHash)
	return scanUser(row)
}

var _ Repository = (*PGRepository)(nil)
