package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-id/sentinel/internal/platform/db"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// Repository defines data access methods for user management.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user User, passwordHash string, roleIDs []int64) (*User, error)
	Update(ctx context.Context, user User) error
	GetPasswordHash(ctx context.Context, id int64) (string, error)
	SetPasswordHash(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	RemoveRoles(ctx context.Context, userID int64, roleIDs []int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, first_name, last_name, phone_number, avatar,
	is_active, is_email_verified, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.Avatar,
		&u.IsActive, &u.IsEmailVerified, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all users ordered by id, without role edges.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.Avatar,
			&u.IsActive, &u.IsEmailVerified, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Get fetches a user by ID with roles and their permission names attached.
func (r *PGRepository) Get(ctx context.Context, id int64) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	roleRows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, id)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var role Role
		if err := roleRows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, role)
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	for i := range user.Roles {
		perms, err := r.rolePermissionNames(ctx, user.Roles[i].ID)
		if err != nil {
			return nil, err
		}
		user.Roles[i].Permissions = perms
	}
	return user, nil
}

func (r *PGRepository) rolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// EmailExists reports whether another user already holds the email.
func (r *PGRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, excludeID).Scan(&exists)
	return exists, err
}

// Create inserts a user and attaches the given roles in one transaction. With
// no roles given, the default "user" role is attached when present.
func (r *PGRepository) Create(ctx context.Context, user User, passwordHash string, roleIDs []int64) (*User, error) {
	var createdID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if len(roleIDs) > 0 {
			var count int64
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM roles WHERE id = ANY($1)`, roleIDs).Scan(&count); err != nil {
				return err
			}
			if count != int64(len(roleIDs)) {
				return fmt.Errorf("%w: some roles not found", shared.ErrInvalidInput)
			}
		} else {
			var defaultID int64
			err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = 'user'`).Scan(&defaultID)
			switch {
			case err == nil:
				roleIDs = []int64{defaultID}
			case errors.Is(err, pgx.ErrNoRows):
				// No default role seeded; the user starts without roles.
			default:
				return err
			}
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, password, first_name, last_name, phone_number, avatar, is_active, is_email_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			RETURNING id`,
			user.Email, passwordHash, user.FirstName, user.LastName, user.PhoneNumber, user.Avatar,
			user.IsActive, user.IsEmailVerified).Scan(&createdID)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: user with this email already exists", shared.ErrConflict)
			}
			return err
		}

		for _, rid := range roleIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_roles (user_id, role_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING`, createdID, rid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, createdID)
}

// Update persists the mutable profile fields.
func (r *PGRepository) Update(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, phone_number = $5, avatar = $6,
			is_active = $7, is_email_verified = $8, updated_at = now()
		WHERE id = $1`,
		user.ID, user.Email, user.FirstName, user.LastName, user.PhoneNumber, user.Avatar,
		user.IsActive, user.IsEmailVerified)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: user with this email already exists", shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetPasswordHash fetches the stored hash for verification.
func (r *PGRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password FROM users WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	return hash, err
}

// SetPasswordHash stores an already-hashed password.
func (r *PGRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user and its role edges.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReplaceRoles swaps the user's role set for the given ids. Every id must
// resolve or the whole assignment is rejected.
func (r *PGRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if len(roleIDs) > 0 {
			var count int64
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM roles WHERE id = ANY($1)`, roleIDs).Scan(&count); err != nil {
				return err
			}
			if count != int64(len(roleIDs)) {
				return fmt.Errorf("%w: some roles not found", shared.ErrInvalidInput)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, rid := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, rid); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveRoles detaches only the named role ids, preserving the rest.
func (r *PGRepository) RemoveRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = ANY($2)`, userID, roleIDs)
	return err
}

// SetActive flips the active flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
