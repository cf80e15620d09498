package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-id/sentinel/internal/platform/db"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// Repository defines data access methods for roles and their permission edges.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, role Role, permissionIDs []int64) (*Role, error)
	Update(ctx context.Context, role Role) (*Role, error)
	Delete(ctx context.Context, id int64) error
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	RemovePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	CountUserRefs(ctx context.Context, roleID int64) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const roleColumns = `id, name, description, is_active, created_at, updated_at`

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// List returns all roles ordered by name, without permission edges.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Get fetches a role by ID with its permissions attached.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	perms, err := r.rolePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return role, nil
}

func (r *PGRepository) rolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.resource, p.action
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// Create inserts a role and attaches the given permission set in one
// transaction. Every id must resolve or the whole creation is rejected.
func (r *PGRepository) Create(ctx context.Context, role Role, permissionIDs []int64) (*Role, error) {
	var created *Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO roles (name, description, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			RETURNING `+roleColumns,
			role.Name, role.Description, role.IsActive)
		var err error
		created, err = scanRole(row)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: role with this name already exists", shared.ErrConflict)
			}
			return err
		}
		return attachPermissions(ctx, tx, created.ID, permissionIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, created.ID)
}

// Update persists name, description, and active flag.
func (r *PGRepository) Update(ctx context.Context, role Role) (*Role, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE roles
		SET name = $2, description = $3, is_active = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, role.IsActive)
	updated, err := scanRole(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: role with this name already exists", shared.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a role and its permission edges. The caller checks user
// references first; the RESTRICT foreign key on user_roles backs that up.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: role is assigned to users", shared.ErrInvalidInput)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReplacePermissions swaps the role's permission set for the given ids.
func (r *PGRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		return attachPermissions(ctx, tx, roleID, permissionIDs)
	})
}

// RemovePermissions detaches only the named ids, preserving the rest.
func (r *PGRepository) RemovePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions
		WHERE role_id = $1 AND permission_id = ANY($2)`, roleID, permissionIDs)
	return err
}

// CountUserRefs counts users currently holding the role.
func (r *PGRepository) CountUserRefs(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM user_roles WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

// attachPermissions verifies that every id resolves, then inserts the edges.
func attachPermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM permissions WHERE id = ANY($1)`, permissionIDs).Scan(&count); err != nil {
		return err
	}
	if count != int64(len(permissionIDs)) {
		return fmt.Errorf("%w: some permissions not found", shared.ErrInvalidInput)
	}
	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, pid); err != nil {
			return err
		}
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
