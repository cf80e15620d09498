package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-id/sentinel/internal/platform/db"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// Repository defines data access methods for permissions.
type Repository interface {
	List(ctx context.Context) ([]Permission, error)
	Get(ctx context.Context, id int64) (*Permission, error)
	Create(ctx context.Context, p Permission) (*Permission, error)
	Update(ctx context.Context, p Permission) (*Permission, error)
	Delete(ctx context.Context, id int64) error
	CountRoleRefs(ctx context.Context, id int64) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const permissionColumns = `id, name, description, resource, action, created_at, updated_at`

func scanPermission(row pgx.Row) (*Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Resource, &p.Action, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all permissions ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Resource, &p.Action, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// Get fetches a permission by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
	return scanPermission(row)
}

// Create inserts a new permission. The unique index on name turns duplicate
// creations into ErrConflict.
func (r *PGRepository) Create(ctx context.Context, p Permission) (*Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description, resource, action, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+permissionColumns,
		p.Name, p.Description, p.Resource, p.Action)
	created, err := scanPermission(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: permission with this name already exists", shared.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

// Update persists a patched permission record.
func (r *PGRepository) Update(ctx context.Context, p Permission) (*Permission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE permissions
		SET name = $2, description = $3, resource = $4, action = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+permissionColumns,
		p.ID, p.Name, p.Description, p.Resource, p.Action)
	updated, err := scanPermission(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: permission with this name already exists", shared.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a permission. The RESTRICT foreign key on role_permissions
// backs up the service-level reference check.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: permission is assigned to roles", shared.ErrInvalidInput)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountRoleRefs counts role assignments referencing the permission.
func (r *PGRepository) CountRoleRefs(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM role_permissions WHERE permission_id = $1`, id).Scan(&count)
	return count, err
}

var _ Repository = (*PGRepository)(nil)
