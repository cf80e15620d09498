package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinel-id/sentinel/internal/shared"
)

// Service handles role registry logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateParams carries validated creation input.
type CreateParams struct {
	Name          string
	Description   string
	IsActive      *bool
	PermissionIDs []int64
}

// UpdateParams is an explicit patch: only non-nil fields overwrite.
// PermissionIDs nil keeps the current set, empty clears it, non-empty
// replaces it entirely.
type UpdateParams struct {
	Name          *string
	Description   *string
	IsActive      *bool
	PermissionIDs *[]int64
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role with its permissions.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new role with an optional initial permission set.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Role, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrInvalidInput)
	}
	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}
	return s.repo.Create(ctx, Role{
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		IsActive:    isActive,
	}, params.PermissionIDs)
}

// Update applies a patch to the role and, when requested, replaces its
// permission set.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Role, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: role name required", shared.ErrInvalidInput)
		}
		existing.Name = name
	}
	if params.Description != nil {
		existing.Description = strings.TrimSpace(*params.Description)
	}
	if params.IsActive != nil {
		existing.IsActive = *params.IsActive
	}
	if _, err := s.repo.Update(ctx, *existing); err != nil {
		return nil, err
	}
	if params.PermissionIDs != nil {
		if err := s.repo.ReplacePermissions(ctx, id, *params.PermissionIDs); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a role that no user currently holds.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	refs, err := s.repo.CountUserRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: cannot delete role as it is assigned to users", shared.ErrInvalidInput)
	}
	return s.repo.Delete(ctx, id)
}

// AssignPermissions replaces the role's permission set entirely.
func (s *Service) AssignPermissions(ctx context.Context, id int64, permissionIDs []int64) (*Role, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePermissions(ctx, id, permissionIDs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// RemovePermissions detaches the named permissions, keeping the rest.
func (s *Service) RemovePermissions(ctx context.Context, id int64, permissionIDs []int64) (*Role, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.RemovePermissions(ctx, id, permissionIDs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
