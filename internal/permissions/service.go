package permissions

import (
	"context"
	"fmt"

	"github.com/sentinel-id/sentinel/internal/shared"
)

// Service handles permission registry logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateParams carries validated creation input. Name may be empty, in which
// case it is derived as <resource>:<action>.
type CreateParams struct {
	Name        string
	Description string
	Resource    string
	Action      string
}

// UpdateParams is an explicit patch: only non-nil fields overwrite.
type UpdateParams struct {
	Description *string
	Resource    *string
	Action      *string
}

// List returns all permissions.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.List(ctx)
}

// Get fetches a single permission.
func (s *Service) Get(ctx context.Context, id int64) (*Permission, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new permission, enforcing the name convention.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Permission, error) {
	if err := validateParts(params.Resource, params.Action); err != nil {
		return nil, err
	}
	name := Name(params.Resource, params.Action)
	if params.Name != "" && params.Name != name {
		return nil, fmt.Errorf("%w: name must be %q", shared.ErrInvalidInput, name)
	}
	return s.repo.Create(ctx, Permission{
		Name:        name,
		Description: params.Description,
		Resource:    params.Resource,
		Action:      params.Action,
	})
}

// Update applies a patch; the name is recomputed when resource or action
// change so it always matches the convention.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Permission, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Description != nil {
		existing.Description = *params.Description
	}
	if params.Resource != nil {
		existing.Resource = *params.Resource
	}
	if params.Action != nil {
		existing.Action = *params.Action
	}
	if err := validateParts(existing.Resource, existing.Action); err != nil {
		return nil, err
	}
	existing.Name = Name(existing.Resource, existing.Action)
	return s.repo.Update(ctx, *existing)
}

// Delete removes a permission not referenced by any role.
func (s *Service) Delete(ctx context.Context, id int64) error {
	refs, err := s.repo.CountRoleRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: permission is assigned to roles", shared.ErrInvalidInput)
	}
	return s.repo.Delete(ctx, id)
}
