package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinel-id/sentinel/internal/auth"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// Service handles user management logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateParams carries validated creation input.
type CreateParams struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	PhoneNumber     *string
	Avatar          *string
	IsActive        *bool
	IsEmailVerified *bool
	RoleIDs         []int64
}

// UpdateParams is an explicit patch: only non-nil fields overwrite. RoleIDs
// nil keeps the current role set, empty clears it, non-empty replaces it.
type UpdateParams struct {
	Email           *string
	FirstName       *string
	LastName        *string
	PhoneNumber     *string
	Avatar          *string
	IsActive        *bool
	IsEmailVerified *bool
	RoleIDs         *[]int64
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches a user with roles and their permissions.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new user with an optional explicit role set.
func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}
	user := User{
		Email:       strings.ToLower(strings.TrimSpace(params.Email)),
		FirstName:   strings.TrimSpace(params.FirstName),
		LastName:    strings.TrimSpace(params.LastName),
		PhoneNumber: params.PhoneNumber,
		Avatar:      params.Avatar,
		IsActive:    isActive,
	}
	if params.IsEmailVerified != nil {
		user.IsEmailVerified = *params.IsEmailVerified
	}
	return s.repo.Create(ctx, user, hash, params.RoleIDs)
}

// Update applies a patch to the user and, when requested, replaces the role
// set.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		if email != existing.Email {
			taken, err := s.repo.EmailExists(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, fmt.Errorf("%w: user with this email already exists", shared.ErrConflict)
			}
		}
		existing.Email = email
	}
	if params.FirstName != nil {
		existing.FirstName = strings.TrimSpace(*params.FirstName)
	}
	if params.LastName != nil {
		existing.LastName = strings.TrimSpace(*params.LastName)
	}
	if params.PhoneNumber != nil {
		existing.PhoneNumber = params.PhoneNumber
	}
	if params.Avatar != nil {
		existing.Avatar = params.Avatar
	}
	if params.IsActive != nil {
		existing.IsActive = *params.IsActive
	}
	if params.IsEmailVerified != nil {
		existing.IsEmailVerified = *params.IsEmailVerified
	}
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, err
	}
	if params.RoleIDs != nil {
		if err := s.repo.ReplaceRoles(ctx, id, *params.RoleIDs); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

// UpdatePassword verifies the current password before storing the new one.
func (s *Service) UpdatePassword(ctx context.Context, id int64, current, next string) error {
	hash, err := s.repo.GetPasswordHash(ctx, id)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(current, hash) {
		return fmt.Errorf("%w: current password is incorrect", shared.ErrInvalidCredentials)
	}
	newHash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.repo.SetPasswordHash(ctx, id, newHash)
}

// Delete removes the user together with its role assignments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// AssignRoles replaces the user's role set entirely.
func (s *Service) AssignRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRoles(ctx, id, roleIDs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// RemoveRoles detaches the named roles, keeping the rest.
func (s *Service) RemoveRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveRoles(ctx, id, roleIDs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ToggleStatus flips the active flag and returns the updated user.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (*User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !existing.IsActive); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
