package roles

import "time"

type createRoleRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Description   string  `json:"description,omitempty" validate:"max=255"`
	IsActive      *bool   `json:"is_active,omitempty"`
	PermissionIDs []int64 `json:"permission_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

type updateRoleRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=255"`
	IsActive      *bool    `json:"is_active,omitempty"`
	PermissionIDs *[]int64 `json:"permission_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

type permissionIDsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required,min=1,dive,gt=0"`
}

type permissionView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type roleResponse struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Permissions []permissionView `json:"permissions,omitempty"`
}

func toResponse(role *Role) roleResponse {
	out := roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsActive:    role.IsActive,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
	for _, p := range role.Permissions {
		out.Permissions = append(out.Permissions, permissionView{ID: p.ID, Name: p.Name, Resource: p.Resource, Action: p.Action})
	}
	return out
}
