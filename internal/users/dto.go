package users

import "time"

type createUserRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	FirstName       string  `json:"first_name" validate:"required,max=100"`
	LastName        string  `json:"last_name" validate:"required,max=100"`
	PhoneNumber     *string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Avatar          *string `json:"avatar,omitempty" validate:"omitempty,max=255"`
	IsActive        *bool   `json:"is_active,omitempty"`
	IsEmailVerified *bool   `json:"is_email_verified,omitempty"`
	RoleIDs         []int64 `json:"role_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

type updateUserRequest struct {
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	FirstName       *string  `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName        *string  `json:"last_name,omitempty" validate:"omitempty,max=100"`
	PhoneNumber     *string  `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Avatar          *string  `json:"avatar,omitempty" validate:"omitempty,max=255"`
	IsActive        *bool    `json:"is_active,omitempty"`
	IsEmailVerified *bool    `json:"is_email_verified,omitempty"`
	RoleIDs         *[]int64 `json:"role_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type roleIDsRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

type roleView struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type userResponse struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	PhoneNumber     *string    `json:"phone_number,omitempty"`
	Avatar          *string    `json:"avatar,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Roles           []roleView `json:"roles,omitempty"`
}

func toResponse(user *User) userResponse {
	out := userResponse{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		PhoneNumber:     user.PhoneNumber,
		Avatar:          user.Avatar,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		LastLoginAt:     user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
	for _, role := range user.Roles {
		out.Roles = append(out.Roles, roleView{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			Permissions: role.Permissions,
		})
	}
	return out
}
