package users

import "time"

// User represents a user account for management.
type User struct {
	ID              int64
	Email           string
	FirstName       string
	LastName        string
	PhoneNumber     *string
	Avatar          *string
	IsActive        bool
	IsEmailVerified bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Roles           []Role
}

// Role is the user-side view of a held role.
type Role struct {
	ID          int64
	Name        string
	Description string
	// Permissions holds the <resource>:<action> names granted by this role.
	Permissions []string
}
