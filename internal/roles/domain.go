package roles

import "time"

// Role represents a named permission bundle.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Permissions []Permission
}

// Permission is the role-side view of an attached permission.
type Permission struct {
	ID       int64
	Name     string
	Resource string
	Action   string
}
