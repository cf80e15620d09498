package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	PhoneNumber     *string
	IsActive        bool
	IsEmailVerified bool
	LastLoginAt     *time.Time
	ResetToken      *string
	ResetExpires    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName returns the display name used in email templates.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
