package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation (email, role name, permission name).
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login or password-verification failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput indicates a request the store cannot apply as given.
	ErrInvalidInput = errors.New("invalid input")
)
