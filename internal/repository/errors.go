package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateToken is returned when trying to create a refresh token with an existing value
	ErrDuplicateToken = errors.New("token with this value already exists")

	// ErrDuplicateReference is returned when trying to create a donation with an existing reference
	ErrDuplicateReference = errors.New("donation with this reference already exists")
)
