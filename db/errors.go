package db

import "errors"

// Sentinel errors for record store operations
var (
	// ErrEmailNotFound indicates that an email record was not found
	ErrEmailNotFound = errors.New("email not found")

	// ErrDuplicateEmail indicates that a record with the given id already exists
	ErrDuplicateEmail = errors.New("email already exists")
)
