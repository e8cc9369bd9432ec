package repository

import "errors"

// Common repository errors. Implementations map driver-specific failures
// onto these so the service layer can match with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrVersionConflict indicates an optimistic-lock update matched no rows
	// because the stored version differs from the expected one.
	ErrVersionConflict = errors.New("repository: version conflict")
)

// Resource-specific aliases.
var (
	ErrUserNotFound  = ErrNotFound
	ErrBoardNotFound = ErrNotFound
	ErrCardNotFound  = ErrNotFound
)
