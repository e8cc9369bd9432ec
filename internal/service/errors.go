package service

import (
	"errors"

	"collaborative-taskboard/internal/domain"
)

// Business errors returned by the service layer. Handlers map these to
// HTTP status codes.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrBoardNotFound        = errors.New("board not found")
	ErrColumnNotFound       = errors.New("column not found")
	ErrCardNotFound         = errors.New("card not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: email already in use")
	ErrInvalidJoinCode      = errors.New("invalid join code")
	ErrInternalServer       = errors.New("internal server error")
)

// VersionConflictError reports a lost optimistic-concurrency race on a card
// update. It carries the authoritative server copy so the client can
// reconcile.
type VersionConflictError struct {
	ServerVersion int
	Server        *domain.Card
}

func (e *VersionConflictError) Error() string {
	return "version conflict"
}
