package repository

import (
	"context"

	"collaborative-taskboard/internal/domain"
)

// UserRepository stores and retrieves user accounts.
type UserRepository interface {
	// FindByEmail returns ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns ErrUserNotFound when no account matches.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Save creates the user when its ID is new, otherwise updates it.
	// Returns ErrDuplicateEntry on a unique-constraint violation.
	Save(ctx context.Context, user *domain.User) error
}
