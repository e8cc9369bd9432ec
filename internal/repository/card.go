package repository

import (
	"context"

	"collaborative-taskboard/internal/domain"
)

// CardFilter narrows card listings. Zero-value fields are ignored.
type CardFilter struct {
	BoardID  string
	ColumnID string
}

// CardRepository stores cards with their optimistic-concurrency version.
type CardRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Card, error)
	List(ctx context.Context, filter CardFilter) ([]domain.Card, error)
	Create(ctx context.Context, card *domain.Card) error

	// UpdateVersioned writes the card only if the stored version still equals
	// expectedVersion, incrementing the version in the same statement.
	// Returns ErrVersionConflict when the guard matches no rows.
	UpdateVersioned(ctx context.Context, card *domain.Card, expectedVersion int) error

	Delete(ctx context.Context, id string) error
}
