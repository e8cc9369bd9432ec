package repository

import (
	"context"

	"collaborative-taskboard/internal/domain"
)

// BoardRepository stores boards and their columns.
type BoardRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Board, error)
	FindByJoinCode(ctx context.Context, joinCode string) (*domain.Board, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Board, error)
	Save(ctx context.Context, board *domain.Board) error
	Delete(ctx context.Context, id string) error

	ListColumns(ctx context.Context, boardID string) ([]domain.Column, error)
	FindColumn(ctx context.Context, boardID, columnID string) (*domain.Column, error)
	SaveColumn(ctx context.Context, column *domain.Column) error
	DeleteColumn(ctx context.Context, boardID, columnID string) error
}
