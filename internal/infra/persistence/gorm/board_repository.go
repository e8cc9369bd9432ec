package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
)

// GormBoardRepository is the GORM implementation of BoardRepository.
type GormBoardRepository struct {
	db *gorm.DB
}

// NewGormBoardRepository creates a GormBoardRepository.
func NewGormBoardRepository(db *gorm.DB) *GormBoardRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBoardRepository")
	}
	return &GormBoardRepository{db: db}
}

func (r *GormBoardRepository) FindByID(ctx context.Context, id string) (*domain.Board, error) {
	var board domain.Board
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBoardNotFound
		}
		return nil, fmt.Errorf("gorm: find board by id %s: %w", id, err)
	}
	return &board, nil
}

func (r *GormBoardRepository) FindByJoinCode(ctx context.Context, joinCode string) (*domain.Board, error) {
	var board domain.Board
	err := r.db.WithContext(ctx).Where("join_code = ?", joinCode).First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBoardNotFound
		}
		return nil, fmt.Errorf("gorm: find board by join code: %w", err)
	}
	return &board, nil
}

func (r *GormBoardRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Board, error) {
	var boards []domain.Board
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list boards for owner %s: %w", ownerID, err)
	}
	return boards, nil
}

func (r *GormBoardRepository) Save(ctx context.Context, board *domain.Board) error {
	err := r.db.WithContext(ctx).Save(board).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save board (id: %s): %w", board.ID, err)
	}
	return nil
}

func (r *GormBoardRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Board{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete board %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrBoardNotFound
	}
	return nil
}

func (r *GormBoardRepository) ListColumns(ctx context.Context, boardID string) ([]domain.Column, error) {
	var columns []domain.Column
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position ASC").
		Find(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list columns for board %s: %w", boardID, err)
	}
	return columns, nil
}

func (r *GormBoardRepository) FindColumn(ctx context.Context, boardID, columnID string) (*domain.Column, error) {
	var column domain.Column
	err := r.db.WithContext(ctx).
		Where("id = ? AND board_id = ?", columnID, boardID).
		First(&column).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: find column %s on board %s: %w", columnID, boardID, err)
	}
	return &column, nil
}

func (r *GormBoardRepository) SaveColumn(ctx context.Context, column *domain.Column) error {
	err := r.db.WithContext(ctx).Save(column).Error
	if err != nil {
		return fmt.Errorf("gorm: save column (id: %s): %w", column.ID, err)
	}
	return nil
}

func (r *GormBoardRepository) DeleteColumn(ctx context.Context, boardID, columnID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND board_id = ?", columnID, boardID).
		Delete(&domain.Column{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete column %s: %w", columnID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
