package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
)

// GormCardRepository is the GORM implementation of CardRepository.
type GormCardRepository struct {
	db *gorm.DB
}

// NewGormCardRepository creates a GormCardRepository.
func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCardRepository")
	}
	return &GormCardRepository{db: db}
}

func (r *GormCardRepository) FindByID(ctx context.Context, id string) (*domain.Card, error) {
	var card domain.Card
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCardNotFound
		}
		return nil, fmt.Errorf("gorm: find card by id %s: %w", id, err)
	}
	return &card, nil
}

func (r *GormCardRepository) List(ctx context.Context, filter repository.CardFilter) ([]domain.Card, error) {
	query := r.db.WithContext(ctx).Model(&domain.Card{})
	if filter.BoardID != "" {
		query = query.Where("board_id = ?", filter.BoardID)
	}
	if filter.ColumnID != "" {
		query = query.Where("column_id = ?", filter.ColumnID)
	}

	var cards []domain.Card
	if err := query.Order("updated_at DESC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("gorm: list cards: %w", err)
	}
	return cards, nil
}

func (r *GormCardRepository) Create(ctx context.Context, card *domain.Card) error {
	if card.Version == 0 {
		card.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("gorm: create card (id: %s): %w", card.ID, err)
	}
	return nil
}

// UpdateVersioned performs the optimistic-lock write: the UPDATE is guarded
// by the expected version, and the version advances in the same statement.
// A concurrent writer that got there first leaves zero matched rows.
func (r *GormCardRepository) UpdateVersioned(ctx context.Context, card *domain.Card, expectedVersion int) error {
	card.Version = expectedVersion + 1
	result := r.db.WithContext(ctx).
		Model(&domain.Card{}).
		Where("id = ? AND version = ?", card.ID, expectedVersion).
		Updates(map[string]interface{}{
			"column_id":   card.ColumnID,
			"title":       card.Title,
			"description": card.Description,
			"assignee_id": card.AssigneeID,
			"labels":      card.Labels,
			"due_date":    card.DueDate,
			"version":     card.Version,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: versioned update of card %s: %w", card.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the card is gone or the version moved under us.
		var exists int64
		if err := r.db.WithContext(ctx).Model(&domain.Card{}).Where("id = ?", card.ID).Count(&exists).Error; err == nil && exists == 0 {
			return repository.ErrCardNotFound
		}
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *GormCardRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Card{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete card %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrCardNotFound
	}
	return nil
}
