package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"collaborative-taskboard/internal/domain"
)

// GormAuditRepository is the GORM implementation of AuditRepository.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a GormAuditRepository.
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAuditRepository")
	}
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("gorm: create audit entry for board %s: %w", entry.BoardID, err)
	}
	return nil
}

func (r *GormAuditRepository) ListByBoard(ctx context.Context, boardID string, limit int) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list audit entries for board %s: %w", boardID, err)
	}
	return entries, nil
}
