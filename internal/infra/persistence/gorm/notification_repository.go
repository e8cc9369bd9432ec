package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
)

// GormNotificationRepository is the GORM implementation of
// NotificationRepository.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a GormNotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormNotificationRepository")
	}
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("gorm: create notification for user %s: %w", notification.UserID, err)
	}
	return nil
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", now)
	if result.Error != nil {
		return nil, fmt.Errorf("gorm: mark notification %s read: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	var notification domain.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: reload notification %s: %w", id, err)
	}
	return &notification, nil
}
