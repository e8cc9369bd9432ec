package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
)

const notificationPageSize = 50

// NotificationService exposes the per-user notification feed.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	if notificationRepo == nil {
		panic("NotificationRepository cannot be nil for NotificationService")
	}
	return &NotificationService{notificationRepo: notificationRepo}
}

// ListForUser returns the newest notifications for a user, capped at one page.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, notificationPageSize)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list notifications")
		return nil, ErrInternalServer
	}
	return notifications, nil
}

// MarkRead stamps a notification as read. Only the owning user may mark it.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	notification, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":         userID,
			"notification_id": notificationID,
		}).Error("Failed to mark notification read")
		return nil, ErrInternalServer
	}
	return notification, nil
}
