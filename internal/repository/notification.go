package repository

import (
	"context"

	"collaborative-taskboard/internal/domain"
)

// NotificationRepository stores per-user notification records.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error

	// ListByUser returns the newest records first, at most limit of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)

	// MarkRead stamps ReadAt on the user's notification and returns the
	// updated record. Returns ErrNotFound when the id does not exist or
	// belongs to another user.
	MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error)
}

// AuditRepository stores the append-only board mutation trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error

	// ListByBoard returns the newest entries first, at most limit of them.
	ListByBoard(ctx context.Context, boardID string, limit int) ([]domain.AuditEntry, error)
}
