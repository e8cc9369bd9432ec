package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/mail"
	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/tasks"
)

// TaskEnqueuer is the slice of *asynq.Client the card service needs, kept
// as an interface so tests can capture enqueued tasks.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CardService handles card CRUD with optimistic concurrency, plus the
// notification and email side effects of assignment changes.
type CardService struct {
	cardRepo         repository.CardRepository
	boardRepo        repository.BoardRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	auditRepo        repository.AuditRepository
	enqueuer         TaskEnqueuer
}

// NewCardService creates a CardService. enqueuer may be nil, in which case
// assignment emails are skipped.
func NewCardService(
	cardRepo repository.CardRepository,
	boardRepo repository.BoardRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	auditRepo repository.AuditRepository,
	enqueuer TaskEnqueuer,
) *CardService {
	if cardRepo == nil {
		panic("CardRepository cannot be nil for CardService")
	}
	if boardRepo == nil {
		panic("BoardRepository cannot be nil for CardService")
	}
	if userRepo == nil {
		panic("UserRepository cannot be nil for CardService")
	}
	if notificationRepo == nil {
		panic("NotificationRepository cannot be nil for CardService")
	}
	if auditRepo == nil {
		panic("AuditRepository cannot be nil for CardService")
	}
	return &CardService{
		cardRepo:         cardRepo,
		boardRepo:        boardRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		enqueuer:         enqueuer,
	}
}

// CreateCardInput carries the fields of a new card.
type CreateCardInput struct {
	BoardID     string
	ColumnID    string
	Title       string
	Description string
	AssigneeID  *string
	Labels      []string
	DueDate     *time.Time
}

// UpdateCardInput carries a card update together with the version the
// client last saw. Nil pointers mean "leave unchanged".
type UpdateCardInput struct {
	Title       *string
	Description *string
	AssigneeID  *string
	HasAssignee bool // distinguishes "clear assignee" from "leave unchanged"
	Labels      []string
	HasLabels   bool
	DueDate     *time.Time
	HasDueDate  bool
	Version     int
}

// ListCards returns cards filtered by board and/or column.
func (s *CardService) ListCards(ctx context.Context, filter repository.CardFilter) ([]domain.Card, error) {
	cards, err := s.cardRepo.List(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to list cards")
		return nil, ErrInternalServer
	}
	return cards, nil
}

// GetCard loads one card.
func (s *CardService) GetCard(ctx context.Context, cardID string) (*domain.Card, error) {
	card, err := s.cardRepo.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		logrus.WithError(err).WithField("card_id", cardID).Error("Failed to load card")
		return nil, ErrInternalServer
	}
	return card, nil
}

// CreateCard persists a new card at version 1 and writes a CardCreated
// audit entry.
func (s *CardService) CreateCard(ctx context.Context, actorID string, input CreateCardInput) (*domain.Card, error) {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": input.BoardID, "column_id": input.ColumnID})

	card := &domain.Card{
		ID:          uuid.NewString(),
		BoardID:     input.BoardID,
		ColumnID:    input.ColumnID,
		Title:       input.Title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		Version:     1,
	}
	if err := card.SetLabels(input.Labels); err != nil {
		logCtx.WithError(err).Error("Failed to encode card labels")
		return nil, ErrInternalServer
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		logCtx.WithError(err).Error("Failed to create card")
		return nil, ErrInternalServer
	}

	s.writeAudit(ctx, card.BoardID, actorID, domain.AuditCardCreated, map[string]interface{}{
		"cardId": card.ID,
		"title":  card.Title,
	})

	logCtx.WithField("card_id", card.ID).Info("Card created")
	return card, nil
}

// UpdateCard applies a version-checked update. A stale version yields a
// *VersionConflictError carrying the authoritative server copy. When the
// assignee changes to a real user, a notification row is written and an
// email task enqueued, both best-effort.
func (s *CardService) UpdateCard(ctx context.Context, actorID, cardID string, input UpdateCardInput) (*domain.Card, error) {
	logCtx := logrus.WithField("card_id", cardID)

	existing, err := s.cardRepo.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		logCtx.WithError(err).Error("Failed to load card for update")
		return nil, ErrInternalServer
	}
	if existing.Version != input.Version {
		logCtx.WithFields(logrus.Fields{
			"client_version": input.Version,
			"server_version": existing.Version,
		}).Warn("Card update rejected: version conflict")
		return nil, &VersionConflictError{ServerVersion: existing.Version, Server: existing}
	}

	assigneeChanged := input.HasAssignee && !sameAssignee(input.AssigneeID, existing.AssigneeID)

	updated := *existing
	if input.Title != nil {
		updated.Title = *input.Title
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.HasAssignee {
		updated.AssigneeID = input.AssigneeID
	}
	if input.HasLabels {
		if err := updated.SetLabels(input.Labels); err != nil {
			logCtx.WithError(err).Error("Failed to encode card labels")
			return nil, ErrInternalServer
		}
	}
	if input.HasDueDate {
		updated.DueDate = input.DueDate
	}

	if err := s.cardRepo.UpdateVersioned(ctx, &updated, input.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// Raced with another writer between our read and the guarded
			// write; reload for the authoritative copy.
			server, loadErr := s.cardRepo.FindByID(ctx, cardID)
			if loadErr != nil {
				return nil, ErrInternalServer
			}
			return nil, &VersionConflictError{ServerVersion: server.Version, Server: server}
		}
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		logCtx.WithError(err).Error("Failed to save card update")
		return nil, ErrInternalServer
	}

	s.writeAudit(ctx, updated.BoardID, actorID, domain.AuditCardUpdated, map[string]interface{}{
		"cardId":  updated.ID,
		"title":   updated.Title,
		"version": updated.Version,
	})

	if assigneeChanged && updated.AssigneeID != nil {
		s.notifyAssignee(ctx, &updated)
	}

	logCtx.WithField("version", updated.Version).Info("Card updated")
	return &updated, nil
}

// MoveCard relocates a card to another column, incrementing its version and
// writing a CardMoved audit entry.
func (s *CardService) MoveCard(ctx context.Context, actorID, cardID, toColumnID string, toPosition int) (*domain.Card, error) {
	logCtx := logrus.WithFields(logrus.Fields{"card_id": cardID, "to_column_id": toColumnID})

	card, err := s.cardRepo.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		logCtx.WithError(err).Error("Failed to load card for move")
		return nil, ErrInternalServer
	}

	if _, err := s.boardRepo.FindColumn(ctx, card.BoardID, toColumnID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrColumnNotFound
		}
		logCtx.WithError(err).Error("Failed to load target column")
		return nil, ErrInternalServer
	}

	fromColumnID := card.ColumnID
	moved := *card
	moved.ColumnID = toColumnID

	if err := s.cardRepo.UpdateVersioned(ctx, &moved, card.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			server, loadErr := s.cardRepo.FindByID(ctx, cardID)
			if loadErr != nil {
				return nil, ErrInternalServer
			}
			return nil, &VersionConflictError{ServerVersion: server.Version, Server: server}
		}
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		logCtx.WithError(err).Error("Failed to save card move")
		return nil, ErrInternalServer
	}

	s.writeAudit(ctx, moved.BoardID, actorID, domain.AuditCardMoved, map[string]interface{}{
		"cardId":       moved.ID,
		"fromColumnId": fromColumnID,
		"toColumnId":   toColumnID,
		"toPosition":   toPosition,
	})

	logCtx.Info("Card moved")
	return &moved, nil
}

// DeleteCard removes a card.
func (s *CardService) DeleteCard(ctx context.Context, cardID string) error {
	if err := s.cardRepo.Delete(ctx, cardID); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return ErrCardNotFound
		}
		logrus.WithError(err).WithField("card_id", cardID).Error("Failed to delete card")
		return ErrInternalServer
	}
	return nil
}

// notifyAssignee writes the CardAssigned notification and enqueues the
// email task. Both are side effects of an already-committed mutation, so
// failures are logged and swallowed.
func (s *CardService) notifyAssignee(ctx context.Context, card *domain.Card) {
	logCtx := logrus.WithFields(logrus.Fields{"card_id": card.ID, "assignee_id": *card.AssigneeID})

	payload, _ := json.Marshal(map[string]string{"cardId": card.ID, "title": card.Title})
	notification := &domain.Notification{
		ID:      uuid.NewString(),
		UserID:  *card.AssigneeID,
		BoardID: &card.BoardID,
		Type:    "CardAssigned",
		Payload: string(payload),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		logCtx.WithError(err).Error("Failed to create assignment notification")
	}

	if s.enqueuer == nil {
		return
	}
	assignee, err := s.userRepo.FindByID(ctx, *card.AssigneeID)
	if err != nil || assignee.Email == "" {
		logCtx.Debug("Assignee has no deliverable email, skipping email task")
		return
	}
	boardTitle := "Unknown Board"
	if board, err := s.boardRepo.FindByID(ctx, card.BoardID); err == nil {
		boardTitle = board.Title
	}

	subject, html := mail.CardAssignedEmail(assignee.DisplayName, card.Title, boardTitle)
	task, err := tasks.NewEmailDeliveryTask(assignee.Email, subject, html)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build email task")
		return
	}
	if _, err := s.enqueuer.Enqueue(task, asynq.Queue("low")); err != nil {
		logCtx.WithError(err).Error("Failed to enqueue email task")
	}
}

// writeAudit mirrors BoardService.writeAudit for card mutations.
func (s *CardService) writeAudit(ctx context.Context, boardID, actorID, entryType string, payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal audit payload")
		return
	}
	entry := &domain.AuditEntry{
		ID:      uuid.NewString(),
		BoardID: boardID,
		ActorID: actorID,
		Type:    entryType,
		Payload: string(raw),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to write audit entry")
	}
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
