package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/mail"
	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/tasks"
)

// BoardService handles board and column management, invitations, and the
// board-level audit trail.
type BoardService struct {
	boardRepo repository.BoardRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	enqueuer  TaskEnqueuer
}

// NewBoardService creates a BoardService. enqueuer may be nil, in which case
// invitation emails are skipped.
func NewBoardService(boardRepo repository.BoardRepository, userRepo repository.UserRepository, auditRepo repository.AuditRepository, enqueuer TaskEnqueuer) *BoardService {
	if boardRepo == nil {
		panic("BoardRepository cannot be nil for BoardService")
	}
	if userRepo == nil {
		panic("UserRepository cannot be nil for BoardService")
	}
	if auditRepo == nil {
		panic("AuditRepository cannot be nil for BoardService")
	}
	return &BoardService{boardRepo: boardRepo, userRepo: userRepo, auditRepo: auditRepo, enqueuer: enqueuer}
}

// InviteByEmail emails the board's join code to the given address. The
// invitee does not need an account yet; when one exists, the email greets
// them by display name.
func (s *BoardService) InviteByEmail(ctx context.Context, boardID, email string) error {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": boardID, "email": email})

	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBoardNotFound
		}
		logCtx.WithError(err).Error("Failed to load board for invite")
		return ErrInternalServer
	}

	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	if user, err := s.userRepo.FindByEmail(ctx, email); err == nil && user.DisplayName != "" {
		name = user.DisplayName
	}

	if s.enqueuer == nil {
		logCtx.Info("No task queue configured, skipping invite email")
		return nil
	}
	subject, html := mail.BoardInviteEmail(name, board.Title, board.JoinCode)
	task, err := tasks.NewEmailDeliveryTask(email, subject, html)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build invite email task")
		return ErrInternalServer
	}
	if _, err := s.enqueuer.Enqueue(task, asynq.Queue("default")); err != nil {
		logCtx.WithError(err).Error("Failed to enqueue invite email")
		return ErrInternalServer
	}
	logCtx.Info("Board invite enqueued")
	return nil
}

// BoardWithColumns bundles a board with its ordered columns.
type BoardWithColumns struct {
	Board   *domain.Board   `json:"board"`
	Columns []domain.Column `json:"columns"`
}

// CreateBoard creates a board with a fresh join code and writes a
// BoardCreated audit entry.
func (s *BoardService) CreateBoard(ctx context.Context, ownerID, title string) (*domain.Board, error) {
	logCtx := logrus.WithField("owner_id", ownerID)

	joinCode, err := generateJoinCode()
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate join code")
		return nil, ErrInternalServer
	}

	board := &domain.Board{
		ID:       uuid.NewString(),
		Title:    title,
		OwnerID:  ownerID,
		JoinCode: joinCode,
	}
	if err := s.boardRepo.Save(ctx, board); err != nil {
		logCtx.WithError(err).Error("Failed to save new board")
		return nil, ErrInternalServer
	}

	s.writeAudit(ctx, board.ID, ownerID, domain.AuditBoardCreated, map[string]interface{}{"title": title})

	logCtx.WithField("board_id", board.ID).Info("Board created")
	return board, nil
}

// ListBoards returns the boards owned by a user, newest first.
func (s *BoardService) ListBoards(ctx context.Context, ownerID string) ([]domain.Board, error) {
	boards, err := s.boardRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		logrus.WithError(err).WithField("owner_id", ownerID).Error("Failed to list boards")
		return nil, ErrInternalServer
	}
	return boards, nil
}

// GetBoard returns a board with its columns ordered by position.
func (s *BoardService) GetBoard(ctx context.Context, boardID string) (*BoardWithColumns, error) {
	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, ErrBoardNotFound
		}
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to load board")
		return nil, ErrInternalServer
	}
	columns, err := s.boardRepo.ListColumns(ctx, boardID)
	if err != nil {
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to list columns")
		return nil, ErrInternalServer
	}
	return &BoardWithColumns{Board: board, Columns: columns}, nil
}

// JoinByCode resolves a join code to its board and columns.
func (s *BoardService) JoinByCode(ctx context.Context, joinCode string) (*BoardWithColumns, error) {
	board, err := s.boardRepo.FindByJoinCode(ctx, joinCode)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, ErrInvalidJoinCode
		}
		logrus.WithError(err).Error("Failed to resolve join code")
		return nil, ErrInternalServer
	}
	columns, err := s.boardRepo.ListColumns(ctx, board.ID)
	if err != nil {
		logrus.WithError(err).WithField("board_id", board.ID).Error("Failed to list columns")
		return nil, ErrInternalServer
	}
	return &BoardWithColumns{Board: board, Columns: columns}, nil
}

// UpdateBoard renames a board.
func (s *BoardService) UpdateBoard(ctx context.Context, boardID, title string) (*domain.Board, error) {
	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, ErrBoardNotFound
		}
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to load board for update")
		return nil, ErrInternalServer
	}
	board.Title = title
	if err := s.boardRepo.Save(ctx, board); err != nil {
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to save board update")
		return nil, ErrInternalServer
	}
	return board, nil
}

// DeleteBoard removes a board.
func (s *BoardService) DeleteBoard(ctx context.Context, boardID string) error {
	if err := s.boardRepo.Delete(ctx, boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return ErrBoardNotFound
		}
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to delete board")
		return ErrInternalServer
	}
	return nil
}

// CreateColumn adds a column to a board.
func (s *BoardService) CreateColumn(ctx context.Context, boardID, title string, position int) (*domain.Column, error) {
	if _, err := s.boardRepo.FindByID(ctx, boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, ErrBoardNotFound
		}
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to load board for column create")
		return nil, ErrInternalServer
	}
	column := &domain.Column{
		ID:       uuid.NewString(),
		BoardID:  boardID,
		Title:    title,
		Position: position,
	}
	if err := s.boardRepo.SaveColumn(ctx, column); err != nil {
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to save column")
		return nil, ErrInternalServer
	}
	return column, nil
}

// UpdateColumn changes a column's title and/or position. Nil pointers mean
// "leave unchanged".
func (s *BoardService) UpdateColumn(ctx context.Context, boardID, columnID string, title *string, position *int) (*domain.Column, error) {
	column, err := s.boardRepo.FindColumn(ctx, boardID, columnID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrColumnNotFound
		}
		logrus.WithError(err).WithField("column_id", columnID).Error("Failed to load column")
		return nil, ErrInternalServer
	}
	if title != nil {
		column.Title = *title
	}
	if position != nil {
		column.Position = *position
	}
	if err := s.boardRepo.SaveColumn(ctx, column); err != nil {
		logrus.WithError(err).WithField("column_id", columnID).Error("Failed to save column update")
		return nil, ErrInternalServer
	}
	return column, nil
}

// DeleteColumn removes a column from a board.
func (s *BoardService) DeleteColumn(ctx context.Context, boardID, columnID string) error {
	if err := s.boardRepo.DeleteColumn(ctx, boardID, columnID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrColumnNotFound
		}
		logrus.WithError(err).WithField("column_id", columnID).Error("Failed to delete column")
		return ErrInternalServer
	}
	return nil
}

// writeAudit records a board mutation. Audit failures are logged, never
// propagated: the mutation itself has already committed.
func (s *BoardService) writeAudit(ctx context.Context, boardID, actorID, entryType string, payload map[string]interface{}) {
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

// ListAudit returns the newest audit entries for a board.
func (s *BoardService) ListAudit(ctx context.Context, boardID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	entries, err := s.auditRepo.ListByBoard(ctx, boardID, limit)
	if err != nil {
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to list audit entries")
		return nil, ErrInternalServer
	}
	return entries, nil
}

// generateJoinCode produces an 8-character uppercase alphanumeric code.
func generateJoinCode() (string, error) {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = letters[int(b)%len(letters)]
	}
	return string(buf), nil
}
