// Package mocks provides testify mocks of the repository interfaces for
// service-layer tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

type BoardRepository struct {
	mock.Mock
}

func (m *BoardRepository) FindByID(ctx context.Context, id string) (*domain.Board, error) {
	args := m.Called(ctx, id)
	if board := args.Get(0); board != nil {
		return board.(*domain.Board), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BoardRepository) FindByJoinCode(ctx context.Context, joinCode string) (*domain.Board, error) {
	args := m.Called(ctx, joinCode)
	if board := args.Get(0); board != nil {
		return board.(*domain.Board), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BoardRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Board, error) {
	args := m.Called(ctx, ownerID)
	if boards := args.Get(0); boards != nil {
		return boards.([]domain.Board), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BoardRepository) Save(ctx context.Context, board *domain.Board) error {
	return m.Called(ctx, board).Error(0)
}

func (m *BoardRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *BoardRepository) ListColumns(ctx context.Context, boardID string) ([]domain.Column, error) {
	args := m.Called(ctx, boardID)
	if columns := args.Get(0); columns != nil {
		return columns.([]domain.Column), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BoardRepository) FindColumn(ctx context.Context, boardID, columnID string) (*domain.Column, error) {
	args := m.Called(ctx, boardID, columnID)
	if column := args.Get(0); column != nil {
		return column.(*domain.Column), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BoardRepository) SaveColumn(ctx context.Context, column *domain.Column) error {
	return m.Called(ctx, column).Error(0)
}

func (m *BoardRepository) DeleteColumn(ctx context.Context, boardID, columnID string) error {
	return m.Called(ctx, boardID, columnID).Error(0)
}

type CardRepository struct {
	mock.Mock
}

func (m *CardRepository) FindByID(ctx context.Context, id string) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if card := args.Get(0); card != nil {
		return card.(*domain.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CardRepository) List(ctx context.Context, filter repository.CardFilter) ([]domain.Card, error) {
	args := m.Called(ctx, filter)
	if cards := args.Get(0); cards != nil {
		return cards.([]domain.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *CardRepository) UpdateVersioned(ctx context.Context, card *domain.Card, expectedVersion int) error {
	args := m.Called(ctx, card, expectedVersion)
	if args.Error(0) == nil {
		card.Version = expectedVersion + 1
	}
	return args.Error(0)
}

func (m *CardRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if notifications := args.Get(0); notifications != nil {
		return notifications.([]domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	args := m.Called(ctx, userID, id)
	if notification := args.Get(0); notification != nil {
		return notification.(*domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *AuditRepository) ListByBoard(ctx context.Context, boardID string, limit int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, boardID, limit)
	if entries := args.Get(0); entries != nil {
		return entries.([]domain.AuditEntry), args.Error(1)
	}
	return nil, args.Error(1)
}
