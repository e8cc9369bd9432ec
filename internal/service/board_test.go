package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/repository/mocks"
	"collaborative-taskboard/internal/tasks"
)

type boardServiceFixture struct {
	boardRepo *mocks.BoardRepository
	userRepo  *mocks.UserRepository
	auditRepo *mocks.AuditRepository
	enqueuer  *fakeEnqueuer
	svc       *BoardService
}

func newBoardServiceFixture() *boardServiceFixture {
	f := &boardServiceFixture{
		boardRepo: new(mocks.BoardRepository),
		userRepo:  new(mocks.UserRepository),
		auditRepo: new(mocks.AuditRepository),
		enqueuer:  &fakeEnqueuer{},
	}
	f.svc = NewBoardService(f.boardRepo, f.userRepo, f.auditRepo, f.enqueuer)
	return f
}

func TestCreateBoardGeneratesJoinCodeAndAudits(t *testing.T) {
	f := newBoardServiceFixture()
	f.boardRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Board")).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Type == domain.AuditBoardCreated && e.ActorID == "u-owner"
	})).Return(nil)

	board, err := f.svc.CreateBoard(context.Background(), "u-owner", "Sprint 12")

	require.NoError(t, err)
	assert.NotEmpty(t, board.ID)
	assert.Len(t, board.JoinCode, 8)
	assert.Equal(t, "u-owner", board.OwnerID)
	f.auditRepo.AssertExpectations(t)
}

func TestJoinCodesAreUnique(t *testing.T) {
	f := newBoardServiceFixture()
	f.boardRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		board, err := f.svc.CreateBoard(context.Background(), "u-owner", "Board")
		require.NoError(t, err)
		assert.False(t, seen[board.JoinCode], "join code %q repeated", board.JoinCode)
		seen[board.JoinCode] = true
	}
}

func TestJoinByCodeUnknownCode(t *testing.T) {
	f := newBoardServiceFixture()
	f.boardRepo.On("FindByJoinCode", mock.Anything, "NOPE1234").Return(nil, repository.ErrNotFound)

	_, err := f.svc.JoinByCode(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, ErrInvalidJoinCode)
}

func TestGetBoardBundlesColumns(t *testing.T) {
	f := newBoardServiceFixture()
	f.boardRepo.On("FindByID", mock.Anything, "b-1").Return(&domain.Board{ID: "b-1", Title: "Sprint"}, nil)
	f.boardRepo.On("ListColumns", mock.Anything, "b-1").Return([]domain.Column{
		{ID: "col-1", Position: 0},
		{ID: "col-2", Position: 1},
	}, nil)

	result, err := f.svc.GetBoard(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, "b-1", result.Board.ID)
	assert.Len(t, result.Columns, 2)
}

func TestInviteByEmailEnqueuesJoinCode(t *testing.T) {
	f := newBoardServiceFixture()
	f.boardRepo.On("FindByID", mock.Anything, "b-1").
		Return(&domain.Board{ID: "b-1", Title: "Sprint 12", JoinCode: "AB12CD34"}, nil)
	f.userRepo.On("FindByEmail", mock.Anything, "bob@example.com").
		Return(&domain.User{ID: "u-bob", DisplayName: "Bob"}, nil)

	err := f.svc.InviteByEmail(context.Background(), "b-1", "bob@example.com")

	require.NoError(t, err)
	require.Len(t, f.enqueuer.tasks, 1)
	assert.Equal(t, tasks.TypeEmailDelivery, f.enqueuer.tasks[0].Type())

	var payload tasks.EmailDeliveryPayload
	require.NoError(t, json.Unmarshal(f.enqueuer.tasks[0].Payload(), &payload))
	assert.Equal(t, "bob@example.com", payload.To)
	assert.Contains(t, payload.HTML, "AB12CD34")
	assert.Contains(t, payload.HTML, "Bob")
}

func TestInviteByEmailUnknownRecipientStillInvited(t *testing.T) {
	f := newBoardServiceFixture()
	f.boardRepo.On("FindByID", mock.Anything, "b-1").
		Return(&domain.Board{ID: "b-1", Title: "Sprint 12", JoinCode: "AB12CD34"}, nil)
	f.userRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrUserNotFound)

	err := f.svc.InviteByEmail(context.Background(), "b-1", "new@example.com")

	require.NoError(t, err)
	require.Len(t, f.enqueuer.tasks, 1)

	var payload tasks.EmailDeliveryPayload
	require.NoError(t, json.Unmarshal(f.enqueuer.tasks[0].Payload(), &payload))
	assert.Contains(t, payload.HTML, "new", "falls back to the local part of the address")
}

func TestUpdateColumnPartialFields(t *testing.T) {
	f := newBoardServiceFixture()
	existing := &domain.Column{ID: "col-1", BoardID: "b-1", Title: "Todo", Position: 0}
	f.boardRepo.On("FindColumn", mock.Anything, "b-1", "col-1").Return(existing, nil)
	f.boardRepo.On("SaveColumn", mock.Anything, mock.MatchedBy(func(c *domain.Column) bool {
		return c.Title == "Todo" && c.Position == 3
	})).Return(nil)

	pos := 3
	column, err := f.svc.UpdateColumn(context.Background(), "b-1", "col-1", nil, &pos)

	require.NoError(t, err)
	assert.Equal(t, 3, column.Position)
	f.boardRepo.AssertExpectations(t)
}
