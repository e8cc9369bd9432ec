package httphandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collaborative-taskboard/internal/domain"
	"collaborative-taskboard/internal/repository/mocks"
	"collaborative-taskboard/internal/service"
)

func newCardTestRouter(cardRepo *mocks.CardRepository, boardRepo *mocks.BoardRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	auditRepo := new(mocks.AuditRepository)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := service.NewCardService(cardRepo, boardRepo, new(mocks.UserRepository),
		new(mocks.NotificationRepository), auditRepo, nil)
	handler := NewCardHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u-test") })
	r.PUT("/api/cards/:cardId", handler.UpdateCard)
	r.POST("/api/cards/:cardId/move", handler.MoveCard)
	return r
}

func TestUpdateCardConflictReturns409WithServerCopy(t *testing.T) {
	cardRepo := new(mocks.CardRepository)
	cardRepo.On("FindByID", mock.Anything, "c-1").
		Return(&domain.Card{ID: "c-1", Title: "Server truth", Version: 5}, nil)

	r := newCardTestRouter(cardRepo, new(mocks.BoardRepository))

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"title":"stale edit","version":2}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/cards/c-1", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		ServerVersion int         `json:"serverVersion"`
		Card          domain.Card `json:"card"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.ServerVersion)
	assert.Equal(t, "Server truth", resp.Card.Title)
}

func TestUpdateCardRequiresVersion(t *testing.T) {
	r := newCardTestRouter(new(mocks.CardRepository), new(mocks.BoardRepository))

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"title":"no version here"}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/cards/c-1", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "version is required")
}

func TestUpdateCardExplicitNullClearsAssignee(t *testing.T) {
	cardRepo := new(mocks.CardRepository)
	owner := "u-bob"
	cardRepo.On("FindByID", mock.Anything, "c-1").
		Return(&domain.Card{ID: "c-1", AssigneeID: &owner, Version: 1}, nil)
	cardRepo.On("UpdateVersioned", mock.Anything, mock.MatchedBy(func(c *domain.Card) bool {
		return c.AssigneeID == nil
	}), 1).Return(nil)
	auditRepo := new(mocks.AuditRepository)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := service.NewCardService(cardRepo, new(mocks.BoardRepository), new(mocks.UserRepository),
		new(mocks.NotificationRepository), auditRepo, nil)
	handler := NewCardHandler(svc)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u-test") })
	r.PUT("/api/cards/:cardId", handler.UpdateCard)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"assigneeId":null,"version":1}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/cards/c-1", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cardRepo.AssertExpectations(t)
}

func TestMoveCardAcceptsPositionZero(t *testing.T) {
	cardRepo := new(mocks.CardRepository)
	boardRepo := new(mocks.BoardRepository)
	cardRepo.On("FindByID", mock.Anything, "c-1").
		Return(&domain.Card{ID: "c-1", BoardID: "b-1", ColumnID: "col-a", Version: 1}, nil)
	boardRepo.On("FindColumn", mock.Anything, "b-1", "col-b").Return(&domain.Column{ID: "col-b"}, nil)
	cardRepo.On("UpdateVersioned", mock.Anything, mock.Anything, 1).Return(nil)

	r := newCardTestRouter(cardRepo, boardRepo)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"toColumnId":"col-b","toPosition":0}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/cards/c-1/move", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
