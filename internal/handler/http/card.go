package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/service"
)

// CardHandler serves card CRUD endpoints.
type CardHandler struct {
	cardService *service.CardService
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(cardService *service.CardService) *CardHandler {
	if cardService == nil {
		panic("CardService cannot be nil for CardHandler")
	}
	return &CardHandler{cardService: cardService}
}

// ListCards handles GET /api/cards?boardId=...&columnId=...
func (h *CardHandler) ListCards(c *gin.Context) {
	filter := repository.CardFilter{
		BoardID:  c.Query("boardId"),
		ColumnID: c.Query("columnId"),
	}
	if filter.BoardID == "" && filter.ColumnID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "boardId or columnId is required"})
		return
	}

	cards, err := h.cardService.ListCards(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cards"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetCard handles GET /api/cards/:cardId.
func (h *CardHandler) GetCard(c *gin.Context) {
	card, err := h.cardService.GetCard(c.Request.Context(), c.Param("cardId"))
	if err != nil {
		if errors.Is(err, service.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load card"})
		return
	}
	c.JSON(http.StatusOK, card)
}

// CreateCard handles POST /api/cards.
func (h *CardHandler) CreateCard(c *gin.Context) {
	var input struct {
		BoardID     string     `json:"boardId" binding:"required"`
		ColumnID    string     `json:"columnId" binding:"required"`
		Title       string     `json:"title" binding:"required,max=200"`
		Description string     `json:"description"`
		AssigneeID  *string    `json:"assigneeId"`
		Labels      []string   `json:"labels"`
		DueDate     *time.Time `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateCard: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	card, err := h.cardService.CreateCard(c.Request.Context(), c.GetString("user_id"), service.CreateCardInput{
		BoardID:     input.BoardID,
		ColumnID:    input.ColumnID,
		Title:       input.Title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		Labels:      input.Labels,
		DueDate:     input.DueDate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create card"})
		return
	}
	c.JSON(http.StatusCreated, card)
}

// UpdateCard handles PUT /api/cards/:cardId. The request must carry the
// version the client last saw; a stale version yields 409 together with the
// current server copy so the client can reconcile.
func (h *CardHandler) UpdateCard(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var input struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		AssigneeID  *string    `json:"assigneeId"`
		Labels      []string   `json:"labels"`
		DueDate     *time.Time `json:"dueDate"`
		Version     *int       `json:"version"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		logrus.WithError(err).Warn("UpdateCard: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}
	if input.Version == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
		return
	}

	// A second decode into raw keys distinguishes an absent field from an
	// explicit null, so clients can clear the assignee or due date.
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}
	_, hasAssignee := present["assigneeId"]
	_, hasLabels := present["labels"]
	_, hasDueDate := present["dueDate"]

	card, err := h.cardService.UpdateCard(c.Request.Context(), c.GetString("user_id"), c.Param("cardId"), service.UpdateCardInput{
		Title:       input.Title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		HasAssignee: hasAssignee,
		Labels:      input.Labels,
		HasLabels:   hasLabels,
		DueDate:     input.DueDate,
		HasDueDate:  hasDueDate,
		Version:     *input.Version,
	})
	if err != nil {
		var conflict *service.VersionConflictError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":         "Version conflict",
				"serverVersion": conflict.ServerVersion,
				"card":          conflict.Server,
			})
		case errors.Is(err, service.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update card"})
		}
		return
	}
	c.JSON(http.StatusOK, card)
}

// MoveCard handles POST /api/cards/:cardId/move.
func (h *CardHandler) MoveCard(c *gin.Context) {
	var input struct {
		ToColumnID string `json:"toColumnId" binding:"required"`
		ToPosition *int   `json:"toPosition" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("MoveCard: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	card, err := h.cardService.MoveCard(c.Request.Context(), c.GetString("user_id"), c.Param("cardId"), input.ToColumnID, *input.ToPosition)
	if err != nil {
		var conflict *service.VersionConflictError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":         "Version conflict",
				"serverVersion": conflict.ServerVersion,
				"card":          conflict.Server,
			})
		case errors.Is(err, service.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		case errors.Is(err, service.ErrColumnNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Target column not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move card"})
		}
		return
	}
	c.JSON(http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/:cardId.
func (h *CardHandler) DeleteCard(c *gin.Context) {
	if err := h.cardService.DeleteCard(c.Request.Context(), c.Param("cardId")); err != nil {
		if errors.Is(err, service.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete card"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
