package httphandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/service"
)

// BoardHandler serves board, column and audit endpoints.
type BoardHandler struct {
	boardService *service.BoardService
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	if boardService == nil {
		panic("BoardService cannot be nil for BoardHandler")
	}
	return &BoardHandler{boardService: boardService}
}

// CreateBoard handles POST /api/boards.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var input struct {
		Title string `json:"title" binding:"required,max=200"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateBoard: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), c.GetString("user_id"), input.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}
	c.JSON(http.StatusCreated, board)
}

// ListBoards handles GET /api/boards.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.boardService.ListBoards(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list boards"})
		return
	}
	c.JSON(http.StatusOK, boards)
}

// GetBoard handles GET /api/boards/:boardId.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	result, err := h.boardService.GetBoard(c.Request.Context(), c.Param("boardId"))
	if err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// JoinByCode handles POST /api/boards/join.
func (h *BoardHandler) JoinByCode(c *gin.Context) {
	var input struct {
		JoinCode string `json:"joinCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("JoinByCode: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	result, err := h.boardService.JoinByCode(c.Request.Context(), input.JoinCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidJoinCode) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid join code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join board"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateBoard handles PUT /api/boards/:boardId.
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	var input struct {
		Title string `json:"title" binding:"required,max=200"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("UpdateBoard: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	board, err := h.boardService.UpdateBoard(c.Request.Context(), c.Param("boardId"), input.Title)
	if err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}
	c.JSON(http.StatusOK, board)
}

// DeleteBoard handles DELETE /api/boards/:boardId.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	if err := h.boardService.DeleteBoard(c.Request.Context(), c.Param("boardId")); err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// CreateColumn handles POST /api/boards/:boardId/columns.
func (h *BoardHandler) CreateColumn(c *gin.Context) {
	var input struct {
		Title    string `json:"title" binding:"required,max=200"`
		Position int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateColumn: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	column, err := h.boardService.CreateColumn(c.Request.Context(), c.Param("boardId"), input.Title, input.Position)
	if err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create column"})
		return
	}
	c.JSON(http.StatusCreated, column)
}

// UpdateColumn handles PUT /api/boards/:boardId/columns/:columnId.
func (h *BoardHandler) UpdateColumn(c *gin.Context) {
	var input struct {
		Title    *string `json:"title"`
		Position *int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("UpdateColumn: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}
	if input.Title == nil && input.Position == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	column, err := h.boardService.UpdateColumn(c.Request.Context(), c.Param("boardId"), c.Param("columnId"), input.Title, input.Position)
	if err != nil {
		if errors.Is(err, service.ErrColumnNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update column"})
		return
	}
	c.JSON(http.StatusOK, column)
}

// DeleteColumn handles DELETE /api/boards/:boardId/columns/:columnId.
func (h *BoardHandler) DeleteColumn(c *gin.Context) {
	if err := h.boardService.DeleteColumn(c.Request.Context(), c.Param("boardId"), c.Param("columnId")); err != nil {
		if errors.Is(err, service.ErrColumnNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete column"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// InviteByEmail handles POST /api/boards/:boardId/invite.
func (h *BoardHandler) InviteByEmail(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("InviteByEmail: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input format"})
		return
	}

	if err := h.boardService.InviteByEmail(c.Request.Context(), c.Param("boardId"), input.Email); err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send invitation"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Invitation sent"})
}

// ListAudit handles GET /api/boards/:boardId/audit. Without an explicit
// limit it returns up to 200 newest entries, matching the service cap.
func (h *BoardHandler) ListAudit(c *gin.Context) {
	limit := 200
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.boardService.ListAudit(c.Request.Context(), c.Param("boardId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
