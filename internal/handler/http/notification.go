package httphandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"collaborative-taskboard/internal/service"
)

// NotificationHandler serves the per-user notification feed.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	if notificationService == nil {
		panic("NotificationService cannot be nil for NotificationHandler")
	}
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notificationService.ListForUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead handles POST /api/notifications/:notificationId/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notification, err := h.notificationService.MarkRead(c.Request.Context(), c.GetString("user_id"), c.Param("notificationId"))
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}
	c.JSON(http.StatusOK, notification)
}
