package httphandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collaborative-taskboard/internal/repository"
)

// PresenceHandler exposes the global online roster for operational
// visibility.
type PresenceHandler struct {
	presence repository.PresenceRepository
}

// NewPresenceHandler creates a PresenceHandler.
func NewPresenceHandler(presence repository.PresenceRepository) *PresenceHandler {
	if presence == nil {
		panic("PresenceRepository cannot be nil for PresenceHandler")
	}
	return &PresenceHandler{presence: presence}
}

// ListOnline handles GET /api/presence/online. A presence store outage
// yields an empty roster, never an error.
func (h *PresenceHandler) ListOnline(c *gin.Context) {
	users := h.presence.GetOnlineUsers(c.Request.Context())
	if users == nil {
		users = []repository.OnlineUser{}
	}
	c.JSON(http.StatusOK, users)
}
