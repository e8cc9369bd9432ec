package wshandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Board membership is established by the join message, not the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the hub.
type Handler struct {
	hub *hub.Hub
}

// NewHandler creates a websocket Handler.
func NewHandler(h *hub.Hub) *Handler {
	if h == nil {
		panic("Hub cannot be nil for websocket Handler")
	}
	return &Handler{hub: h}
}

// Serve handles GET /ws.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn)
	if !h.hub.QueueRegister(client) {
		// The hub is saturated or shutting down; refuse the connection
		// rather than block the accept path.
		logrus.WithField("client_id", client.ID()).Warn("Hub rejected new connection")
		client.CloseConn()
		return
	}

	logrus.WithFields(logrus.Fields{
		"client_id":   client.ID(),
		"remote_addr": conn.RemoteAddr().String(),
	}).Info("WebSocket connection established")
	client.Run()
}
