package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one live realtime connection. It starts in the Connected state,
// moves to Joined when a valid join message binds it to a user and a board,
// and ends Closed when the transport drops. The identity triple
// (userID, boardID, userName) is set exactly once, by Registry.Join.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	send chan []byte

	// Guards the close of send; the hub may process more than one
	// unregister for the same connection.
	closeSendOnce sync.Once

	// Guarded by the Registry's lock; mutated only through Registry calls,
	// which the Hub makes from its single event loop.
	state    connState
	userID   string
	boardID  string
	userName string
}

// NewClient wraps an upgraded websocket connection. The client is not
// visible to the rest of the system until the Hub processes its
// registration.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
	}
}

// ID returns the opaque per-connection identifier.
func (c *Client) ID() string { return c.id }

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// CloseConn closes the underlying websocket transport.
func (c *Client) CloseConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// readPump pumps frames from the websocket into the Hub's message channel.
// It runs in its own goroutine; exiting it triggers the unregister path.
func (c *Client) readPump() {
	logCtx := logrus.WithField("conn_id", c.id)
	defer func() {
		c.hub.queueUnregister(c)
		c.conn.Close()
		logCtx.Debug("readPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Ignoring non-text message type %d", messageType)
			continue
		}
		c.hub.queueInbound(c, raw)
	}
}

// writePump pumps messages from the send channel to the websocket and keeps
// the connection alive with periodic pings.
func (c *Client) writePump() {
	logCtx := logrus.WithField("conn_id", c.id)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel during unregister.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}
