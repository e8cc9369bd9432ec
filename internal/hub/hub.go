// Package hub implements the realtime collaboration core: the connection
// registry, the broadcast router, and their websocket clients.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/repository"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// How often the hub re-announces every joined connection to the
	// presence store. Must stay well under the store's record TTL so an
	// idle connection never expires out of presence.
	presenceRefreshPeriod = time.Minute

	// Upper bound on a single presence round-trip. A stalled store call
	// degrades to a no-op instead of wedging the event loop.
	presenceOpTimeout = 2 * time.Second
)

// hubMessage is the unit of work on the Hub's internal channel.
type hubMessage struct {
	kind   string // "register", "unregister", "inbound"
	client *Client
	raw    []byte // inbound only
}

// Hub is the broadcast router: it consumes events from every connection,
// interprets each inbound envelope, and performs the matching fan-out on
// the sender's board. All connection and registry mutations happen on its
// single event loop, so messages from one sender reach each recipient in
// send order. Fan-out is local to this process; cross-instance broadcast
// would need a shared pub/sub backbone.
type Hub struct {
	messageChan chan hubMessage
	registry    *Registry
	presence    repository.PresenceRepository

	// done signals shutdown. messageChan itself is never closed: read pumps
	// on hijacked websocket connections outlive http.Server.Shutdown and
	// keep queueing, and a send on a closed channel would panic the process.
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a Hub. Both dependencies are required.
func NewHub(registry *Registry, presence repository.PresenceRepository) *Hub {
	if registry == nil {
		panic("Registry cannot be nil for Hub")
	}
	if presence == nil {
		panic("PresenceRepository cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan hubMessage, 512),
		registry:    registry,
		presence:    presence,
		done:        make(chan struct{}),
	}
}

// Run drives the event loop. It should run in its own goroutine and exits
// when Stop is called.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	refresh := time.NewTicker(presenceRefreshPeriod)
	defer refresh.Stop()

	for {
		select {
		case <-h.done:
			log.Info("Hub is shutting down...")
			return

		case msg := <-h.messageChan:
			switch msg.kind {
			case "register":
				h.registerClient(msg.client)
			case "unregister":
				h.unregisterClient(msg.client)
			case "inbound":
				h.dispatch(msg.client, msg.raw)
			default:
				log.Warnf("Hub: received unknown internal message kind: %s", msg.kind)
			}

		case <-refresh.C:
			h.refreshPresence()
		}
	}
}

// Stop signals shutdown, ending Run. Safe to call more than once. Frames
// queued by still-open connections after Stop are discarded without error.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// QueueRegister hands a freshly upgraded connection to the event loop.
// Returns false when the hub is overloaded or shutting down and the caller
// should close the connection.
func (h *Hub) QueueRegister(c *Client) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.messageChan <- hubMessage{kind: "register", client: c}:
		return true
	default:
		logrus.WithField("conn_id", c.id).Warn("Hub message channel full, rejecting registration")
		return false
	}
}

// queueUnregister requests removal of a connection. Called from the read
// pump on transport close; blocks until the event loop accepts it rather
// than dropping, since a lost unregister would leak the registry entry and
// the connection's write pump.
func (h *Hub) queueUnregister(c *Client) {
	select {
	case h.messageChan <- hubMessage{kind: "unregister", client: c}:
	case <-h.done:
	}
}

// queueInbound forwards a raw client frame to the event loop. Best-effort:
// frames are dropped when the hub is saturated or shutting down.
func (h *Hub) queueInbound(c *Client, raw []byte) {
	if h.stopped() {
		return
	}
	select {
	case h.messageChan <- hubMessage{kind: "inbound", client: c, raw: raw}:
	default:
		logrus.WithField("conn_id", c.id).Warn("Hub message channel full, dropping client message")
	}
}

func (h *Hub) registerClient(c *Client) {
	if c == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	h.registry.Register(c)

	h.sendTo(c, welcomeEnvelope{Type: typeWelcome})

	boards, conns := h.registry.Stats()
	logrus.WithFields(logrus.Fields{
		"conn_id": c.id,
		"boards":  boards,
		"conns":   conns,
	}).Info("Client registered")
}

func (h *Hub) unregisterClient(c *Client) {
	if c == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	userID, boardID, userName := c.userID, c.boardID, c.userName

	wasJoined := h.registry.Remove(c)

	// Closing send ends the write pump. Guarded: Remove is idempotent and a
	// second unregister for the same client must not close twice.
	c.closeSendOnce.Do(func() { close(c.send) })

	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "board_id": boardID, "user_id": userID})
	logCtx.Info("Client unregistered")

	if !wasJoined {
		return
	}

	// Departure: drop presence, then announce the refreshed roster to
	// whoever is still on the board.
	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	h.presence.SetOffline(ctx, userID, boardID)
	users := h.presence.GetBoardUsers(ctx, boardID)
	cancel()

	h.broadcastEnvelope(boardID, presenceEnvelope{
		Type:     typePresence,
		Users:    users,
		UserLeft: &presenceMarker{UserID: userID, UserName: userName},
	}, nil)
}

// dispatch interprets one inbound frame from a connection. Malformed frames
// and unknown types are dropped and logged; they never close the connection
// or abort the loop.
func (h *Hub) dispatch(c *Client, raw []byte) {
	logCtx := logrus.WithField("conn_id", c.id)

	msg, err := decodeInbound(raw)
	if err != nil {
		if errors.Is(err, errUnknownMessageType) {
			logCtx.Debug("Ignoring message of unknown type")
		} else {
			logCtx.WithError(err).Warn("Dropping malformed message")
		}
		return
	}

	if join, ok := msg.(joinMessage); ok {
		h.handleJoin(c, join)
		return
	}

	// Every other routed type needs the board recorded at join time.
	if !h.registry.Joined(c) {
		logCtx.Debug("Dropping board-scoped message from connection that has not joined")
		return
	}

	switch m := msg.(type) {
	case typingMessage:
		// Typing excludes the sender; everything below includes it.
		h.broadcastEnvelope(c.boardID, typingEnvelope{
			Type:     typeTyping,
			UserID:   c.userID,
			UserName: c.userName,
			CardID:   m.CardID,
		}, c)

	case notifyMessage:
		h.broadcastEnvelope(c.boardID, notifyEnvelope{
			Type:    typeNotify,
			Message: m.Message,
			From:    c.userName,
		}, nil)

	case cardMovedMessage:
		h.broadcastEnvelope(c.boardID, cardMovedEnvelope{
			Type:         typeCardUpdate,
			CardID:       m.CardID,
			FromColumnID: m.FromColumnID,
			ToColumnID:   m.ToColumnID,
			ToPosition:   m.ToPosition,
			MovedBy:      c.userName,
		}, nil)

	case cardUpdatedMessage:
		h.broadcastEnvelope(c.boardID, cardUpdatedEnvelope{
			Type:      typeCardUpdate,
			CardID:    m.CardID,
			Updates:   m.Updates,
			UpdatedBy: c.userName,
		}, nil)

	case columnUpdatedMessage:
		h.broadcastEnvelope(c.boardID, columnUpdateEnvelope{
			Type:      typeColumnUpdate,
			ColumnID:  m.ColumnID,
			Updates:   m.Updates,
			UpdatedBy: c.userName,
		}, nil)

	case boardUpdatedMessage:
		h.broadcastEnvelope(c.boardID, boardUpdateEnvelope{
			Type:      typeBoardUpdate,
			BoardID:   c.boardID,
			Updates:   m.Updates,
			UpdatedBy: c.userName,
		}, nil)
	}
}

// handleJoin binds the connection to its board, records presence, and
// announces the full roster (including the joiner) with a userJoined
// marker. A repeat or invalid join leaves all state untouched.
func (h *Hub) handleJoin(c *Client, m joinMessage) {
	logCtx := logrus.WithFields(logrus.Fields{
		"conn_id":  c.id,
		"user_id":  m.UserID,
		"board_id": m.BoardID,
	})

	if !h.registry.Join(c, m.UserID, m.BoardID, m.UserName) {
		logCtx.Debug("Ignoring repeat or invalid join")
		return
	}
	logCtx.Info("Client joined board")

	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	h.presence.SetOnline(ctx, m.UserID, m.BoardID, m.UserName)
	users := h.presence.GetBoardUsers(ctx, m.BoardID)
	cancel()

	h.broadcastEnvelope(m.BoardID, presenceEnvelope{
		Type:       typePresence,
		Users:      users,
		UserJoined: &presenceMarker{UserID: m.UserID, UserName: m.UserName},
	}, nil)
}

// refreshPresence re-announces every joined connection so idle-but-open
// connections do not expire out of the presence store.
func (h *Hub) refreshPresence() {
	conns := h.registry.JoinedConnections()
	if len(conns) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	defer cancel()
	for _, c := range conns {
		h.presence.SetOnline(ctx, c.userID, c.boardID, c.userName)
	}
	logrus.WithField("conns", len(conns)).Debug("Refreshed presence for joined connections")
}

// broadcastEnvelope marshals and fans out one envelope to the board's
// joined connections, excluding except when non-nil.
func (h *Hub) broadcastEnvelope(boardID string, envelope interface{}, except *Client) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		logrus.WithError(err).WithField("board_id", boardID).Error("Failed to marshal broadcast envelope")
		return
	}
	h.broadcast(boardID, payload, except)
}

// broadcast delivers a payload to each recipient's send queue. Sends are
// non-blocking: one slow or dead recipient never delays the others, and a
// full queue drops the message for that recipient only.
func (h *Hub) broadcast(boardID string, payload []byte, except *Client) {
	recipients := h.registry.MembersOf(boardID, except)
	if len(recipients) == 0 {
		return
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"board_id":        boardID,
		"message_size":    len(payload),
		"recipient_count": len(recipients),
	})
	logCtx.Debug("Broadcasting message")

	for _, c := range recipients {
		h.deliver(c, payload, logCtx)
	}
}

// sendTo queues one envelope for a single connection.
func (h *Hub) sendTo(c *Client, envelope interface{}) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		logrus.WithError(err).WithField("conn_id", c.id).Error("Failed to marshal envelope")
		return
	}
	h.deliver(c, payload, logrus.WithField("conn_id", c.id))
}

func (h *Hub) deliver(c *Client, payload []byte, logCtx *logrus.Entry) {
	select {
	case c.send <- payload:
	default:
		logCtx.WithField("receiver_conn_id", c.id).Warn("Client send channel full, skipping this client")
	}
}
