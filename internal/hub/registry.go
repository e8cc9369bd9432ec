package hub

import "sync"

type connState int

const (
	stateConnected connState = iota
	stateJoined
	stateClosed
)

// Registry tracks every live realtime connection and its join metadata. It
// answers "which connections belong to board B, excluding connection C".
// Purely in-process: it is constructed once in bootstrap and injected into
// the Hub, never shared across server instances.
type Registry struct {
	mu     sync.RWMutex
	conns  map[*Client]struct{}
	boards map[string]map[*Client]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[*Client]struct{}),
		boards: make(map[string]map[*Client]struct{}),
	}
}

// Register adds a new connection in the Connected state.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
	c.state = stateConnected
}

// Join binds a connection to a user identity and a board, transitioning it
// to the Joined state. A second join on the same connection, a join with
// empty ids, or a join on an unregistered connection is a silent no-op: the
// connection keeps its prior state and Join reports false.
func (r *Registry) Join(c *Client, userID, boardID, userName string) bool {
	if userID == "" || boardID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return false
	}
	if c.state != stateConnected {
		return false
	}

	c.state = stateJoined
	c.userID = userID
	c.boardID = boardID
	c.userName = userName

	members, ok := r.boards[boardID]
	if !ok {
		members = make(map[*Client]struct{})
		r.boards[boardID] = members
	}
	members[c] = struct{}{}
	return true
}

// Joined reports whether the connection is currently in the Joined state.
func (r *Registry) Joined(c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return c.state == stateJoined
}

// MembersOf returns a snapshot of the Joined connections on the given
// board, excluding except when non-nil. The snapshot reflects registry
// state at call time.
func (r *Registry) MembersOf(boardID string, except *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.boards[boardID]
	if !ok {
		return nil
	}
	conns := make([]*Client, 0, len(members))
	for c := range members {
		if c == except || c.state != stateJoined {
			continue
		}
		conns = append(conns, c)
	}
	return conns
}

// JoinedConnections returns a snapshot of every Joined connection across
// all boards. Used by the presence refresh tick.
func (r *Registry) JoinedConnections() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.conns))
	for c := range r.conns {
		if c.state == stateJoined {
			conns = append(conns, c)
		}
	}
	return conns
}

// Remove transitions the connection to Closed and drops it from all
// indices. Idempotent; reports whether the connection was Joined.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.state == stateClosed {
		return false
	}
	wasJoined := c.state == stateJoined

	delete(r.conns, c)
	if wasJoined {
		if members, ok := r.boards[c.boardID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(r.boards, c.boardID)
			}
		}
	}
	c.state = stateClosed
	return wasJoined
}

// Stats reports the number of boards with members and the number of live
// connections, for operational logging.
func (r *Registry) Stats() (boards, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards), len(r.conns)
}
