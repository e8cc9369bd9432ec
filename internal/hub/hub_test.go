package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-taskboard/internal/repository"
)

// fakePresence is an in-memory PresenceRepository for hub tests. failing
// simulates a store outage: writes are swallowed and reads come back empty,
// exactly like the real implementation during a Redis outage.
type fakePresence struct {
	mu      sync.Mutex
	failing bool
	boards  map[string]map[string]repository.PresenceUser
}

func newFakePresence() *fakePresence {
	return &fakePresence{boards: make(map[string]map[string]repository.PresenceUser)}
}

func (f *fakePresence) SetOnline(_ context.Context, userID, boardID, userName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return
	}
	members, ok := f.boards[boardID]
	if !ok {
		members = make(map[string]repository.PresenceUser)
		f.boards[boardID] = members
	}
	members[userID] = repository.PresenceUser{UserID: userID, UserName: userName}
}

func (f *fakePresence) SetOffline(_ context.Context, userID, boardID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return
	}
	delete(f.boards[boardID], userID)
}

func (f *fakePresence) GetBoardUsers(_ context.Context, boardID string) []repository.PresenceUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil
	}
	users := make([]repository.PresenceUser, 0, len(f.boards[boardID]))
	for _, u := range f.boards[boardID] {
		users = append(users, u)
	}
	return users
}

func (f *fakePresence) GetOnlineUsers(_ context.Context) []repository.OnlineUser { return nil }

func (f *fakePresence) Sweep(_ context.Context) (int, error) { return 0, nil }

// newTestHub returns a hub whose event handlers are invoked directly,
// without running the event loop. Handler methods all execute on the caller
// goroutine, which is exactly how the loop runs them.
func newTestHub(t *testing.T) (*Hub, *fakePresence) {
	t.Helper()
	presence := newFakePresence()
	return NewHub(NewRegistry(), presence), presence
}

// joinedClient registers a connection and joins it to a board, draining the
// welcome and presence frames it receives along the way.
func joinedClient(t *testing.T, h *Hub, userID, boardID, userName string) *Client {
	t.Helper()
	c := NewClient(h, nil)
	h.registerClient(c)
	h.dispatch(c, joinFrame(userID, boardID, userName))
	require.True(t, h.registry.Joined(c), "client should be joined after a valid join message")
	drain(c)
	return c
}

func joinFrame(userID, boardID, userName string) []byte {
	raw, _ := json.Marshal(map[string]string{
		"type":     "join",
		"userId":   userID,
		"boardId":  boardID,
		"userName": userName,
	})
	return raw
}

// drain empties the client's send queue and returns what was there.
func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case raw := <-c.send:
			frames = append(frames, raw)
		default:
			return frames
		}
	}
}

// decodeFrames unmarshals each frame into a generic map for assertions.
func decodeFrames(t *testing.T, frames [][]byte) []map[string]interface{} {
	t.Helper()
	out := make([]map[string]interface{}, 0, len(frames))
	for _, raw := range frames {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func framesOfType(t *testing.T, frames [][]byte, msgType string) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, m := range decodeFrames(t, frames) {
		if m["type"] == msgType {
			out = append(out, m)
		}
	}
	return out
}

func TestRegisterSendsWelcome(t *testing.T) {
	h, _ := newTestHub(t)
	c := NewClient(h, nil)
	h.registerClient(c)

	frames := framesOfType(t, drain(c), "welcome")
	require.Len(t, frames, 1)
}

func TestJoinAnnouncesPresenceToBoard(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")

	bob := NewClient(h, nil)
	h.registerClient(bob)
	drain(bob)
	h.dispatch(bob, joinFrame("u-bob", "b-1", "Bob"))

	// The joiner and the existing member both get the presence envelope.
	for name, c := range map[string]*Client{"alice": alice, "bob": bob} {
		frames := framesOfType(t, drain(c), "presence")
		require.Len(t, frames, 1, "%s should receive one presence frame", name)
		joined := frames[0]["userJoined"].(map[string]interface{})
		assert.Equal(t, "u-bob", joined["userId"])
		assert.Equal(t, "Bob", joined["userName"])
		assert.Len(t, frames[0]["users"], 2)
	}
}

func TestRepeatJoinIsIgnored(t *testing.T) {
	h, presence := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")

	// Second join on the same connection, even for another board, changes
	// nothing and emits nothing.
	h.dispatch(alice, joinFrame("u-alice", "b-2", "Alice"))

	assert.Empty(t, drain(alice))
	assert.Equal(t, "b-1", alice.boardID)
	assert.Empty(t, presence.GetBoardUsers(context.Background(), "b-2"))
}

func TestJoinWithEmptyIDsIsIgnored(t *testing.T) {
	h, _ := newTestHub(t)
	c := NewClient(h, nil)
	h.registerClient(c)
	drain(c)

	h.dispatch(c, joinFrame("", "b-1", "Nameless"))
	assert.False(t, h.registry.Joined(c))
	assert.Empty(t, drain(c))
}

func TestTypingExcludesSender(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice) // bob's join presence

	h.dispatch(alice, []byte(`{"type":"typing","cardId":"c-9"}`))

	assert.Empty(t, drain(alice), "typing must not echo to the sender")

	frames := framesOfType(t, drain(bob), "typing")
	require.Len(t, frames, 1)
	assert.Equal(t, "u-alice", frames[0]["userId"])
	assert.Equal(t, "Alice", frames[0]["userName"])
	assert.Equal(t, "c-9", frames[0]["cardId"])
}

func TestNotifyIncludesSender(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice)

	h.dispatch(alice, []byte(`{"type":"notify","message":"standup in 5"}`))

	for name, c := range map[string]*Client{"alice": alice, "bob": bob} {
		frames := framesOfType(t, drain(c), "notify")
		require.Len(t, frames, 1, "%s should receive the notify", name)
		assert.Equal(t, "standup in 5", frames[0]["message"])
		assert.Equal(t, "Alice", frames[0]["from"])
	}
}

func TestBroadcastIsScopedToBoard(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	carol := joinedClient(t, h, "u-carol", "b-2", "Carol")

	h.dispatch(alice, []byte(`{"type":"notify","message":"hello b-1"}`))

	assert.Empty(t, drain(carol), "members of other boards must not receive the message")
}

func TestCardMovedFansOutAsCardUpdate(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice)

	h.dispatch(alice, []byte(`{"type":"card_moved","cardId":"c-1","fromColumnId":"col-a","toColumnId":"col-b","toPosition":0}`))

	for name, c := range map[string]*Client{"alice": alice, "bob": bob} {
		frames := framesOfType(t, drain(c), "card_update")
		require.Len(t, frames, 1, "%s should receive the card_update", name)
		assert.Equal(t, "c-1", frames[0]["cardId"])
		assert.Equal(t, "col-a", frames[0]["fromColumnId"])
		assert.Equal(t, "col-b", frames[0]["toColumnId"])
		assert.Equal(t, "Alice", frames[0]["movedBy"])

		// Position zero is meaningful and must survive serialization.
		pos, ok := frames[0]["toPosition"]
		require.True(t, ok, "toPosition must be present even when zero")
		assert.Equal(t, float64(0), pos)
	}
}

func TestCardUpdatedFansOutAsCardUpdate(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice)

	h.dispatch(alice, []byte(`{"type":"card_updated","cardId":"c-1","updates":{"title":"new title"}}`))

	frames := framesOfType(t, drain(bob), "card_update")
	require.Len(t, frames, 1)
	assert.Equal(t, "c-1", frames[0]["cardId"])
	assert.Equal(t, "Alice", frames[0]["updatedBy"])
	updates := frames[0]["updates"].(map[string]interface{})
	assert.Equal(t, "new title", updates["title"])
}

func TestBoardScopedMessageBeforeJoinIsDropped(t *testing.T) {
	h, _ := newTestHub(t)
	member := joinedClient(t, h, "u-alice", "b-1", "Alice")

	stranger := NewClient(h, nil)
	h.registerClient(stranger)
	drain(stranger)

	h.dispatch(stranger, []byte(`{"type":"notify","message":"should not route"}`))

	assert.Empty(t, drain(member))
	assert.Empty(t, drain(stranger))
}

func TestMalformedAndUnknownFramesAreDropped(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice)

	for _, raw := range [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"type":"teleport","x":1}`),
		[]byte(`{"type":"typing"}`),
		[]byte(`{"type":"card_moved","cardId":"c-1","fromColumnId":"a","toColumnId":"b","toPosition":-2}`),
	} {
		h.dispatch(alice, raw)
	}

	assert.Empty(t, drain(bob), "bad frames must not reach other members")
	assert.True(t, h.registry.Joined(alice), "bad frames must not close the connection")
}

func TestUnregisterAnnouncesDeparture(t *testing.T) {
	h, presence := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice)

	h.unregisterClient(bob)

	frames := framesOfType(t, drain(alice), "presence")
	require.Len(t, frames, 1)
	left := frames[0]["userLeft"].(map[string]interface{})
	assert.Equal(t, "u-bob", left["userId"])
	assert.Len(t, frames[0]["users"], 1)

	assert.Len(t, presence.GetBoardUsers(context.Background(), "b-1"), 1)
}

func TestUnregisterBeforeJoinIsSilent(t *testing.T) {
	h, _ := newTestHub(t)
	member := joinedClient(t, h, "u-alice", "b-1", "Alice")

	c := NewClient(h, nil)
	h.registerClient(c)
	h.unregisterClient(c)

	assert.Empty(t, drain(member), "a connection that never joined has no departure to announce")
}

func TestDoubleUnregisterIsIdempotent(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	bob := joinedClient(t, h, "u-bob", "b-1", "Bob")
	drain(alice)

	h.unregisterClient(bob)
	h.unregisterClient(bob) // must not panic or re-announce
	drain(alice)

	h.unregisterClient(bob)
	assert.Empty(t, drain(alice))
}

func TestPresenceOutageDoesNotBlockMessaging(t *testing.T) {
	h, presence := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	presence.failing = true

	bob := NewClient(h, nil)
	h.registerClient(bob)
	drain(bob)
	h.dispatch(bob, joinFrame("u-bob", "b-1", "Bob"))
	drain(alice)
	drain(bob)

	// Join succeeded in the registry even though presence is down, so
	// routing still works.
	require.True(t, h.registry.Joined(bob))
	h.dispatch(bob, []byte(`{"type":"notify","message":"still here"}`))

	frames := framesOfType(t, drain(alice), "notify")
	require.Len(t, frames, 1)
	assert.Equal(t, "still here", frames[0]["message"])
}

func TestSlowClientDoesNotStallBroadcast(t *testing.T) {
	h, _ := newTestHub(t)
	alice := joinedClient(t, h, "u-alice", "b-1", "Alice")
	slow := joinedClient(t, h, "u-slow", "b-1", "Slowpoke")
	drain(alice)

	// Fill the slow client's queue so further sends would block.
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- []byte("{}")
	}

	h.dispatch(alice, []byte(`{"type":"notify","message":"ping"}`))

	frames := framesOfType(t, drain(alice), "notify")
	require.Len(t, frames, 1, "healthy clients still receive while one queue is full")
}

func TestStopEndsRun(t *testing.T) {
	h, _ := newTestHub(t)
	exited := make(chan struct{})
	go func() {
		h.Run()
		close(exited)
	}()

	h.Stop()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Stop")
	}
}

func TestQueueAfterStopIsHarmless(t *testing.T) {
	h, _ := newTestHub(t)
	c := NewClient(h, nil)
	h.registerClient(c)
	drain(c)

	h.Stop()
	h.Stop() // repeat Stop must not panic either

	// Read pumps on hijacked websocket connections outlive the HTTP
	// server's shutdown, so late frames and disconnects still arrive.
	h.queueInbound(c, []byte(`{"type":"notify","message":"late"}`))
	h.queueUnregister(c)

	assert.False(t, h.QueueRegister(NewClient(h, nil)),
		"registration must be refused once the hub is stopped")
	assert.Empty(t, drain(c), "frames queued after Stop are discarded")
}

func TestUnregisterSurvivesBacklog(t *testing.T) {
	h, _ := newTestHub(t)
	c := NewClient(h, nil)
	h.registerClient(c)
	drain(c)

	// Saturate the internal queue before the loop starts draining it, so a
	// best-effort unregister would be dropped here.
	for i := 0; i < cap(h.messageChan); i++ {
		h.messageChan <- hubMessage{kind: "inbound", client: c, raw: []byte(`{"type":"noop"}`)}
	}

	go h.Run()
	defer h.Stop()

	h.queueUnregister(c)

	require.Eventually(t, func() bool {
		_, conns := h.registry.Stats()
		return conns == 0
	}, time.Second, 10*time.Millisecond, "unregister must reach the loop despite a full queue")
}

func TestRefreshPresenceReannouncesJoined(t *testing.T) {
	h, presence := newTestHub(t)
	joinedClient(t, h, "u-alice", "b-1", "Alice")
	joinedClient(t, h, "u-bob", "b-2", "Bob")

	// Simulate the records having expired, then a refresh tick.
	presence.boards = make(map[string]map[string]repository.PresenceUser)
	h.refreshPresence()

	assert.Len(t, presence.GetBoardUsers(context.Background(), "b-1"), 1)
	assert.Len(t, presence.GetBoardUsers(context.Background(), "b-2"), 1)
}
