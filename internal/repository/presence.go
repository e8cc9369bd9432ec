package repository

import "context"

// PresenceUser is one online member of a board as reported by the presence
// store.
type PresenceUser struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	LastSeen int64  `json:"lastSeen"` // epoch millis of the last SetOnline
}

// OnlineUser is a globally online user, used for operational visibility.
type OnlineUser struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	BoardID  string `json:"boardId"`
}

// PresenceRepository is the shared, TTL-backed record of which users are
// online on which board. Presence is an enhancement, not a correctness
// requirement of the messaging path: implementations log store failures
// internally and degrade to no-ops and empty results instead of returning
// errors, so a presence outage can never fail or block the realtime path.
type PresenceRepository interface {
	// SetOnline adds the user to the board's online set and rewrites the
	// per-user record with a fresh TTL. Idempotent; repeated calls keep a
	// long-lived connection "online".
	SetOnline(ctx context.Context, userID, boardID, userName string)

	// SetOffline removes the user from the board's online set. The per-user
	// record is left to expire naturally.
	SetOffline(ctx context.Context, userID, boardID string)

	// GetBoardUsers returns the board's online members, filtering out stale
	// records whose stored board id no longer matches.
	GetBoardUsers(ctx context.Context, boardID string) []PresenceUser

	// GetOnlineUsers scans all per-user records. Not on the hot path.
	GetOnlineUsers(ctx context.Context) []OnlineUser

	// Sweep removes board-set members whose per-user record has expired or
	// points at a different board, and reports how many were removed. Run
	// periodically; unlike the read/write operations it surfaces errors so
	// the task scheduler can log and retry.
	Sweep(ctx context.Context) (int, error)
}
