// Package redispresence implements repository.PresenceRepository on Redis.
//
// Layout: one set per board holding online user ids, plus one JSON record
// per user carrying {boardId, userName, lastSeen} with an absolute expiry.
// A user counts as online on a board only while both exist and agree on the
// board id; the read path filters out records that point elsewhere, which
// covers a user rejoining a different board before the old record expires.
package redispresence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/repository"
)

// Expiry of the per-user presence record. SetOnline refreshes it, so a
// joined connection stays visible as long as something re-announces within
// this window.
const presenceTTL = 5 * time.Minute

// RedisPresenceRepository is the Redis-backed PresenceRepository.
type RedisPresenceRepository struct {
	client    *redis.Client
	keyPrefix string
}

// userRecord is the stored shape of the per-user presence key.
type userRecord struct {
	BoardID  string `json:"boardId"`
	UserName string `json:"userName,omitempty"`
	LastSeen int64  `json:"lastSeen"`
}

// NewRedisPresenceRepository creates a RedisPresenceRepository.
func NewRedisPresenceRepository(client *redis.Client, keyPrefix string) *RedisPresenceRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisPresenceRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "tb:"
	}
	return &RedisPresenceRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisPresenceRepository) boardKey(boardID string) string {
	return r.keyPrefix + "presence:board:" + boardID
}

func (r *RedisPresenceRepository) userKey(userID string) string {
	return r.keyPrefix + "presence:user:" + userID
}

// SetOnline implements repository.PresenceRepository.
func (r *RedisPresenceRepository) SetOnline(ctx context.Context, userID, boardID, userName string) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "board_id": boardID})

	if err := r.client.SAdd(ctx, r.boardKey(boardID), userID).Err(); err != nil {
		logCtx.WithError(err).Warn("Presence: failed to add user to board set")
		return
	}

	record, err := json.Marshal(userRecord{
		BoardID:  boardID,
		UserName: userName,
		LastSeen: time.Now().UnixMilli(),
	})
	if err != nil {
		logCtx.WithError(err).Error("Presence: failed to marshal user record")
		return
	}
	if err := r.client.Set(ctx, r.userKey(userID), record, presenceTTL).Err(); err != nil {
		logCtx.WithError(err).Warn("Presence: failed to write user record")
	}
}

// SetOffline implements repository.PresenceRepository. Only the set
// membership is removed; the user record expires on its own, saving a
// write on every disconnect.
func (r *RedisPresenceRepository) SetOffline(ctx context.Context, userID, boardID string) {
	if err := r.client.SRem(ctx, r.boardKey(boardID), userID).Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID,
			"board_id": boardID,
		}).Warn("Presence: failed to remove user from board set")
	}
}

// GetBoardUsers implements repository.PresenceRepository.
func (r *RedisPresenceRepository) GetBoardUsers(ctx context.Context, boardID string) []repository.PresenceUser {
	logCtx := logrus.WithField("board_id", boardID)

	userIDs, err := r.client.SMembers(ctx, r.boardKey(boardID)).Result()
	if err != nil {
		logCtx.WithError(err).Warn("Presence: failed to read board member set")
		return nil
	}

	users := make([]repository.PresenceUser, 0, len(userIDs))
	for _, userID := range userIDs {
		record, ok := r.fetchUserRecord(ctx, userID)
		if !ok || record.BoardID != boardID {
			// Expired, or the user moved to another board before this set
			// was cleaned up. Filtered here; Sweep removes it for good.
			continue
		}
		users = append(users, repository.PresenceUser{
			UserID:   userID,
			UserName: record.UserName,
			LastSeen: record.LastSeen,
		})
	}
	return users
}

// GetOnlineUsers implements repository.PresenceRepository.
func (r *RedisPresenceRepository) GetOnlineUsers(ctx context.Context) []repository.OnlineUser {
	var users []repository.OnlineUser
	prefix := r.userKey("")

	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		userID := iter.Val()[len(prefix):]
		record, ok := r.fetchUserRecord(ctx, userID)
		if !ok {
			continue
		}
		users = append(users, repository.OnlineUser{
			UserID:   userID,
			UserName: record.UserName,
			BoardID:  record.BoardID,
		})
	}
	if err := iter.Err(); err != nil {
		logrus.WithError(err).Warn("Presence: scan over user records failed")
		return nil
	}
	return users
}

// Sweep implements repository.PresenceRepository.
func (r *RedisPresenceRepository) Sweep(ctx context.Context) (int, error) {
	removed := 0
	prefix := r.boardKey("")

	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		boardKey := iter.Val()
		boardID := boardKey[len(prefix):]

		memberIDs, err := r.client.SMembers(ctx, boardKey).Result()
		if err != nil {
			return removed, err
		}
		for _, userID := range memberIDs {
			record, ok := r.fetchUserRecord(ctx, userID)
			if ok && record.BoardID == boardID {
				continue
			}
			if err := r.client.SRem(ctx, boardKey, userID).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

// fetchUserRecord reads and decodes one per-user record. A missing key,
// store failure, or corrupt record all report !ok.
func (r *RedisPresenceRepository) fetchUserRecord(ctx context.Context, userID string) (userRecord, bool) {
	var record userRecord
	raw, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("Presence: failed to read user record")
		}
		return record, false
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Presence: corrupt user record")
		return record, false
	}
	return record, true
}
