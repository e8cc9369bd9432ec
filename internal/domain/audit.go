package domain

import "time"

// Audit entry types written by the mutation paths.
const (
	AuditBoardCreated = "BoardCreated"
	AuditCardCreated  = "CardCreated"
	AuditCardUpdated  = "CardUpdated"
	AuditCardMoved    = "CardMoved"
)

// AuditEntry is an append-only record of a board mutation. Entries are never
// updated after creation.
type AuditEntry struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	BoardID   string    `gorm:"type:char(36);index;not null" json:"boardId"`
	ActorID   string    `gorm:"type:char(36);not null" json:"actorId"`
	Type      string    `gorm:"type:varchar(60);not null" json:"type"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}
