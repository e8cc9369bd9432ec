package domain

import "time"

// Board is a shared workspace containing columns and cards. It is the unit
// of realtime scoping: presence and broadcast fan-out are keyed by board id.
type Board struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	OwnerID   string    `gorm:"type:char(36);index;not null" json:"ownerId"`
	JoinCode  string    `gorm:"type:varchar(8);uniqueIndex;not null" json:"joinCode"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Column is an ordered lane of cards within a board.
type Column struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	BoardID   string    `gorm:"type:char(36);index;not null" json:"boardId"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
