package domain

import "time"

// Notification is a per-user event record, e.g. a card assignment. Payload
// is a free-form JSON document stored as text.
type Notification struct {
	ID        string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:char(36);index;not null" json:"userId"`
	BoardID   *string    `gorm:"type:char(36)" json:"boardId"`
	Type      string     `gorm:"type:varchar(100);not null" json:"type"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}
