// Package domain defines the persistent data structures of the task-board
// service.
package domain

import "time"

// User is an account that can own boards and be assigned to cards.
type User struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Email       string    `gorm:"type:varchar(191);uniqueIndex:idx_email;not null" json:"email"`
	DisplayName string    `gorm:"type:varchar(120);not null" json:"displayName"`
	Password    string    `gorm:"type:text;not null" json:"-"` // bcrypt hash, never serialized
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
