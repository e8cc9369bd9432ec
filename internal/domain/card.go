package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Card is a task on a board. Version implements optimistic concurrency:
// every successful update or move increments it, and an update carrying a
// stale version is rejected with a conflict.
type Card struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	BoardID     string     `gorm:"type:char(36);index;not null" json:"boardId"`
	ColumnID    string     `gorm:"type:char(36);index;not null" json:"columnId"`
	Title       string     `gorm:"type:varchar(240);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	AssigneeID  *string    `gorm:"type:char(36)" json:"assigneeId"`
	Labels      string     `gorm:"type:text" json:"-"` // JSON array, see ParseLabels/SetLabels
	DueDate     *time.Time `json:"dueDate"`
	Version     int        `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ParseLabels decodes the Labels column (a JSON array stored as text,
// MySQL has no native array type) into a string slice.
func (c *Card) ParseLabels() ([]string, error) {
	if c.Labels == "" || c.Labels == "null" {
		return nil, nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(c.Labels), &labels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card labels: %w", err)
	}
	return labels, nil
}

// SetLabels encodes a label slice into the Labels column.
func (c *Card) SetLabels(labels []string) error {
	if labels == nil {
		c.Labels = ""
		return nil
	}
	bytes, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("failed to marshal card labels: %w", err)
	}
	c.Labels = string(bytes)
	return nil
}

// MarshalJSON inlines the decoded labels so API responses carry a proper
// JSON array instead of the raw text column.
func (c Card) MarshalJSON() ([]byte, error) {
	labels, err := c.ParseLabels()
	if err != nil {
		labels = nil
	}
	type alias Card
	return json.Marshal(struct {
		alias
		Labels []string `json:"labels"`
	}{alias: alias(c), Labels: labels})
}
