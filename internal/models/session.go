package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatSession persists a conversation's workflow position between turns.
// Context is the serialized in-progress workflow context; empty when no
// workflow is active.
type ChatSession struct {
	gorm.Model
	SessionID string    `gorm:"uniqueIndex;not null" json:"session_id"`
	State     string    `json:"state"`
	Context   string    `json:"context"`
	ExpiresAt time.Time `json:"expires_at"`
}
