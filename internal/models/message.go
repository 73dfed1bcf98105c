package models

import "gorm.io/gorm"

// Transcript roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a session's append-only transcript.
type ChatMessage struct {
	gorm.Model
	SessionID string `gorm:"index;not null" json:"session_id"`
	Role      string `json:"role"` // user or assistant
	Text      string `json:"text"`
}
