package storage

import "github.com/erpcore/chatbot-backend/internal/models"

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Workflow record operations
	AppendRecord(category string, fields map[string]string) error
	ListRecords(category string) ([]*models.WorkflowRecord, error)

	// Transcript operations
	AppendMessage(sessionID, role, text string) error
	GetTranscript(sessionID string) ([]*models.ChatMessage, error)
}
