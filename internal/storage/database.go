package storage

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/erpcore/chatbot-backend/internal/models"
)

// DatabaseStore persists records and transcripts in PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) AppendRecord(category string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	record := &models.WorkflowRecord{
		Category: category,
		Fields:   string(data),
		Status:   "submitted",
	}
	return s.db.Create(record).Error
}

func (s *DatabaseStore) ListRecords(category string) ([]*models.WorkflowRecord, error) {
	var records []*models.WorkflowRecord
	err := s.db.Where("category = ?", category).Order("submitted_at ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *DatabaseStore) AppendMessage(sessionID, role, text string) error {
	return s.db.Create(&models.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Text:      text,
	}).Error
}

func (s *DatabaseStore) GetTranscript(sessionID string) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	err := s.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
