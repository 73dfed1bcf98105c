package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erpcore/chatbot-backend/internal/models"
)

// MemoryStore holds all data in memory for development and tests
type MemoryStore struct {
	records  map[string][]*models.WorkflowRecord // keyed by category
	messages map[string][]*models.ChatMessage    // keyed by session id

	recordMu  sync.RWMutex
	messageMu sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string][]*models.WorkflowRecord),
		messages: make(map[string][]*models.ChatMessage),
	}
}

func (m *MemoryStore) AppendRecord(category string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	m.recordMu.Lock()
	defer m.recordMu.Unlock()

	record := &models.WorkflowRecord{
		RecordID:    "WF-" + uuid.NewString(),
		Category:    category,
		Fields:      string(data),
		Status:      "submitted",
		SubmittedAt: time.Now(),
	}
	m.records[category] = append(m.records[category], record)
	return nil
}

func (m *MemoryStore) ListRecords(category string) ([]*models.WorkflowRecord, error) {
	m.recordMu.RLock()
	defer m.recordMu.RUnlock()

	records := make([]*models.WorkflowRecord, len(m.records[category]))
	copy(records, m.records[category])
	return records, nil
}

func (m *MemoryStore) AppendMessage(sessionID, role, text string) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	m.messages[sessionID] = append(m.messages[sessionID], &models.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Text:      text,
	})
	return nil
}

func (m *MemoryStore) GetTranscript(sessionID string) ([]*models.ChatMessage, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	transcript := make([]*models.ChatMessage, len(m.messages[sessionID]))
	copy(transcript, m.messages[sessionID])
	return transcript, nil
}
