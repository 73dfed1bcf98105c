package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/erpcore/chatbot-backend/internal/models"
	"github.com/erpcore/chatbot-backend/internal/workflow"
)

// SessionState is the per-conversation workflow position persisted between
// turns. Context is nil when no workflow is in progress.
type SessionState struct {
	State      workflow.State
	Context    workflow.Context
	LastActive time.Time
}

// SessionStore loads and saves session state by session id. Load never
// returns nil for an unseen id: sessions are created lazily in the idle
// state. Implementations must hand out isolated copies so that an aborted
// turn cannot corrupt stored state.
type SessionStore interface {
	Load(sessionID string) (*SessionState, error)
	Save(sessionID string, state *SessionState) error
}

// ExpiringSessionStore is implemented by backings that need a periodic sweep
// to evict idle sessions (Redis expires keys natively and does not).
type ExpiringSessionStore interface {
	SessionStore
	CleanupExpired() (int, error)
}

func freshSessionState() *SessionState {
	return &SessionState{State: workflow.StateNormal, LastActive: time.Now()}
}

// MemorySessionStore keeps sessions in process memory. Snapshots are stored
// serialized so callers always get an isolated copy.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionSnapshot
	ttl      time.Duration
}

type sessionSnapshot struct {
	state     string
	context   string
	expiresAt time.Time
}

// NewMemorySessionStore creates an in-memory session store with the given
// idle timeout.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionSnapshot),
		ttl:      ttl,
	}
}

func (s *MemorySessionStore) Load(sessionID string) (*SessionState, error) {
	s.mu.RLock()
	snap, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists || time.Now().After(snap.expiresAt) {
		return freshSessionState(), nil
	}
	ctx, err := workflow.UnmarshalContext(snap.context)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	return &SessionState{
		State:      workflow.State(snap.state),
		Context:    ctx,
		LastActive: snap.expiresAt.Add(-s.ttl),
	}, nil
}

func (s *MemorySessionStore) Save(sessionID string, state *SessionState) error {
	raw, err := workflow.MarshalContext(state.Context)
	if err != nil {
		return fmt.Errorf("serialize session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = &sessionSnapshot{
		state:     string(state.State),
		context:   raw,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// CleanupExpired drops sessions past their idle timeout.
func (s *MemorySessionStore) CleanupExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, snap := range s.sessions {
		if now.After(snap.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// DatabaseSessionStore persists sessions in PostgreSQL via GORM.
type DatabaseSessionStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewDatabaseSessionStore creates a database-backed session store.
func NewDatabaseSessionStore(db *gorm.DB, ttl time.Duration) *DatabaseSessionStore {
	return &DatabaseSessionStore{db: db, ttl: ttl}
}

func (s *DatabaseSessionStore) Load(sessionID string) (*SessionState, error) {
	var row models.ChatSession
	err := s.db.Where("session_id = ?", sessionID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return freshSessionState(), nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(row.ExpiresAt) {
		return freshSessionState(), nil
	}
	ctx, err := workflow.UnmarshalContext(row.Context)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	return &SessionState{
		State:      workflow.State(row.State),
		Context:    ctx,
		LastActive: row.UpdatedAt,
	}, nil
}

func (s *DatabaseSessionStore) Save(sessionID string, state *SessionState) error {
	raw, err := workflow.MarshalContext(state.Context)
	if err != nil {
		return fmt.Errorf("serialize session %s: %w", sessionID, err)
	}

	expiresAt := time.Now().Add(s.ttl)
	var row models.ChatSession
	err = s.db.Where("session_id = ?", sessionID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.Create(&models.ChatSession{
			SessionID: sessionID,
			State:     string(state.State),
			Context:   raw,
			ExpiresAt: expiresAt,
		}).Error
	}
	if err != nil {
		return err
	}
	row.State = string(state.State)
	row.Context = raw
	row.ExpiresAt = expiresAt
	return s.db.Save(&row).Error
}

// CleanupExpired deletes sessions past their idle timeout.
func (s *DatabaseSessionStore) CleanupExpired() (int, error) {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&models.ChatSession{})
	return int(res.RowsAffected), res.Error
}

// SessionManager serializes conversation turns per session id. Each turn is
// a load, a workflow step and a save under that session's lock; turns for
// different sessions run in parallel.
type SessionManager struct {
	store SessionStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionManager creates a session manager over the given backing store.
func NewSessionManager(store SessionStore) *SessionManager {
	return &SessionManager{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *SessionManager) lockFor(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.locks[sessionID]
	if !exists {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// Update runs fn with exclusive access to one session's state. The state is
// loaded before fn and saved after it returns; when fn returns an error
// nothing is saved, so a failed turn leaves the stored state untouched.
func (m *SessionManager) Update(sessionID string, fn func(*SessionState) error) error {
	l := m.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	state, err := m.store.Load(sessionID)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	state.LastActive = time.Now()
	if err := m.store.Save(sessionID, state); err != nil {
		log.Printf("Failed to save session %s: %v", sessionID, err)
		return err
	}
	return nil
}
