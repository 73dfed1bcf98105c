package services

import (
	"log"

	"github.com/erpcore/chatbot-backend/internal/models"
	"github.com/erpcore/chatbot-backend/internal/storage"
	"github.com/erpcore/chatbot-backend/internal/workflow"
)

// ChatService orchestrates one conversation turn: content filtering, the
// slot-filling workflow engine, and fallthrough to document Q&A when no
// workflow claims the message.
type ChatService struct {
	sessions *SessionManager
	engine   *workflow.Engine
	store    storage.Store
	qa       QAEngine
}

// ChatReply is what the chat endpoint returns to the widget.
type ChatReply struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// NewChatService creates a new chat service
func NewChatService(sessions *SessionManager, engine *workflow.Engine, store storage.Store, qa QAEngine) *ChatService {
	return &ChatService{
		sessions: sessions,
		engine:   engine,
		store:    store,
		qa:       qa,
	}
}

// HandleMessage processes one user message for a session and returns the
// reply. An error means the turn failed and should be retried by the user;
// session state is not advanced on that path.
func (s *ChatService) HandleMessage(sessionID, message string) (*ChatReply, error) {
	if refusal, blocked := FilterContent(message); blocked {
		return &ChatReply{Answer: refusal, Sources: []Source{}}, nil
	}

	var handled bool
	var answer string
	err := s.sessions.Update(sessionID, func(state *SessionState) error {
		result, err := s.engine.Step(message, state.State, state.Context)
		if err != nil {
			return err
		}
		state.State = result.State
		state.Context = result.Context
		if result.Outcome == workflow.Handled {
			handled = true
			answer = result.Response
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if handled {
		s.appendTranscript(sessionID, message, answer)
		return &ChatReply{Answer: answer, Sources: []Source{}}, nil
	}

	// No workflow activity: correct the query, then ask the document Q&A
	// engine and enforce the citation guardrail on its answer.
	corrected, err := s.qa.Correct(message)
	if err != nil {
		return nil, err
	}
	log.Printf("[%s] Corrected query: %s", sessionID, corrected)

	response, err := s.qa.Answer(sessionID, corrected)
	if err != nil {
		return nil, err
	}
	final := CheckResponseConfidence(response)
	answerText, sources := ExtractSources(final)

	s.appendTranscript(sessionID, message, final)
	return &ChatReply{Answer: answerText, Sources: sources}, nil
}

// GetTranscript returns a session's message history.
func (s *ChatService) GetTranscript(sessionID string) ([]*models.ChatMessage, error) {
	return s.store.GetTranscript(sessionID)
}

func (s *ChatService) appendTranscript(sessionID, userText, assistantText string) {
	if err := s.store.AppendMessage(sessionID, models.RoleUser, userText); err != nil {
		log.Printf("Failed to append user message for %s: %v", sessionID, err)
	}
	if err := s.store.AppendMessage(sessionID, models.RoleAssistant, assistantText); err != nil {
		log.Printf("Failed to append assistant message for %s: %v", sessionID, err)
	}
}
