package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpcore/chatbot-backend/internal/models"
	"github.com/erpcore/chatbot-backend/internal/storage"
	"github.com/erpcore/chatbot-backend/internal/workflow"
)

// scriptedQA returns canned answers and records what it was asked.
type scriptedQA struct {
	corrected string
	answer    string
	asked     []string
}

func (q *scriptedQA) Correct(question string) (string, error) {
	if q.corrected != "" {
		return q.corrected, nil
	}
	return question, nil
}

func (q *scriptedQA) Answer(sessionID, question string) (string, error) {
	q.asked = append(q.asked, question)
	return q.answer, nil
}

func newTestChatService(qa QAEngine) (*ChatService, storage.Store) {
	store := storage.NewMemoryStore()
	sessions := NewSessionManager(NewMemorySessionStore(time.Minute))
	engine := workflow.NewEngine(store, func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return NewChatService(sessions, engine, store, qa), store
}

func TestHandleMessageRunsWorkflowTurn(t *testing.T) {
	qa := &scriptedQA{}
	svc, _ := newTestChatService(qa)

	reply, err := svc.HandleMessage("s1", "I want to submit a leave request")
	require.NoError(t, err)
	assert.Equal(t, "I have some details for your leave. To continue, **What is your Employee ID?**", reply.Answer)
	assert.Empty(t, reply.Sources)

	// The Q&A engine is never consulted while a workflow holds the turn.
	assert.Empty(t, qa.asked)

	// State persisted between turns: the next message lands in the chain.
	reply, err = svc.HandleMessage("s1", "E123")
	require.NoError(t, err)
	assert.Equal(t, "Thank you, E123. **What is the start date?** (e.g., YYYY-MM-DD)", reply.Answer)
}

func TestHandleMessageCompletesWorkflowAndStoresRecord(t *testing.T) {
	svc, store := newTestChatService(&scriptedQA{})

	for _, msg := range []string{"file an expense", "E55", "42.00"} {
		_, err := svc.HandleMessage("s1", msg)
		require.NoError(t, err)
	}
	reply, err := svc.HandleMessage("s1", "taxi fare")
	require.NoError(t, err)
	assert.Equal(t, "Expense report for 42.00 submitted.", reply.Answer)

	records, err := store.ListRecords("expenses")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "expenses", records[0].Category)
}

func TestHandleMessageDelegatesToQA(t *testing.T) {
	qa := &scriptedQA{
		corrected: "what is the leave policy",
		answer:    "Annual leave is 25 days. [Source: handbook.pdf, Page: 3]",
	}
	svc, _ := newTestChatService(qa)

	reply, err := svc.HandleMessage("s1", "wht is teh leave policy")
	require.NoError(t, err)
	assert.Equal(t, "Annual leave is 25 days.", reply.Answer)
	assert.Equal(t, []Source{{Name: "handbook.pdf", Page: "3"}}, reply.Sources)

	// The corrected query, not the raw one, goes to the answer endpoint.
	require.Len(t, qa.asked, 1)
	assert.Equal(t, "what is the leave policy", qa.asked[0])
}

func TestHandleMessageDowngradesUncitedAnswer(t *testing.T) {
	qa := &scriptedQA{answer: "Probably 25 days."}
	svc, _ := newTestChatService(qa)

	reply, err := svc.HandleMessage("s1", "how many leave days do I get")
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "Please verify this:")
	assert.Empty(t, reply.Sources)
}

func TestHandleMessageBlocksFilteredContent(t *testing.T) {
	t.Setenv("BLOCKED_TERMS", "badword")
	qa := &scriptedQA{}
	svc, _ := newTestChatService(qa)

	reply, err := svc.HandleMessage("s1", "badword question")
	require.NoError(t, err)
	assert.Equal(t, "I cannot process this request due to inappropriate language.", reply.Answer)
	assert.Empty(t, qa.asked)
}

func TestHandleMessageKeepsStateOnAppendFailure(t *testing.T) {
	store := &failingStore{Store: storage.NewMemoryStore(), failAppendRecord: true}
	sessions := NewSessionManager(NewMemorySessionStore(time.Minute))
	engine := workflow.NewEngine(store, nil)
	svc := NewChatService(sessions, engine, store, &scriptedQA{})

	for _, msg := range []string{"log my hours", "E1", "2025-06-01"} {
		_, err := svc.HandleMessage("s1", msg)
		require.NoError(t, err)
	}

	// Finalization fails: the turn errors and the session stays in the chain.
	_, err := svc.HandleMessage("s1", "8")
	require.Error(t, err)

	store.failAppendRecord = false
	reply, err := svc.HandleMessage("s1", "8")
	require.NoError(t, err)
	assert.Equal(t, "8 hours logged for 2025-06-01.", reply.Answer)
}

func TestHandleMessageWritesTranscript(t *testing.T) {
	svc, _ := newTestChatService(&scriptedQA{answer: "Yes. [Source: faq.pdf, Page: 1]"})

	_, err := svc.HandleMessage("s1", "can I carry over leave?")
	require.NoError(t, err)

	transcript, err := svc.GetTranscript("s1")
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, models.RoleUser, transcript[0].Role)
	assert.Equal(t, "can I carry over leave?", transcript[0].Text)
	assert.Equal(t, models.RoleAssistant, transcript[1].Role)
	assert.Equal(t, "Yes. [Source: faq.pdf, Page: 1]", transcript[1].Text)
}

// failingStore wraps a real store and fails record appends on demand.
type failingStore struct {
	storage.Store
	failAppendRecord bool
}

func (s *failingStore) AppendRecord(category string, fields map[string]string) error {
	if s.failAppendRecord {
		return errors.New("store unavailable")
	}
	return s.Store.AppendRecord(category, fields)
}
