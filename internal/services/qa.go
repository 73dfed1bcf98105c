package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// QAEngine is the document Q&A collaborator: it rewrites a question into a
// clean search query and answers it with citations against the document
// corpus. The workflow engine never calls it; the chat service does, and
// only when no workflow handled the turn.
type QAEngine interface {
	Correct(question string) (string, error)
	Answer(sessionID, question string) (string, error)
}

// HTTPQAEngine talks to the retrieval service over REST.
type HTTPQAEngine struct {
	baseURL string
}

// NewHTTPQAEngine reads QA_SERVICE_URL and returns a client for the
// retrieval service.
func NewHTTPQAEngine() (*HTTPQAEngine, error) {
	base := os.Getenv("QA_SERVICE_URL")
	if base == "" {
		return nil, fmt.Errorf("missing QA_SERVICE_URL in environment variables")
	}
	return &HTTPQAEngine{baseURL: strings.TrimRight(base, "/")}, nil
}

func (q *HTTPQAEngine) Correct(question string) (string, error) {
	var out struct {
		Question string `json:"question"`
	}
	if err := q.post("/correct", fiber.Map{"question": question}, &out); err != nil {
		return "", err
	}
	if out.Question == "" {
		// A service that answers but returns nothing gets the original back.
		return question, nil
	}
	return out.Question, nil
}

func (q *HTTPQAEngine) Answer(sessionID, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	payload := fiber.Map{"session_id": sessionID, "question": question}
	if err := q.post("/answer", payload, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

func (q *HTTPQAEngine) post(path string, payload interface{}, out interface{}) error {
	agent := fiber.Post(q.baseURL + path)
	agent.JSON(payload)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("qa service request failed: %v", errs[0])
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("qa service returned status %d", code)
	}
	return json.Unmarshal(body, out)
}

// MockQAEngine stands in for the retrieval service in tests and when
// QA_SERVICE_URL is not configured.
type MockQAEngine struct{}

func (MockQAEngine) Correct(question string) (string, error) {
	return question, nil
}

func (MockQAEngine) Answer(sessionID, question string) (string, error) {
	log.Printf("MockQAEngine: no retrieval service configured for question from %s", sessionID)
	return "I'm not confident I can answer that based on the provided documents.", nil
}
