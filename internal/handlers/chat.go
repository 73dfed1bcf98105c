package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/erpcore/chatbot-backend/internal/services"
)

// ChatHandler handles chat widget requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest is the payload sent by the chat widget.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// HandleChat processes one chat turn
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat payload",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No message provided.",
		})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No session_id provided.",
		})
	}

	log.Printf("[%s] User: %s", req.SessionID, req.Message)

	reply, err := h.chatService.HandleMessage(req.SessionID, req.Message)
	if err != nil {
		log.Printf("[%s] Chat turn failed: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	log.Printf("[%s] Bot: %s", req.SessionID, reply.Answer)
	return c.JSON(reply)
}

// GetTranscript returns the message history of a session
func (h *ChatHandler) GetTranscript(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	messages, err := h.chatService.GetTranscript(sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"count":      len(messages),
		"messages":   messages,
	})
}
