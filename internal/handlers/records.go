package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/erpcore/chatbot-backend/internal/storage"
	"github.com/erpcore/chatbot-backend/internal/workflow"
)

// RecordHandler exposes submitted workflow records to admin tooling
type RecordHandler struct {
	store storage.Store
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(store storage.Store) *RecordHandler {
	return &RecordHandler{store: store}
}

// ListByCategory returns all submitted records in one category
func (h *RecordHandler) ListByCategory(c *fiber.Ctx) error {
	category := c.Params("category")

	known := false
	for _, valid := range workflow.Categories() {
		if category == valid {
			known = true
			break
		}
	}
	if !known {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown record category: " + category,
		})
	}

	records, err := h.store.ListRecords(category)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	out := make([]fiber.Map, 0, len(records))
	for _, record := range records {
		fields := map[string]string{}
		if err := json.Unmarshal([]byte(record.Fields), &fields); err != nil {
			fields = map[string]string{}
		}
		out = append(out, fiber.Map{
			"record_id":    record.RecordID,
			"status":       record.Status,
			"submitted_at": record.SubmittedAt,
			"fields":       fields,
		})
	}

	return c.JSON(fiber.Map{
		"category": category,
		"count":    len(out),
		"records":  out,
	})
}
