package handlers

import (
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/erpcore/chatbot-backend/internal/services"
)

// DocumentHandler handles invoice upload requests
type DocumentHandler struct {
	invoiceService *services.InvoiceService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(invoiceService *services.InvoiceService) *DocumentHandler {
	return &DocumentHandler{invoiceService: invoiceService}
}

// ProcessInvoice extracts structured data from an uploaded invoice
func (h *DocumentHandler) ProcessInvoice(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read uploaded file",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read uploaded file",
		})
	}

	result, err := h.invoiceService.ProcessInvoice(fileHeader.Filename, content)
	if err != nil {
		log.Printf("Invoice processing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(result)
}
