package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const invoiceModelVersion = "2023-07-31"

// InvoiceService wraps the Azure Document Intelligence prebuilt-invoice
// model: it forwards an uploaded invoice to the analyze endpoint, polls the
// operation until it completes and maps the result onto a flat schema.
type InvoiceService struct {
	endpoint     string
	key          string
	pollInterval time.Duration
	maxPolls     int
}

// NewInvoiceService reads the Azure endpoint and key from the environment.
func NewInvoiceService() (*InvoiceService, error) {
	endpoint := os.Getenv("AZURE_FORMRECOGNIZER_ENDPOINT")
	key := os.Getenv("AZURE_FORMRECOGNIZER_KEY")
	if endpoint == "" || key == "" {
		return nil, fmt.Errorf("missing AZURE_FORMRECOGNIZER_ENDPOINT or AZURE_FORMRECOGNIZER_KEY in environment variables")
	}
	return &InvoiceService{
		endpoint:     strings.TrimRight(endpoint, "/"),
		key:          key,
		pollInterval: 2 * time.Second,
		maxPolls:     30,
	}, nil
}

// LineItem is one extracted invoice line.
type LineItem struct {
	Description string   `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	LineTotal   *float64 `json:"line_total,omitempty"`
}

// InvoiceExtracted is the flat invoice schema returned to callers.
type InvoiceExtracted struct {
	DocumentType     string             `json:"document_type"`
	SupplierName     string             `json:"supplier_name,omitempty"`
	SupplierTaxID    string             `json:"supplier_tax_id,omitempty"`
	InvoiceNumber    string             `json:"invoice_number,omitempty"`
	InvoiceDate      string             `json:"invoice_date,omitempty"`
	DueDate          string             `json:"due_date,omitempty"`
	TotalAmount      *float64           `json:"total_amount,omitempty"`
	Currency         string             `json:"currency,omitempty"`
	LineItems        []LineItem         `json:"line_items"`
	FieldConfidences map[string]float64 `json:"field_confidences"`
}

// ValidationResult flags extractions that need a human look.
type ValidationResult struct {
	Status string   `json:"status"` // VALID or REVIEW_REQUIRED
	Errors []string `json:"errors"`
}

// ProcessedInvoice bundles extraction and validation.
type ProcessedInvoice struct {
	ExtractedData InvoiceExtracted `json:"extracted_data"`
	Validation    ValidationResult `json:"validation"`
}

// ProcessInvoice runs one invoice through the prebuilt-invoice model.
func (s *InvoiceService) ProcessInvoice(filename string, content []byte) (*ProcessedInvoice, error) {
	log.Printf("Processing invoice file: %s (%d bytes)", filename, len(content))

	operationURL, err := s.submit(content)
	if err != nil {
		return nil, err
	}
	result, err := s.poll(operationURL)
	if err != nil {
		return nil, err
	}

	extracted := mapInvoice(result)
	validation := validateInvoice(&extracted)
	log.Printf("Invoice processing complete. Status: %s", validation.Status)

	return &ProcessedInvoice{ExtractedData: extracted, Validation: validation}, nil
}

func (s *InvoiceService) submit(content []byte) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/prebuilt-invoice:analyze?api-version=%s",
		s.endpoint, invoiceModelVersion)

	agent := fiber.Post(url)
	agent.Set("Ocp-Apim-Subscription-Key", s.key)
	agent.ContentType("application/octet-stream")
	agent.Body(content)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	agent.SetResponse(resp)

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("submit invoice: %v", errs[0])
	}
	if code != fiber.StatusAccepted {
		return "", fmt.Errorf("analyze request returned status %d", code)
	}
	location := string(resp.Header.Peek("Operation-Location"))
	if location == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location header")
	}
	return location, nil
}

func (s *InvoiceService) poll(operationURL string) (*azureAnalyzeResult, error) {
	for i := 0; i < s.maxPolls; i++ {
		time.Sleep(s.pollInterval)

		agent := fiber.Get(operationURL)
		agent.Set("Ocp-Apim-Subscription-Key", s.key)
		code, body, errs := agent.Bytes()
		if len(errs) > 0 {
			return nil, fmt.Errorf("poll analyze operation: %v", errs[0])
		}
		if code != fiber.StatusOK {
			return nil, fmt.Errorf("analyze operation returned status %d", code)
		}

		var result azureAnalyzeResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, err
		}
		switch result.Status {
		case "succeeded":
			return &result, nil
		case "failed":
			return nil, fmt.Errorf("invoice analysis failed")
		}
	}
	return nil, fmt.Errorf("invoice analysis did not complete in time")
}

// Azure analyze result wire types (only what the mapper needs).
type azureAnalyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Documents []struct {
			Fields map[string]azureField `json:"fields"`
		} `json:"documents"`
	} `json:"analyzeResult"`
}

type azureField struct {
	Type          string                `json:"type"`
	Content       string                `json:"content"`
	ValueString   string                `json:"valueString"`
	ValueNumber   *float64              `json:"valueNumber"`
	ValueDate     string                `json:"valueDate"`
	ValueCurrency *azureCurrency        `json:"valueCurrency"`
	ValueArray    []azureField          `json:"valueArray"`
	ValueObject   map[string]azureField `json:"valueObject"`
	Confidence    float64               `json:"confidence"`
}

type azureCurrency struct {
	Amount         float64 `json:"amount"`
	CurrencyCode   string  `json:"currencyCode"`
	CurrencySymbol string  `json:"currencySymbol"`
}

func (f *azureField) text() string {
	if f == nil {
		return ""
	}
	if f.ValueDate != "" {
		return f.ValueDate
	}
	if f.ValueString != "" {
		return f.ValueString
	}
	return f.Content
}

func (f *azureField) number() *float64 {
	if f == nil {
		return nil
	}
	if f.ValueCurrency != nil {
		v := f.ValueCurrency.Amount
		return &v
	}
	if f.ValueNumber != nil {
		return f.ValueNumber
	}
	return parseAmount(f.Content)
}

// parseAmount normalizes messy money strings like "381,12 €", "1.234,56" or
// "$1,234.56" into a float.
func parseAmount(value string) *float64 {
	s := strings.TrimSpace(value)
	for _, symbol := range []string{"€", "$", "£", "¥", "₹"} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas == 1 && dots == 0:
		// European decimal comma
		s = strings.Replace(s, ",", ".", 1)
	case commas >= 1 && dots >= 1:
		// Mixed separators: the last one is the decimal mark.
		// '1.234,56' -> comma decimal, '1,234.56' -> dot decimal.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas > 1 && dots == 0:
		// '1,234,567': commas are thousands separators
		s = strings.ReplaceAll(s, ",", "")
	}

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Failed to parse amount %q: %v", value, err)
		return nil
	}
	return &parsed
}

func mapInvoice(result *azureAnalyzeResult) InvoiceExtracted {
	extracted := InvoiceExtracted{
		DocumentType:     "invoice",
		LineItems:        []LineItem{},
		FieldConfidences: map[string]float64{},
	}
	if len(result.AnalyzeResult.Documents) == 0 {
		log.Println("No documents found in analyze result")
		return extracted
	}
	fields := result.AnalyzeResult.Documents[0].Fields

	get := func(name string) *azureField {
		if f, ok := fields[name]; ok {
			return &f
		}
		return nil
	}
	conf := func(f *azureField) float64 {
		if f == nil {
			return 0
		}
		return f.Confidence
	}

	supplier := get("VendorName")
	taxID := get("VendorTaxId")
	number := get("InvoiceId")
	date := get("InvoiceDate")
	due := get("DueDate")
	total := get("InvoiceTotal")
	if total == nil {
		total = get("AmountDue")
	}
	currency := get("CurrencyCode")

	extracted.SupplierName = supplier.text()
	extracted.SupplierTaxID = taxID.text()
	extracted.InvoiceNumber = number.text()
	extracted.InvoiceDate = date.text()
	extracted.DueDate = due.text()
	extracted.TotalAmount = total.number()
	extracted.Currency = currency.text()
	if extracted.Currency == "" && total != nil && total.ValueCurrency != nil {
		if total.ValueCurrency.CurrencyCode != "" {
			extracted.Currency = total.ValueCurrency.CurrencyCode
		} else {
			extracted.Currency = total.ValueCurrency.CurrencySymbol
		}
	}

	if items := get("Items"); items != nil {
		for _, entry := range items.ValueArray {
			obj := entry.ValueObject
			if obj == nil {
				continue
			}
			item := LineItem{}
			if f, ok := obj["Description"]; ok {
				item.Description = f.text()
			}
			if f, ok := obj["Quantity"]; ok {
				item.Quantity = f.number()
			}
			if f, ok := obj["UnitPrice"]; ok {
				item.UnitPrice = f.number()
			}
			if f, ok := obj["Amount"]; ok {
				item.LineTotal = f.number()
			}
			extracted.LineItems = append(extracted.LineItems, item)
		}
	}

	extracted.FieldConfidences = map[string]float64{
		"supplier_name":   conf(supplier),
		"supplier_tax_id": conf(taxID),
		"invoice_number":  conf(number),
		"invoice_date":    conf(date),
		"due_date":        conf(due),
		"total_amount":    conf(total),
		"currency":        conf(currency),
	}
	return extracted
}

func validateInvoice(inv *InvoiceExtracted) ValidationResult {
	var errors []string

	if inv.SupplierName == "" {
		errors = append(errors, "Missing supplier_name")
	}
	if inv.InvoiceNumber == "" {
		errors = append(errors, "Missing invoice_number")
	}
	if inv.InvoiceDate == "" {
		errors = append(errors, "Missing invoice_date")
	}
	if inv.TotalAmount == nil {
		errors = append(errors, "Missing total_amount")
	}

	// Line totals should roughly add up to the invoice total; tolerance
	// covers tax and rounding differences.
	if inv.TotalAmount != nil && len(inv.LineItems) > 0 {
		var sum float64
		for _, item := range inv.LineItems {
			if item.LineTotal != nil {
				sum += *item.LineTotal
			}
		}
		tolerance := math.Max(1.0, *inv.TotalAmount*0.05)
		if diff := math.Abs(sum - *inv.TotalAmount); diff > tolerance {
			errors = append(errors, fmt.Sprintf(
				"Line items total (%.2f) does not match invoice total (%.2f). Difference: %.2f",
				sum, *inv.TotalAmount, diff))
		}
	}

	for _, field := range []string{"supplier_name", "invoice_number", "invoice_date", "total_amount"} {
		if c := inv.FieldConfidences[field]; c < 0.7 {
			errors = append(errors, fmt.Sprintf("Low confidence for field '%s' (%.2f)", field, c))
		}
	}

	status := "VALID"
	if len(errors) > 0 {
		status = "REVIEW_REQUIRED"
	}
	if errors == nil {
		errors = []string{}
	}
	return ValidationResult{Status: status, Errors: errors}
}
