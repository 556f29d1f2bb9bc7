package services

import (
	"bytes"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// InvoiceData holds the fields extracted from a sale invoice
type InvoiceData struct {
	InvoiceNumber string
	SoldAt        time.Time
	Store         string
	ClientName    string
	ProductName   string
}

// InvoiceParseError reports a missing or unreadable invoice field.
// The code travels to the client unchanged.
type InvoiceParseError struct {
	Code string
}

func (e *InvoiceParseError) Error() string {
	return e.Code
}

// Parse error codes
const (
	ErrTextExtractionFailed = "PDF_TEXT_EXTRACTION_FAILED"
	ErrMissingInvoiceNumber = "MISSING_INVOICE_NUMBER"
	ErrMissingSoldAt        = "MISSING_SOLD_AT"
	ErrMissingStore         = "MISSING_STORE"
	ErrMissingClient        = "MISSING_CLIENT"
	ErrMissingProduct       = "MISSING_PRODUCT"
)

// TextExtractor turns an uploaded document into plain text
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// PDFTextExtractor extracts text from PDF documents
type PDFTextExtractor struct{}

// ExtractText concatenates the plain text of every page
func (PDFTextExtractor) ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// InvoiceService parses uploaded invoices into order fields
type InvoiceService struct {
	extractor TextExtractor
}

var invoiceServiceInstance *InvoiceService

// NewInvoiceService creates an invoice service with the given extractor
func NewInvoiceService(extractor TextExtractor) *InvoiceService {
	return &InvoiceService{extractor: extractor}
}

// GetInvoiceService returns the invoice service instance, creating the
// default PDF-backed one on first use
func GetInvoiceService() *InvoiceService {
	if invoiceServiceInstance == nil {
		invoiceServiceInstance = NewInvoiceService(PDFTextExtractor{})
	}
	return invoiceServiceInstance
}

// SetInvoiceService sets the invoice service instance (primarily for testing)
func SetInvoiceService(service *InvoiceService) {
	invoiceServiceInstance = service
}

var (
	invoiceNumberRe = regexp.MustCompile(`Facture\s+N°\s*([0-9-]+)`)
	soldAtRe        = regexp.MustCompile(`Date\s*:\s*([0-9]{2}/[0-9]{2}/[0-9]{4}),\s*([0-9]{2}:[0-9]{2}:[0-9]{2})`)
	storeRe         = regexp.MustCompile(`(?i)DREAM STATION`)
	clientRe        = regexp.MustCompile(`^(Mme|M\.|Mr|Mlle)\s+`)
	productRe       = regexp.MustCompile(`(?i)(PACK COMPLET\s+)?PC\s+GAMER`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// componentKeywords marks invoice lines that describe PC parts rather than
// the sold configuration itself
var componentKeywords = []string{
	"boitier",
	"cpu",
	"carte mere",
	"carte mère",
	"ram",
	"ssd",
	"ventirad",
	"carte graphique",
	"alimentation",
}

// Parse extracts the order fields from an uploaded invoice document
func (s *InvoiceService) Parse(data []byte) (*InvoiceData, error) {
	text, err := s.extractor.ExtractText(data)
	if err != nil {
		log.Printf("Invoice text extraction failed: %v", err)
		return nil, &InvoiceParseError{Code: ErrTextExtractionFailed}
	}
	return ParseInvoiceText(text)
}

// ParseInvoiceText extracts the order fields from invoice text.
// The layout is the one DREAM STATION invoices use; each missing field is
// reported with its own code so the operator knows what to fix.
func ParseInvoiceText(text string) (*InvoiceData, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	invoiceMatch := invoiceNumberRe.FindStringSubmatch(text)
	if invoiceMatch == nil {
		return nil, &InvoiceParseError{Code: ErrMissingInvoiceNumber}
	}
	invoiceNumber := strings.TrimSpace(invoiceMatch[1])

	dateMatch := soldAtRe.FindStringSubmatch(text)
	if dateMatch == nil {
		return nil, &InvoiceParseError{Code: ErrMissingSoldAt}
	}
	soldAt, err := time.ParseInLocation("02/01/2006 15:04:05", dateMatch[1]+" "+dateMatch[2], time.Local)
	if err != nil {
		return nil, &InvoiceParseError{Code: ErrMissingSoldAt}
	}

	var store string
	for _, line := range lines {
		if storeRe.MatchString(line) {
			store = line
			break
		}
	}
	if store == "" {
		return nil, &InvoiceParseError{Code: ErrMissingStore}
	}

	var clientName string
	for _, line := range lines {
		if clientRe.MatchString(line) {
			clientName = line
			break
		}
	}
	if clientName == "" {
		return nil, &InvoiceParseError{Code: ErrMissingClient}
	}

	productName := findProduct(lines)
	if productName == "" {
		return nil, &InvoiceParseError{Code: ErrMissingProduct}
	}

	log.Printf("Invoice parse preview invoice=%s sold_at=%s store=%s client=%s product=%s",
		invoiceNumber, soldAt.Format(time.RFC3339), store, clientName, productName)

	return &InvoiceData{
		InvoiceNumber: invoiceNumber,
		SoldAt:        soldAt,
		Store:         store,
		ClientName:    clientName,
		ProductName:   productName,
	}, nil
}

// findProduct picks the first configuration line, skipping component lines
// that also mention the product range
func findProduct(lines []string) string {
	seen := make(map[string]bool)
	for _, line := range lines {
		if !productRe.MatchString(line) {
			continue
		}
		cleaned := strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		lower := strings.ToLower(cleaned)
		if isComponentLine(lower) {
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true
		return cleaned
	}
	return ""
}

func isComponentLine(line string) bool {
	for _, keyword := range componentKeywords {
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}
