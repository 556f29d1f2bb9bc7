package models

// ImportResult is the outcome of an invoice import: the parsed order when
// one was created, the existing order when the invoice was already known,
// or the parse error codes
type ImportResult struct {
	Status string            `json:"status"`
	Order  *Order            `json:"order,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Import result statuses
const (
	ImportCreated       = "created"
	ImportAlreadyExists = "already_exists"
	ImportError         = "error"
)
