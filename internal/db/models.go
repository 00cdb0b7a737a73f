package db

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// User is a row in the users table.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// Project is a row in the projects table.
type Project struct {
	ID          int64
	Name        string
	ClientName  *string
	ServiceType string
	Status      string
	OwnerID     *int64
	Intake      json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RFQ is a row in the rfqs table.
type RFQ struct {
	ID           int64
	ProjectID    int64
	CreatedBy    *int64
	AssignedTo   *int64
	Requirements json.RawMessage
	Status       string
	DueDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SupplierQuote is a row in the supplier_quotes table.
type SupplierQuote struct {
	ID           int64
	RFQID        int64
	SupplierName string
	Currency     string
	ToolingCost  *decimal.Decimal
	UnitPrice    *decimal.Decimal
	MOQ          *int32
	LeadTimeDays *int32
	Notes        *string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MarkupSchema is a row in the markup_schemas table. Rules holds the raw
// JSON document; decoding and validation live in the markup package.
type MarkupSchema struct {
	ID        int64
	Name      string
	IsActive  bool
	Rules     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditLog is a row in the audit_logs table.
type AuditLog struct {
	ID           int64           `json:"id"`
	Actor        string          `json:"actor"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int32           `json:"status"`
	IP           *string         `json:"ip"`
	UserAgent    *string         `json:"user_agent"`
	RequestID    *string         `json:"request_id"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CustomerQuote is a row in the customer_quotes table.
type CustomerQuote struct {
	ID                      int64
	QuoteNumber             string
	ProjectID               int64
	SelectedSupplierQuoteID *int64
	MarkupSchemaID          int64
	LineItems               json.RawMessage
	Subtotal                decimal.Decimal
	Fees                    decimal.Decimal
	Tax                     decimal.Decimal
	Total                   decimal.Decimal
	ValidUntil              *time.Time
	Status                  string
	Snapshot                json.RawMessage
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
