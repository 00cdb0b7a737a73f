package rfq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quoting/internal/db"
)

// ErrInvalidDueDate is returned when due_date is not a YYYY-MM-DD date.
var ErrInvalidDueDate = errors.New("invalid due_date")

// Querier captures the database methods required by the RFQ service.
type Querier interface {
	InsertRFQ(ctx context.Context, arg db.InsertRFQParams) (db.RFQ, error)
	GetRFQ(ctx context.Context, id int64) (db.RFQ, error)
	ListRFQs(ctx context.Context, projectID *int64, limit, offset int32) ([]db.RFQ, error)
	InsertSupplierQuote(ctx context.Context, arg db.InsertSupplierQuoteParams) (db.SupplierQuote, error)
	GetSupplierQuote(ctx context.Context, id int64) (db.SupplierQuote, error)
	ListSupplierQuotesByRFQ(ctx context.Context, rfqID int64) ([]db.SupplierQuote, error)
}

// Service manages requests-for-quote and the supplier quotes collected on them.
type Service struct {
	Q Querier
}

// DTO is the API representation of an RFQ.
type DTO struct {
	ID           int64           `json:"id"`
	ProjectID    int64           `json:"project_id"`
	CreatedBy    *int64          `json:"created_by"`
	AssignedTo   *int64          `json:"assigned_to"`
	Requirements json.RawMessage `json:"requirements"`
	Status       string          `json:"status"`
	DueDate      *string         `json:"due_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SupplierQuoteDTO is the API representation of a supplier quote.
type SupplierQuoteDTO struct {
	ID           int64            `json:"id"`
	RFQID        int64            `json:"rfq_id"`
	SupplierName string           `json:"supplier_name"`
	Currency     string           `json:"currency"`
	ToolingCost  *decimal.Decimal `json:"tooling_cost"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	MOQ          *int32           `json:"moq"`
	LeadTimeDays *int32           `json:"lead_time_days"`
	Notes        *string          `json:"notes"`
	Status       string           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateRequest is the POST /rfqs body.
type CreateRequest struct {
	ProjectID    int64           `json:"project_id" validate:"required"`
	CreatedBy    *int64          `json:"created_by"`
	AssignedTo   *int64          `json:"assigned_to"`
	Requirements json.RawMessage `json:"requirements"`
	Status       string          `json:"status"`
	DueDate      *string         `json:"due_date"`
}

// CreateSupplierQuoteRequest is the POST /rfqs/{id}/supplier-quotes body.
type CreateSupplierQuoteRequest struct {
	SupplierName string           `json:"supplier_name" validate:"required"`
	Currency     string           `json:"currency"`
	ToolingCost  *decimal.Decimal `json:"tooling_cost"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	MOQ          *int32           `json:"moq"`
	LeadTimeDays *int32           `json:"lead_time_days"`
	Notes        *string          `json:"notes"`
	Status       string           `json:"status"`
}

// FromRow converts a stored RFQ row into its API representation.
func FromRow(row db.RFQ) DTO {
	dto := DTO{
		ID:           row.ID,
		ProjectID:    row.ProjectID,
		CreatedBy:    row.CreatedBy,
		AssignedTo:   row.AssignedTo,
		Requirements: row.Requirements,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.DueDate != nil {
		s := row.DueDate.Format("2006-01-02")
		dto.DueDate = &s
	}
	return dto
}

// SupplierQuoteFromRow converts a stored supplier quote row.
func SupplierQuoteFromRow(row db.SupplierQuote) SupplierQuoteDTO {
	return SupplierQuoteDTO{
		ID:           row.ID,
		RFQID:        row.RFQID,
		SupplierName: row.SupplierName,
		Currency:     row.Currency,
		ToolingCost:  row.ToolingCost,
		UnitPrice:    row.UnitPrice,
		MOQ:          row.MOQ,
		LeadTimeDays: row.LeadTimeDays,
		Notes:        row.Notes,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// Create stores a new RFQ.
func (s *Service) Create(ctx context.Context, req CreateRequest) (DTO, error) {
	if s == nil || s.Q == nil {
		return DTO{}, errors.New("rfq service not configured")
	}
	status := req.Status
	if status == "" {
		status = "open"
	}
	requirements := req.Requirements
	if len(requirements) == 0 {
		requirements = json.RawMessage(`{}`)
	}
	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return DTO{}, ErrInvalidDueDate
		}
		dueDate = &t
	}
	row, err := s.Q.InsertRFQ(ctx, db.InsertRFQParams{
		ProjectID:    req.ProjectID,
		CreatedBy:    req.CreatedBy,
		AssignedTo:   req.AssignedTo,
		Requirements: requirements,
		Status:       status,
		DueDate:      dueDate,
	})
	if err != nil {
		return DTO{}, err
	}
	return FromRow(row), nil
}

// Get returns one RFQ by id.
func (s *Service) Get(ctx context.Context, id int64) (DTO, error) {
	if s == nil || s.Q == nil {
		return DTO{}, errors.New("rfq service not configured")
	}
	row, err := s.Q.GetRFQ(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	return FromRow(row), nil
}

// List returns RFQs, optionally filtered by project.
func (s *Service) List(ctx context.Context, projectID *int64, limit, offset int32) ([]DTO, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("rfq service not configured")
	}
	rows, err := s.Q.ListRFQs(ctx, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out, nil
}

// AddSupplierQuote records a supplier's response against an RFQ. The RFQ must
// exist; db.ErrNotFound propagates when it does not.
func (s *Service) AddSupplierQuote(ctx context.Context, rfqID int64, req CreateSupplierQuoteRequest) (SupplierQuoteDTO, error) {
	if s == nil || s.Q == nil {
		return SupplierQuoteDTO{}, errors.New("rfq service not configured")
	}
	if _, err := s.Q.GetRFQ(ctx, rfqID); err != nil {
		return SupplierQuoteDTO{}, err
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	status := req.Status
	if status == "" {
		status = "received"
	}
	row, err := s.Q.InsertSupplierQuote(ctx, db.InsertSupplierQuoteParams{
		RFQID:        rfqID,
		SupplierName: req.SupplierName,
		Currency:     currency,
		ToolingCost:  req.ToolingCost,
		UnitPrice:    req.UnitPrice,
		MOQ:          req.MOQ,
		LeadTimeDays: req.LeadTimeDays,
		Notes:        req.Notes,
		Status:       status,
	})
	if err != nil {
		return SupplierQuoteDTO{}, err
	}
	return SupplierQuoteFromRow(row), nil
}

// SupplierQuotes returns every supplier quote recorded on an RFQ.
func (s *Service) SupplierQuotes(ctx context.Context, rfqID int64) ([]SupplierQuoteDTO, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("rfq service not configured")
	}
	rows, err := s.Q.ListSupplierQuotesByRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	out := make([]SupplierQuoteDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, SupplierQuoteFromRow(row))
	}
	return out, nil
}
