package quote

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quoting/internal/db"
)

// LineItem is one itemized cost entry in a finalize request.
type LineItem struct {
	Description string          `json:"description"`
	Qty         int             `json:"qty" validate:"gt=0"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// FinalizeRequest is the POST /quotes/finalize body. Either LineItems or the
// BaseCost/Qty pair must be present.
type FinalizeRequest struct {
	ProjectID               int64            `json:"project_id" validate:"required"`
	SelectedSupplierQuoteID *int64           `json:"selected_supplier_quote_id"`
	MarkupSchemaID          *int64           `json:"markup_schema_id"`
	LineItems               []LineItem       `json:"line_items" validate:"omitempty,dive"`
	BaseCost                *decimal.Decimal `json:"base_cost"`
	Qty                     *int             `json:"qty"`
	Category                string           `json:"category"`
	MarkupOverridePct       *decimal.Decimal `json:"markup_override_pct"`
	Fees                    *decimal.Decimal `json:"fees"`
	Tax                     *decimal.Decimal `json:"tax"`
	ValidUntil              *string          `json:"valid_until"`
	Status                  string           `json:"status"`
}

// FinalizeResponse is the POST /quotes/finalize response body.
type FinalizeResponse struct {
	ID                      int64           `json:"id"`
	ProjectID               int64           `json:"project_id"`
	SelectedSupplierQuoteID *int64          `json:"selected_supplier_quote_id"`
	MarkupSchemaID          int64           `json:"markup_schema_id"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	Fees                    decimal.Decimal `json:"fees"`
	Tax                     decimal.Decimal `json:"tax"`
	Total                   decimal.Decimal `json:"total"`
	Status                  string          `json:"status"`
}

// PreviewRequest is the POST /quotes/preview body. BaseCost stays a string so
// malformed decimals surface as a client error instead of a decode panic.
type PreviewRequest struct {
	Category          string           `json:"category" validate:"required"`
	Qty               int              `json:"qty" validate:"gte=1"`
	BaseCost          string           `json:"base_cost" validate:"required"`
	MarkupOverridePct *decimal.Decimal `json:"markup_override_pct"`
	Currency          string           `json:"currency"`
}

// PreviewResponse echoes the preview input plus the resolved pricing.
type PreviewResponse struct {
	Category   string          `json:"category"`
	Qty        int             `json:"qty"`
	BaseCost   decimal.Decimal `json:"base_cost"`
	MarkupPct  decimal.Decimal `json:"markup_pct"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Currency   string          `json:"currency"`
}

// LineItemsDoc is the normalized line_items column payload. Mode is "items"
// for itemized requests and "simple" for the synthetic single-line form; the
// item list is never empty.
type LineItemsDoc struct {
	Mode  string     `json:"mode"`
	Items []LineItem `json:"items"`
}

// CalcSnapshot records every intermediate value as an exact decimal string.
type CalcSnapshot struct {
	ComputedQty  int    `json:"computed_qty"`
	MarkupPct    string `json:"markup_pct"`
	Subtotal     string `json:"subtotal"`
	BeforeExtras string `json:"before_extras"`
	Fees         string `json:"fees"`
	Tax          string `json:"tax"`
	Total        string `json:"total"`
}

// Snapshot is the durable audit trail stored with each finalized quote: the
// verbatim input, all intermediates, and the assigned number. It is enough to
// reconstruct the calculation without recomputation.
type Snapshot struct {
	Input       json.RawMessage `json:"input"`
	Calc        CalcSnapshot    `json:"calc"`
	QuoteNumber string          `json:"quote_number"`
}

// DTO is the full customer quote representation returned by list/get.
type DTO struct {
	ID                      int64           `json:"id"`
	QuoteNumber             string          `json:"quote_number"`
	ProjectID               int64           `json:"project_id"`
	SelectedSupplierQuoteID *int64          `json:"selected_supplier_quote_id"`
	MarkupSchemaID          int64           `json:"markup_schema_id"`
	LineItems               json.RawMessage `json:"line_items"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	Fees                    decimal.Decimal `json:"fees"`
	Tax                     decimal.Decimal `json:"tax"`
	Total                   decimal.Decimal `json:"total"`
	ValidUntil              *string         `json:"valid_until"`
	Status                  string          `json:"status"`
	Snapshot                json.RawMessage `json:"snapshot"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// FromRow converts a stored quote row into its API representation.
func FromRow(row db.CustomerQuote) DTO {
	dto := DTO{
		ID:                      row.ID,
		QuoteNumber:             row.QuoteNumber,
		ProjectID:               row.ProjectID,
		SelectedSupplierQuoteID: row.SelectedSupplierQuoteID,
		MarkupSchemaID:          row.MarkupSchemaID,
		LineItems:               row.LineItems,
		Subtotal:                row.Subtotal,
		Fees:                    row.Fees,
		Tax:                     row.Tax,
		Total:                   row.Total,
		Status:                  row.Status,
		Snapshot:                row.Snapshot,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
	if row.ValidUntil != nil {
		s := row.ValidUntil.Format("2006-01-02")
		dto.ValidUntil = &s
	}
	return dto
}

func finalizeResponse(row db.CustomerQuote) FinalizeResponse {
	return FinalizeResponse{
		ID:                      row.ID,
		ProjectID:               row.ProjectID,
		SelectedSupplierQuoteID: row.SelectedSupplierQuoteID,
		MarkupSchemaID:          row.MarkupSchemaID,
		Subtotal:                row.Subtotal,
		Fees:                    row.Fees,
		Tax:                     row.Tax,
		Total:                   row.Total,
		Status:                  row.Status,
	}
}
