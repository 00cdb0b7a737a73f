package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quoting/internal/db"
	"github.com/noah-isme/backend-quoting/internal/markup"
	"github.com/noah-isme/backend-quoting/internal/obs"
	"github.com/noah-isme/backend-quoting/internal/pricing"
)

var (
	// ErrNoActiveSchema is returned when finalize has no markup schema to record:
	// none was supplied and no schema is active.
	ErrNoActiveSchema = errors.New("no active markup schema found and none provided")
	// ErrMissingCostInput is returned when a request carries neither line items
	// nor the base_cost/qty pair.
	ErrMissingCostInput = errors.New("provide either line_items or (base_cost and qty)")
	// ErrInvalidBaseCost is returned when a preview base_cost is not a decimal.
	ErrInvalidBaseCost = errors.New("invalid base_cost")
	// ErrInvalidValidUntil is returned when valid_until is not a YYYY-MM-DD date.
	ErrInvalidValidUntil = errors.New("invalid valid_until date")
)

// TxQueries are the storage operations used inside the finalize transaction.
type TxQueries interface {
	LastQuoteNumber(ctx context.Context, prefix string) (string, error)
	InsertCustomerQuote(ctx context.Context, arg db.InsertCustomerQuoteParams) (db.CustomerQuote, error)
}

// TxRunner executes fn inside a single database transaction so the quote
// number read and the insert commit or roll back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q TxQueries) error) error
}

// PoolTx is the pgx-backed TxRunner.
type PoolTx struct {
	Pool *pgxpool.Pool
}

// InTx implements TxRunner.
func (p PoolTx) InTx(ctx context.Context, fn func(q TxQueries) error) error {
	tx, err := p.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(db.New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Querier captures the read methods required by quote handlers.
type Querier interface {
	GetCustomerQuote(ctx context.Context, id int64) (db.CustomerQuote, error)
	ListCustomerQuotes(ctx context.Context, projectID *int64, limit, offset int32) ([]db.CustomerQuote, error)
}

// SchemaSource yields the active markup schema.
type SchemaSource interface {
	Active(ctx context.Context) (markup.Schema, error)
}

// Service implements quote preview and finalization.
type Service struct {
	Q               Querier
	Tx              TxRunner
	Schemas         SchemaSource
	DefaultCategory string
	NumberRetries   int
	Now             func() time.Time
}

// Preview resolves a markup percentage and computes a customer price without
// persisting anything.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error) {
	if s == nil || s.Schemas == nil {
		return PreviewResponse{}, errors.New("quote service not configured")
	}
	base, err := decimal.NewFromString(req.BaseCost)
	if err != nil {
		return PreviewResponse{}, ErrInvalidBaseCost
	}
	pct, err := s.resolvePercent(ctx, req.MarkupOverridePct, req.Category, req.Qty, nil)
	if err != nil {
		return PreviewResponse{}, err
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	return PreviewResponse{
		Category:   req.Category,
		Qty:        req.Qty,
		BaseCost:   base,
		MarkupPct:  pct,
		TotalPrice: pricing.CustomerPrice(base, pct),
		Currency:   currency,
	}, nil
}

// Finalize computes totals, applies markup rules, and persists a customer
// quote with a full calculation snapshot and a fresh quote number. The number
// generation and insert run in one transaction; a unique-violation on the
// quote number triggers a bounded retry with a recomputed number.
func (s *Service) Finalize(ctx context.Context, req FinalizeRequest) (db.CustomerQuote, error) {
	if s == nil || s.Tx == nil || s.Schemas == nil {
		return db.CustomerQuote{}, errors.New("quote service not configured")
	}

	// Schema resolution: an explicit id wins, otherwise the active schema.
	var active *markup.Schema
	schemaID := req.MarkupSchemaID
	if schemaID == nil {
		schema, err := s.Schemas.Active(ctx)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return db.CustomerQuote{}, ErrNoActiveSchema
			}
			return db.CustomerQuote{}, err
		}
		active = &schema
		schemaID = &schema.ID
	}

	subtotal, computedQty, doc, err := normalizeInput(req)
	if err != nil {
		return db.CustomerQuote{}, err
	}

	pct, err := s.resolvePercent(ctx, req.MarkupOverridePct, req.Category, computedQty, active)
	if err != nil {
		return db.CustomerQuote{}, err
	}

	summary := pricing.Compute(subtotal, pct, derefOrZero(req.Fees), derefOrZero(req.Tax))

	validUntil, err := parseValidUntil(req.ValidUntil)
	if err != nil {
		return db.CustomerQuote{}, err
	}

	lineItems, err := json.Marshal(doc)
	if err != nil {
		return db.CustomerQuote{}, fmt.Errorf("marshal line items: %w", err)
	}
	inputEcho, err := json.Marshal(req)
	if err != nil {
		return db.CustomerQuote{}, fmt.Errorf("marshal input echo: %w", err)
	}

	status := req.Status
	if status == "" {
		status = "draft"
	}
	prefix := MonthPrefix(s.now())

	retries := s.NumberRetries
	if retries < 1 {
		retries = 3
	}
	var row db.CustomerQuote
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		lastErr = s.Tx.InTx(ctx, func(q TxQueries) error {
			last, err := q.LastQuoteNumber(ctx, prefix)
			if err != nil {
				return err
			}
			number := NextNumber(prefix, last)
			snapshot, err := json.Marshal(Snapshot{
				Input:       inputEcho,
				Calc:        calcSnapshot(computedQty, summary),
				QuoteNumber: number,
			})
			if err != nil {
				return fmt.Errorf("marshal snapshot: %w", err)
			}
			row, err = q.InsertCustomerQuote(ctx, db.InsertCustomerQuoteParams{
				QuoteNumber:             number,
				ProjectID:               req.ProjectID,
				SelectedSupplierQuoteID: req.SelectedSupplierQuoteID,
				MarkupSchemaID:          *schemaID,
				LineItems:               lineItems,
				Subtotal:                summary.Subtotal,
				Fees:                    summary.Fees,
				Tax:                     summary.Tax,
				Total:                   summary.Total,
				ValidUntil:              validUntil,
				Status:                  status,
				Snapshot:                snapshot,
			})
			return err
		})
		if lastErr == nil {
			return row, nil
		}
		if !isUniqueViolation(lastErr) {
			return db.CustomerQuote{}, lastErr
		}
		// Another finalize won the number; recompute against the new maximum.
		obs.CountNumberConflict()
	}
	return db.CustomerQuote{}, fmt.Errorf("assign quote number: %w", lastErr)
}

// Get returns one finalized quote by id.
func (s *Service) Get(ctx context.Context, id int64) (DTO, error) {
	if s == nil || s.Q == nil {
		return DTO{}, errors.New("quote service not configured")
	}
	row, err := s.Q.GetCustomerQuote(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	return FromRow(row), nil
}

// List returns finalized quotes, optionally filtered by project.
func (s *Service) List(ctx context.Context, projectID *int64, limit, offset int32) ([]DTO, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("quote service not configured")
	}
	rows, err := s.Q.ListCustomerQuotes(ctx, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out, nil
}

// normalizeInput selects itemized or simple mode and produces the subtotal,
// the computed quantity, and the normalized line_items document.
func normalizeInput(req FinalizeRequest) (decimal.Decimal, int, LineItemsDoc, error) {
	if len(req.LineItems) > 0 {
		items := make([]pricing.Item, 0, len(req.LineItems))
		qty := 0
		for _, li := range req.LineItems {
			items = append(items, pricing.Item{Description: li.Description, Qty: li.Qty, UnitCost: li.UnitCost})
			qty += li.Qty
		}
		return pricing.Subtotal(items), qty, LineItemsDoc{Mode: "items", Items: req.LineItems}, nil
	}
	if req.BaseCost == nil || req.Qty == nil || *req.Qty <= 0 {
		return decimal.Zero, 0, LineItemsDoc{}, ErrMissingCostInput
	}
	subtotal := pricing.Round2(*req.BaseCost)
	qty := *req.Qty
	// A synthetic single line keeps the stored line_items non-empty for audit display.
	perUnit := pricing.Round2(subtotal.Div(decimal.NewFromInt(int64(qty))))
	category := req.Category
	if category == "" {
		category = "n/a"
	}
	doc := LineItemsDoc{
		Mode: "simple",
		Items: []LineItem{{
			Description: fmt.Sprintf("Base cost (%s)", category),
			Qty:         qty,
			UnitCost:    perUnit,
		}},
	}
	return subtotal, qty, doc, nil
}

// resolvePercent honours a caller override verbatim, otherwise resolves from
// the active schema's banded rules. A missing active schema resolves to zero
// percent here; requiring one is the schema-resolution step's concern.
func (s *Service) resolvePercent(ctx context.Context, override *decimal.Decimal, category string, qty int, active *markup.Schema) (decimal.Decimal, error) {
	if override != nil {
		return *override, nil
	}
	if category == "" {
		category = s.DefaultCategory
		if category == "" {
			category = "im"
		}
	}
	if active == nil {
		schema, err := s.Schemas.Active(ctx)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return decimal.Zero, nil
			}
			return decimal.Zero, err
		}
		active = &schema
	}
	return markup.Resolve(active.Rules, category, qty), nil
}

func calcSnapshot(computedQty int, summary pricing.Summary) CalcSnapshot {
	return CalcSnapshot{
		ComputedQty:  computedQty,
		MarkupPct:    summary.MarkupPct.String(),
		Subtotal:     summary.Subtotal.String(),
		BeforeExtras: summary.BeforeExtras.String(),
		Fees:         summary.Fees.String(),
		Tax:          summary.Tax.String(),
		Total:        summary.Total.String(),
	}
}

func parseValidUntil(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, ErrInvalidValidUntil
	}
	return &t, nil
}

func derefOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
