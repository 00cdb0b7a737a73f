package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so queries can run either
// directly against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store exposes typed queries over the quoting schema.
type Store struct {
	db DBTX
}

// New constructs a Store bound to the given connection source.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// WithTx returns a Store that routes all queries through the transaction.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- users -----------------------------------------------------------

// UpsertUser inserts a user or updates name/role when the email already exists.
func (s *Store) UpsertUser(ctx context.Context, email, name, role string) (User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
		RETURNING id, email, name, role, created_at`,
		email, name, role)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// --- projects --------------------------------------------------------

// InsertProjectParams groups the insertable project columns.
type InsertProjectParams struct {
	Name        string
	ClientName  *string
	ServiceType string
	Status      string
	OwnerID     *int64
	Intake      json.RawMessage
}

const projectColumns = `id, name, client_name, service_type, status, owner_id, intake, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.ClientName, &p.ServiceType, &p.Status, &p.OwnerID, &p.Intake, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// InsertProject creates a project row.
func (s *Store) InsertProject(ctx context.Context, arg InsertProjectParams) (Project, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO projects (name, client_name, service_type, status, owner_id, intake)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns,
		arg.Name, arg.ClientName, arg.ServiceType, arg.Status, arg.OwnerID, arg.Intake)
	return scanProject(row)
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return Project{}, notFound(err)
	}
	return p, nil
}

// ListProjects returns projects ordered by creation time, newest first.
func (s *Store) ListProjects(ctx context.Context, limit, offset int32) ([]Project, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProjectByName fetches a project by exact name. Used by the seeder.
func (s *Store) GetProjectByName(ctx context.Context, name string) (Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE name = $1 LIMIT 1`, name))
	if err != nil {
		return Project{}, notFound(err)
	}
	return p, nil
}

// --- rfqs ------------------------------------------------------------

// InsertRFQParams groups the insertable RFQ columns.
type InsertRFQParams struct {
	ProjectID    int64
	CreatedBy    *int64
	AssignedTo   *int64
	Requirements json.RawMessage
	Status       string
	DueDate      *time.Time
}

const rfqColumns = `id, project_id, created_by, assigned_to, requirements, status, due_date, created_at, updated_at`

func scanRFQ(row pgx.Row) (RFQ, error) {
	var r RFQ
	err := row.Scan(&r.ID, &r.ProjectID, &r.CreatedBy, &r.AssignedTo, &r.Requirements, &r.Status, &r.DueDate, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// InsertRFQ creates an RFQ row.
func (s *Store) InsertRFQ(ctx context.Context, arg InsertRFQParams) (RFQ, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO rfqs (project_id, created_by, assigned_to, requirements, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+rfqColumns,
		arg.ProjectID, arg.CreatedBy, arg.AssignedTo, arg.Requirements, arg.Status, arg.DueDate)
	return scanRFQ(row)
}

// GetRFQ fetches an RFQ by id.
func (s *Store) GetRFQ(ctx context.Context, id int64) (RFQ, error) {
	r, err := scanRFQ(s.db.QueryRow(ctx, `SELECT `+rfqColumns+` FROM rfqs WHERE id = $1`, id))
	if err != nil {
		return RFQ{}, notFound(err)
	}
	return r, nil
}

// ListRFQs returns RFQs, optionally narrowed to a project.
func (s *Store) ListRFQs(ctx context.Context, projectID *int64, limit, offset int32) ([]RFQ, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rfqColumns+` FROM rfqs
		WHERE ($1::bigint IS NULL OR project_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RFQ
	for rows.Next() {
		r, err := scanRFQ(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- supplier quotes -------------------------------------------------

// InsertSupplierQuoteParams groups the insertable supplier quote columns.
type InsertSupplierQuoteParams struct {
	RFQID        int64
	SupplierName string
	Currency     string
	ToolingCost  *decimal.Decimal
	UnitPrice    *decimal.Decimal
	MOQ          *int32
	LeadTimeDays *int32
	Notes        *string
	Status       string
}

const supplierQuoteColumns = `id, rfq_id, supplier_name, currency, tooling_cost::text, unit_price::text,
	moq, lead_time_days, notes, status, created_at, updated_at`

func scanSupplierQuote(row pgx.Row) (SupplierQuote, error) {
	var q SupplierQuote
	var tooling, unit *string
	err := row.Scan(&q.ID, &q.RFQID, &q.SupplierName, &q.Currency, &tooling, &unit,
		&q.MOQ, &q.LeadTimeDays, &q.Notes, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return SupplierQuote{}, err
	}
	if q.ToolingCost, err = parseNullableDecimal(tooling); err != nil {
		return SupplierQuote{}, err
	}
	if q.UnitPrice, err = parseNullableDecimal(unit); err != nil {
		return SupplierQuote{}, err
	}
	return q, nil
}

// InsertSupplierQuote creates a supplier quote row.
func (s *Store) InsertSupplierQuote(ctx context.Context, arg InsertSupplierQuoteParams) (SupplierQuote, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO supplier_quotes (rfq_id, supplier_name, currency, tooling_cost, unit_price, moq, lead_time_days, notes, status)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9)
		RETURNING `+supplierQuoteColumns,
		arg.RFQID, arg.SupplierName, arg.Currency,
		decimalArg(arg.ToolingCost), decimalArg(arg.UnitPrice),
		arg.MOQ, arg.LeadTimeDays, arg.Notes, arg.Status)
	return scanSupplierQuote(row)
}

// GetSupplierQuote fetches a supplier quote by id.
func (s *Store) GetSupplierQuote(ctx context.Context, id int64) (SupplierQuote, error) {
	q, err := scanSupplierQuote(s.db.QueryRow(ctx, `SELECT `+supplierQuoteColumns+` FROM supplier_quotes WHERE id = $1`, id))
	if err != nil {
		return SupplierQuote{}, notFound(err)
	}
	return q, nil
}

// ListSupplierQuotesByRFQ returns supplier quotes for one RFQ.
func (s *Store) ListSupplierQuotesByRFQ(ctx context.Context, rfqID int64) ([]SupplierQuote, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+supplierQuoteColumns+` FROM supplier_quotes
		WHERE rfq_id = $1
		ORDER BY created_at ASC`, rfqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SupplierQuote
	for rows.Next() {
		q, err := scanSupplierQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// --- markup schemas --------------------------------------------------

const markupSchemaColumns = `id, name, is_active, rules, created_at, updated_at`

func scanMarkupSchema(row pgx.Row) (MarkupSchema, error) {
	var m MarkupSchema
	err := row.Scan(&m.ID, &m.Name, &m.IsActive, &m.Rules, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// InsertMarkupSchema creates a markup schema row.
func (s *Store) InsertMarkupSchema(ctx context.Context, name string, isActive bool, rules json.RawMessage) (MarkupSchema, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO markup_schemas (name, is_active, rules)
		VALUES ($1, $2, $3)
		RETURNING `+markupSchemaColumns,
		name, isActive, rules)
	return scanMarkupSchema(row)
}

// UpsertMarkupSchemaByName inserts a schema or replaces its rules when the name exists.
func (s *Store) UpsertMarkupSchemaByName(ctx context.Context, name string, rules json.RawMessage) (MarkupSchema, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO markup_schemas (name, is_active, rules)
		VALUES ($1, false, $2)
		ON CONFLICT (name) DO UPDATE SET rules = EXCLUDED.rules, updated_at = now()
		RETURNING `+markupSchemaColumns,
		name, rules)
	return scanMarkupSchema(row)
}

// GetMarkupSchema fetches a schema by id.
func (s *Store) GetMarkupSchema(ctx context.Context, id int64) (MarkupSchema, error) {
	m, err := scanMarkupSchema(s.db.QueryRow(ctx, `SELECT `+markupSchemaColumns+` FROM markup_schemas WHERE id = $1`, id))
	if err != nil {
		return MarkupSchema{}, notFound(err)
	}
	return m, nil
}

// ActiveMarkupSchema returns the single active schema.
func (s *Store) ActiveMarkupSchema(ctx context.Context) (MarkupSchema, error) {
	m, err := scanMarkupSchema(s.db.QueryRow(ctx, `SELECT `+markupSchemaColumns+` FROM markup_schemas WHERE is_active LIMIT 1`))
	if err != nil {
		return MarkupSchema{}, notFound(err)
	}
	return m, nil
}

// ListMarkupSchemas returns all schemas ordered by id.
func (s *Store) ListMarkupSchemas(ctx context.Context) ([]MarkupSchema, error) {
	rows, err := s.db.Query(ctx, `SELECT `+markupSchemaColumns+` FROM markup_schemas ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MarkupSchema
	for rows.Next() {
		m, err := scanMarkupSchema(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeactivateMarkupSchemas clears the active flag on every schema. Run inside
// the same transaction as ActivateMarkupSchema to respect the partial unique index.
func (s *Store) DeactivateMarkupSchemas(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `UPDATE markup_schemas SET is_active = false, updated_at = now() WHERE is_active`)
	return err
}

// ActivateMarkupSchema marks one schema active.
func (s *Store) ActivateMarkupSchema(ctx context.Context, id int64) (MarkupSchema, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE markup_schemas SET is_active = true, updated_at = now()
		WHERE id = $1
		RETURNING `+markupSchemaColumns, id)
	m, err := scanMarkupSchema(row)
	if err != nil {
		return MarkupSchema{}, notFound(err)
	}
	return m, nil
}

// --- customer quotes -------------------------------------------------

// InsertCustomerQuoteParams groups the insertable customer quote columns.
type InsertCustomerQuoteParams struct {
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
}

const customerQuoteColumns = `id, quote_number, project_id, selected_supplier_quote_id, markup_schema_id,
	line_items, subtotal::text, fees::text, tax::text, total::text, valid_until, status, snapshot,
	created_at, updated_at`

func scanCustomerQuote(row pgx.Row) (CustomerQuote, error) {
	var q CustomerQuote
	var subtotal, fees, tax, total string
	err := row.Scan(&q.ID, &q.QuoteNumber, &q.ProjectID, &q.SelectedSupplierQuoteID, &q.MarkupSchemaID,
		&q.LineItems, &subtotal, &fees, &tax, &total, &q.ValidUntil, &q.Status, &q.Snapshot,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return CustomerQuote{}, err
	}
	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{{&q.Subtotal, subtotal}, {&q.Fees, fees}, {&q.Tax, tax}, {&q.Total, total}} {
		v, err := decimal.NewFromString(field.src)
		if err != nil {
			return CustomerQuote{}, fmt.Errorf("parse numeric %q: %w", field.src, err)
		}
		*field.dst = v
	}
	return q, nil
}

// InsertCustomerQuote creates a customer quote row.
func (s *Store) InsertCustomerQuote(ctx context.Context, arg InsertCustomerQuoteParams) (CustomerQuote, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO customer_quotes (quote_number, project_id, selected_supplier_quote_id, markup_schema_id,
			line_items, subtotal, fees, tax, total, valid_until, status, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12)
		RETURNING `+customerQuoteColumns,
		arg.QuoteNumber, arg.ProjectID, arg.SelectedSupplierQuoteID, arg.MarkupSchemaID,
		arg.LineItems, arg.Subtotal.String(), arg.Fees.String(), arg.Tax.String(), arg.Total.String(),
		arg.ValidUntil, arg.Status, arg.Snapshot)
	return scanCustomerQuote(row)
}

// GetCustomerQuote fetches a customer quote by id.
func (s *Store) GetCustomerQuote(ctx context.Context, id int64) (CustomerQuote, error) {
	q, err := scanCustomerQuote(s.db.QueryRow(ctx, `SELECT `+customerQuoteColumns+` FROM customer_quotes WHERE id = $1`, id))
	if err != nil {
		return CustomerQuote{}, notFound(err)
	}
	return q, nil
}

// ListCustomerQuotes returns quotes, optionally narrowed to a project.
func (s *Store) ListCustomerQuotes(ctx context.Context, projectID *int64, limit, offset int32) ([]CustomerQuote, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+customerQuoteColumns+` FROM customer_quotes
		WHERE ($1::bigint IS NULL OR project_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CustomerQuote
	for rows.Next() {
		q, err := scanCustomerQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// LastQuoteNumber returns the highest quote number with the given prefix, or
// empty string when none exists. Suffixes grow beyond four digits, so numbers
// are ordered by length before lexical value.
func (s *Store) LastQuoteNumber(ctx context.Context, prefix string) (string, error) {
	var last string
	err := s.db.QueryRow(ctx, `
		SELECT quote_number FROM customer_quotes WHERE quote_number LIKE $1 || '%'
		ORDER BY length(quote_number) DESC, quote_number DESC LIMIT 1`, prefix).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return last, nil
}

// --- audit logs ------------------------------------------------------

// InsertAuditLogParams carries a new audit entry.
type InsertAuditLogParams struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   *string
	Method       string
	Path         string
	Status       int32
	IP           *string
	UserAgent    *string
	RequestID    *string
	Metadata     json.RawMessage
}

const auditLogColumns = `id, actor, action, resource_type, resource_id, method, path, status,
	ip, user_agent, request_id, metadata, created_at`

func scanAuditLog(row pgx.Row) (AuditLog, error) {
	var a AuditLog
	err := row.Scan(&a.ID, &a.Actor, &a.Action, &a.ResourceType, &a.ResourceID, &a.Method, &a.Path,
		&a.Status, &a.IP, &a.UserAgent, &a.RequestID, &a.Metadata, &a.CreatedAt)
	return a, err
}

// InsertAuditLog records one audited action.
func (s *Store) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO audit_logs (actor, action, resource_type, resource_id, method, path, status,
			ip, user_agent, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+auditLogColumns,
		arg.Actor, arg.Action, arg.ResourceType, arg.ResourceID, arg.Method, arg.Path, arg.Status,
		arg.IP, arg.UserAgent, arg.RequestID, arg.Metadata)
	return scanAuditLog(row)
}

// ListAuditLogs returns audit entries, newest first.
func (s *Store) ListAuditLogs(ctx context.Context, limit, offset int32) ([]AuditLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+auditLogColumns+` FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- helpers ---------------------------------------------------------

func parseNullableDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	v, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &v, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
