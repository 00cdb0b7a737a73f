package markup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-quoting/internal/db"
)

// Schema is the decoded, validated form of a markup schema row.
type Schema struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Rules     Rules     `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Querier captures the database methods required by the markup service.
type Querier interface {
	InsertMarkupSchema(ctx context.Context, name string, isActive bool, rules json.RawMessage) (db.MarkupSchema, error)
	GetMarkupSchema(ctx context.Context, id int64) (db.MarkupSchema, error)
	ActiveMarkupSchema(ctx context.Context) (db.MarkupSchema, error)
	ListMarkupSchemas(ctx context.Context) ([]db.MarkupSchema, error)
}

// Service manages markup schema administration and active-schema lookup.
// Pool is required only for operations that flip the active flag, which must
// run transactionally against the single-active partial unique index.
type Service struct {
	Q     Querier
	Pool  *pgxpool.Pool
	Cache *Cache
}

// FromRow decodes a schema row, validating its rules document.
func FromRow(row db.MarkupSchema) (Schema, error) {
	rules, err := ParseRules(row.Rules)
	if err != nil {
		return Schema{}, fmt.Errorf("schema %d: %w", row.ID, err)
	}
	return Schema{
		ID:        row.ID,
		Name:      row.Name,
		IsActive:  row.IsActive,
		Rules:     rules,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Create validates and stores a new schema. When activate is set the new
// schema atomically replaces the current active one.
func (s *Service) Create(ctx context.Context, name string, activate bool, raw json.RawMessage) (Schema, error) {
	if s == nil || s.Q == nil {
		return Schema{}, errors.New("markup service not configured")
	}
	if _, err := ParseRules(raw); err != nil {
		return Schema{}, err
	}
	if !activate {
		row, err := s.Q.InsertMarkupSchema(ctx, name, false, raw)
		if err != nil {
			return Schema{}, err
		}
		return FromRow(row)
	}
	if s.Pool == nil {
		return Schema{}, errors.New("markup service requires a pool for activation")
	}
	var row db.MarkupSchema
	err := s.inTx(ctx, func(txq *db.Store) error {
		if err := txq.DeactivateMarkupSchemas(ctx); err != nil {
			return err
		}
		var err error
		row, err = txq.InsertMarkupSchema(ctx, name, true, raw)
		return err
	})
	if err != nil {
		return Schema{}, err
	}
	_ = s.Cache.Invalidate(ctx)
	return FromRow(row)
}

// Activate makes the given schema the single active one.
func (s *Service) Activate(ctx context.Context, id int64) (Schema, error) {
	if s == nil || s.Pool == nil {
		return Schema{}, errors.New("markup service not configured")
	}
	var row db.MarkupSchema
	err := s.inTx(ctx, func(txq *db.Store) error {
		if err := txq.DeactivateMarkupSchemas(ctx); err != nil {
			return err
		}
		var err error
		row, err = txq.ActivateMarkupSchema(ctx, id)
		return err
	})
	if err != nil {
		return Schema{}, err
	}
	_ = s.Cache.Invalidate(ctx)
	return FromRow(row)
}

// Active returns the single active schema, reading through the cache when
// configured. Absence is reported as db.ErrNotFound.
func (s *Service) Active(ctx context.Context) (Schema, error) {
	if s == nil || s.Q == nil {
		return Schema{}, errors.New("markup service not configured")
	}
	var cached Schema
	if ok, err := s.Cache.GetActive(ctx, &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.Q.ActiveMarkupSchema(ctx)
	if err != nil {
		return Schema{}, err
	}
	schema, err := FromRow(row)
	if err != nil {
		return Schema{}, err
	}
	_ = s.Cache.SetActive(ctx, schema)
	return schema, nil
}

// Get returns one schema by id.
func (s *Service) Get(ctx context.Context, id int64) (Schema, error) {
	if s == nil || s.Q == nil {
		return Schema{}, errors.New("markup service not configured")
	}
	row, err := s.Q.GetMarkupSchema(ctx, id)
	if err != nil {
		return Schema{}, err
	}
	return FromRow(row)
}

// List returns every stored schema.
func (s *Service) List(ctx context.Context) ([]Schema, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("markup service not configured")
	}
	rows, err := s.Q.ListMarkupSchemas(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Schema, 0, len(rows))
	for _, row := range rows {
		schema, err := FromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
	return out, nil
}

func (s *Service) inTx(ctx context.Context, fn func(txq *db.Store) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
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
