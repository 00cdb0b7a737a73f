package markup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/noah-isme/backend-quoting/internal/db"
)

type stubQuerier struct {
	active   db.MarkupSchema
	err      error
	inserted *db.MarkupSchema
	calls    int
}

func (s *stubQuerier) InsertMarkupSchema(_ context.Context, name string, isActive bool, rules json.RawMessage) (db.MarkupSchema, error) {
	row := db.MarkupSchema{ID: 1, Name: name, IsActive: isActive, Rules: rules}
	s.inserted = &row
	return row, nil
}

func (s *stubQuerier) GetMarkupSchema(_ context.Context, id int64) (db.MarkupSchema, error) {
	if s.err != nil {
		return db.MarkupSchema{}, s.err
	}
	row := s.active
	row.ID = id
	return row, nil
}

func (s *stubQuerier) ActiveMarkupSchema(_ context.Context) (db.MarkupSchema, error) {
	s.calls++
	if s.err != nil {
		return db.MarkupSchema{}, s.err
	}
	return s.active, nil
}

func (s *stubQuerier) ListMarkupSchemas(_ context.Context) ([]db.MarkupSchema, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []db.MarkupSchema{s.active}, nil
}

func sampleRow() db.MarkupSchema {
	return db.MarkupSchema{
		ID:        3,
		Name:      "default",
		IsActive:  true,
		Rules:     json.RawMessage(sampleRules),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestActiveDecodesRules(t *testing.T) {
	q := &stubQuerier{active: sampleRow()}
	svc := &Service{Q: q}

	schema, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.ID != 3 || !schema.IsActive {
		t.Fatalf("unexpected schema %+v", schema)
	}
	if got := Resolve(schema.Rules, "im", 5); !got.Equal(dec("35")) {
		t.Fatalf("expected 35, got %s", got)
	}
}

func TestActivePropagatesNotFound(t *testing.T) {
	svc := &Service{Q: &stubQuerier{err: db.ErrNotFound}}

	if _, err := svc.Active(context.Background()); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected db.ErrNotFound, got %v", err)
	}
}

func TestActiveRejectsMalformedStoredRules(t *testing.T) {
	row := sampleRow()
	row.Rules = json.RawMessage(`{"im": {"bands": [{"min_qty": 0, "markup_percent": "35"}]}}`)
	svc := &Service{Q: &stubQuerier{active: row}}

	if _, err := svc.Active(context.Background()); !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("expected ErrInvalidRules, got %v", err)
	}
}

func TestCreateValidatesRules(t *testing.T) {
	q := &stubQuerier{}
	svc := &Service{Q: q}

	if _, err := svc.Create(context.Background(), "broken", false, json.RawMessage(`{"im": []}`)); !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("expected ErrInvalidRules, got %v", err)
	}
	if q.inserted != nil {
		t.Fatal("invalid rules must not be stored")
	}
}

func TestCreateInactiveByDefault(t *testing.T) {
	q := &stubQuerier{}
	svc := &Service{Q: q}

	schema, err := svc.Create(context.Background(), "v2", false, json.RawMessage(sampleRules))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.IsActive {
		t.Fatal("schema must not be active unless activation was requested")
	}
	if q.inserted == nil || q.inserted.Name != "v2" {
		t.Fatalf("unexpected insert %+v", q.inserted)
	}
}
