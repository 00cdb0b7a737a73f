package audit

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/noah-isme/backend-quoting/internal/db"
)

type stubStore struct {
	entries []db.InsertAuditLogParams
	listed  []db.AuditLog
}

func (s *stubStore) InsertAuditLog(_ context.Context, arg db.InsertAuditLogParams) (db.AuditLog, error) {
	s.entries = append(s.entries, arg)
	return db.AuditLog{ID: int64(len(s.entries))}, nil
}

func (s *stubStore) ListAuditLogs(_ context.Context, _, _ int32) ([]db.AuditLog, error) {
	return s.listed, nil
}

func TestRecordDisabledIsNoop(t *testing.T) {
	store := &stubStore{}
	svc := Service{Q: store, Enabled: false}

	req := httptest.NewRequest("POST", "/api/v1/markup-schemas", nil)
	if err := svc.Record(context.Background(), "admin", "", "", "", req, 201, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(store.entries))
	}
}

func TestRecordDerivesActionAndResource(t *testing.T) {
	store := &stubStore{}
	svc := Service{Q: store, Enabled: true}

	req := httptest.NewRequest("POST", "/api/v1/markup-schemas/3/activate", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	if err := svc.Record(context.Background(), "", "", "", "3", req, 200, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.Action != "POST /api/v1/markup-schemas/3/activate" {
		t.Fatalf("unexpected action %q", entry.Action)
	}
	if entry.ResourceType != "markup-schemas.3.activate" {
		t.Fatalf("unexpected resource type %q", entry.ResourceType)
	}
	if entry.Actor != "anonymous" {
		t.Fatalf("expected anonymous actor, got %q", entry.Actor)
	}
	if entry.ResourceID == nil || *entry.ResourceID != "3" {
		t.Fatalf("unexpected resource id %v", entry.ResourceID)
	}
	if entry.IP == nil || *entry.IP != "10.1.2.3" {
		t.Fatalf("unexpected ip %v", entry.IP)
	}
}

func TestRecordExplicitFieldsWin(t *testing.T) {
	store := &stubStore{}
	svc := Service{Q: store, Enabled: true}

	req := httptest.NewRequest("POST", "/api/v1/quotes/finalize?debug=1", nil)
	if err := svc.Record(context.Background(), "admin", "quote.finalize", "customer_quote", "", req, 201, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := store.entries[0]
	if entry.Action != "quote.finalize" || entry.ResourceType != "customer_quote" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Actor != "admin" {
		t.Fatalf("unexpected actor %q", entry.Actor)
	}
	if string(entry.Metadata) != `{"query":"debug=1"}` {
		t.Fatalf("unexpected metadata %s", entry.Metadata)
	}
}
