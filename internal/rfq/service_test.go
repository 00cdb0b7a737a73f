package rfq

import (
	"context"
	"errors"
	"testing"

	"github.com/noah-isme/backend-quoting/internal/db"
)

type stubQuerier struct {
	rfqs           map[int64]db.RFQ
	insertedRFQ    *db.InsertRFQParams
	insertedSupply *db.InsertSupplierQuoteParams
}

func (s *stubQuerier) InsertRFQ(_ context.Context, arg db.InsertRFQParams) (db.RFQ, error) {
	s.insertedRFQ = &arg
	return db.RFQ{ID: 1, ProjectID: arg.ProjectID, Requirements: arg.Requirements, Status: arg.Status, DueDate: arg.DueDate}, nil
}

func (s *stubQuerier) GetRFQ(_ context.Context, id int64) (db.RFQ, error) {
	row, ok := s.rfqs[id]
	if !ok {
		return db.RFQ{}, db.ErrNotFound
	}
	return row, nil
}

func (s *stubQuerier) ListRFQs(_ context.Context, _ *int64, _, _ int32) ([]db.RFQ, error) {
	return nil, nil
}

func (s *stubQuerier) InsertSupplierQuote(_ context.Context, arg db.InsertSupplierQuoteParams) (db.SupplierQuote, error) {
	s.insertedSupply = &arg
	return db.SupplierQuote{ID: 1, RFQID: arg.RFQID, SupplierName: arg.SupplierName, Currency: arg.Currency, Status: arg.Status}, nil
}

func (s *stubQuerier) GetSupplierQuote(_ context.Context, _ int64) (db.SupplierQuote, error) {
	return db.SupplierQuote{}, db.ErrNotFound
}

func (s *stubQuerier) ListSupplierQuotesByRFQ(_ context.Context, _ int64) ([]db.SupplierQuote, error) {
	return nil, nil
}

func TestCreateAppliesDefaults(t *testing.T) {
	q := &stubQuerier{}
	svc := &Service{Q: q}

	dto, err := svc.Create(context.Background(), CreateRequest{ProjectID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != "open" {
		t.Fatalf("expected default status open, got %s", dto.Status)
	}
	if string(q.insertedRFQ.Requirements) != "{}" {
		t.Fatalf("expected empty requirements object, got %s", q.insertedRFQ.Requirements)
	}
}

func TestCreateParsesDueDate(t *testing.T) {
	q := &stubQuerier{}
	svc := &Service{Q: q}

	due := "2025-12-01"
	dto, err := svc.Create(context.Background(), CreateRequest{ProjectID: 7, DueDate: &due})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.DueDate == nil || *dto.DueDate != due {
		t.Fatalf("unexpected due date %v", dto.DueDate)
	}
}

func TestCreateRejectsBadDueDate(t *testing.T) {
	svc := &Service{Q: &stubQuerier{}}

	due := "01/12/2025"
	if _, err := svc.Create(context.Background(), CreateRequest{ProjectID: 7, DueDate: &due}); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
}

func TestAddSupplierQuoteRequiresRFQ(t *testing.T) {
	svc := &Service{Q: &stubQuerier{rfqs: map[int64]db.RFQ{}}}

	_, err := svc.AddSupplierQuote(context.Background(), 9, CreateSupplierQuoteRequest{SupplierName: "Acme"})
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected db.ErrNotFound, got %v", err)
	}
}

func TestAddSupplierQuoteDefaults(t *testing.T) {
	q := &stubQuerier{rfqs: map[int64]db.RFQ{5: {ID: 5}}}
	svc := &Service{Q: q}

	dto, err := svc.AddSupplierQuote(context.Background(), 5, CreateSupplierQuoteRequest{SupplierName: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Currency != "USD" || dto.Status != "received" {
		t.Fatalf("unexpected defaults: %+v", dto)
	}
	if q.insertedSupply.RFQID != 5 {
		t.Fatalf("expected rfq id 5, got %d", q.insertedSupply.RFQID)
	}
}
