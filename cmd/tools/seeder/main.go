package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quoting/internal/config"
	"github.com/noah-isme/backend-quoting/internal/db"
	"github.com/noah-isme/backend-quoting/internal/markup"
)

const defaultRules = `{
	"im": {"bands": [
		{"min_qty": 1, "max_qty": 10, "markup_percent": "35"},
		{"min_qty": 11, "max_qty": 100, "markup_percent": "28"},
		{"min_qty": 101, "markup_percent": "22"}
	]},
	"pcba": {"bands": [
		{"min_qty": 1, "max_qty": 50, "markup_percent": "40"},
		{"min_qty": 51, "markup_percent": "30"}
	]},
	"design": {"bands": [
		{"min_qty": 1, "markup_percent": "50"}
	]}
}`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, "quoting-seeder")
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	store := db.New(pool)

	seedUsers(ctx, store)
	seedMarkupSchema(ctx, store)
	seedSampleProject(ctx, store)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, store *db.Store) {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Admin User", "admin@quoting.local", "admin"},
		{"Sales One", "sales1@quoting.local", "sales"},
		{"Sales Two", "sales2@quoting.local", "sales"},
		{"Engineer One", "eng1@quoting.local", "engineer"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		if _, err := store.UpsertUser(ctx, u.Email, u.Name, u.Role); err != nil {
			log.Fatalf("seed user %s: %v", u.Email, err)
		}
	}
}

func seedMarkupSchema(ctx context.Context, store *db.Store) {
	fmt.Println("Seeding Markup Schema...")

	raw := json.RawMessage(defaultRules)
	if _, err := markup.ParseRules(raw); err != nil {
		log.Fatalf("default rules invalid: %v", err)
	}
	row, err := store.UpsertMarkupSchemaByName(ctx, "default", raw)
	if err != nil {
		log.Fatalf("seed markup schema: %v", err)
	}
	if !row.IsActive {
		if err := store.DeactivateMarkupSchemas(ctx); err != nil {
			log.Fatalf("deactivate schemas: %v", err)
		}
		if _, err := store.ActivateMarkupSchema(ctx, row.ID); err != nil {
			log.Fatalf("activate default schema: %v", err)
		}
	}
}

func seedSampleProject(ctx context.Context, store *db.Store) {
	fmt.Println("Seeding Sample Project...")

	const name = "Smart Sensor Rev A"
	if _, err := store.GetProjectByName(ctx, name); err == nil {
		log.Printf("project %q already present, skipping", name)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Fatalf("check project: %v", err)
	}

	client := "Acme Devices"
	proj, err := store.InsertProject(ctx, db.InsertProjectParams{
		Name:        name,
		ClientName:  &client,
		ServiceType: "im",
		Status:      "active",
		Intake:      json.RawMessage(`{"description": "injection moulded sensor housing"}`),
	})
	if err != nil {
		log.Fatalf("seed project: %v", err)
	}

	rfqRow, err := store.InsertRFQ(ctx, db.InsertRFQParams{
		ProjectID:    proj.ID,
		Requirements: json.RawMessage(`{"material": "ABS", "finish": "matte", "qty": [100, 500, 1000]}`),
		Status:       "open",
	})
	if err != nil {
		log.Fatalf("seed rfq: %v", err)
	}

	tooling := decimal.RequireFromString("4500.00")
	unit := decimal.RequireFromString("2.15")
	moq := int32(100)
	lead := int32(30)
	if _, err := store.InsertSupplierQuote(ctx, db.InsertSupplierQuoteParams{
		RFQID:        rfqRow.ID,
		SupplierName: "Shenzhen Moulding Co",
		Currency:     "USD",
		ToolingCost:  &tooling,
		UnitPrice:    &unit,
		MOQ:          &moq,
		LeadTimeDays: &lead,
		Status:       "received",
	}); err != nil {
		log.Fatalf("seed supplier quote: %v", err)
	}
}
