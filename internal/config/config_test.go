package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	if _, err := LoadForTests(map[string]string{"DATABASE_URL": ""}); err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":             "postgres://localhost/quoting",
		"PORT":                     "",
		"APP_ENV":                  "",
		"QUOTING_DEFAULT_CATEGORY": "",
		"SCHEMA_CACHE_TTL":         "",
		"QUOTE_NUMBER_RETRIES":     "",
		"MIGRATE_ON_START":         "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("expected development env, got %s", cfg.AppEnv)
	}
	if cfg.DefaultCategory != "im" {
		t.Fatalf("expected default category im, got %s", cfg.DefaultCategory)
	}
	if cfg.SchemaCacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %s", cfg.SchemaCacheTTL)
	}
	if cfg.QuoteNumberRetries != 3 {
		t.Fatalf("expected 3 retries, got %d", cfg.QuoteNumberRetries)
	}
	if !cfg.MigrateOnStart {
		t.Fatal("expected migrations enabled by default")
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddr())
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/quoting",
		"PORT":                 "9001",
		"QUOTE_NUMBER_RETRIES": "5",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr() != ":9001" {
		t.Fatalf("expected :9001, got %s", cfg.HTTPAddr())
	}
	if cfg.QuoteNumberRetries != 5 {
		t.Fatalf("expected 5 retries, got %d", cfg.QuoteNumberRetries)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}
