package markup

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(v int) *int { return &v }

const sampleRules = `{
	"im": {"bands": [
		{"min_qty": 1, "max_qty": 10, "markup_percent": "35"},
		{"min_qty": 11, "max_qty": 100, "markup_percent": "28"},
		{"min_qty": 101, "markup_percent": "22"}
	]},
	"pcba": {"bands": [
		{"min_qty": 1, "markup_percent": "40"}
	]}
}`

func TestParseRules(t *testing.T) {
	rules, err := ParseRules(json.RawMessage(sampleRules))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules["im"].Bands) != 3 {
		t.Fatalf("expected 3 im bands, got %d", len(rules["im"].Bands))
	}
	if rules["im"].Bands[2].MaxQty != nil {
		t.Fatal("expected open-ended final band")
	}
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty document", ""},
		{"not json", "{nope"},
		{"zero min_qty", `{"im": {"bands": [{"min_qty": 0, "markup_percent": "10"}]}}`},
		{"max below min", `{"im": {"bands": [{"min_qty": 10, "max_qty": 5, "markup_percent": "10"}]}}`},
		{"negative percent", `{"im": {"bands": [{"min_qty": 1, "markup_percent": "-5"}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRules(json.RawMessage(tc.raw)); !errors.Is(err, ErrInvalidRules) {
				t.Fatalf("expected ErrInvalidRules, got %v", err)
			}
		})
	}
}

func TestParseRulesAllowsOverlap(t *testing.T) {
	raw := `{"im": {"bands": [
		{"min_qty": 1, "max_qty": 50, "markup_percent": "35"},
		{"min_qty": 25, "max_qty": 100, "markup_percent": "28"}
	]}}`
	if _, err := ParseRules(json.RawMessage(raw)); err != nil {
		t.Fatalf("overlapping bands must parse, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	rules, err := ParseRules(json.RawMessage(sampleRules))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []struct {
		name     string
		category string
		qty      int
		want     string
	}{
		{"first band lower edge", "im", 1, "35"},
		{"first band upper edge", "im", 10, "35"},
		{"second band", "im", 50, "28"},
		{"open-ended band", "im", 5000, "22"},
		{"other category", "pcba", 1, "40"},
		{"unknown category", "design", 10, "0"},
		{"qty below every band", "im", 0, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(rules, tc.category, tc.qty)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("Resolve(%s, %d) = %s, want %s", tc.category, tc.qty, got, tc.want)
			}
		})
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	rules := Rules{"im": {Bands: []Band{
		{MinQty: 1, MaxQty: intPtr(50), MarkupPercent: dec("35")},
		{MinQty: 25, MaxQty: intPtr(100), MarkupPercent: dec("28")},
	}}}
	if got := Resolve(rules, "im", 30); !got.Equal(dec("35")) {
		t.Fatalf("expected first matching band 35, got %s", got)
	}
}
