package pricing

import (
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

func TestCustomerPrice(t *testing.T) {
	cases := []struct {
		name string
		base string
		pct  string
		want string
	}{
		{"zero markup", "100.00", "0", "100.00"},
		{"rounds half up", "1234.56", "35", "1666.66"},
		{"band markup", "1234.56", "22", "1506.16"},
		{"fractional percent", "10.00", "12.5", "11.25"},
		{"zero base", "0", "35", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CustomerPrice(dec(tc.base), dec(tc.pct))
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("CustomerPrice(%s, %s) = %s, want %s", tc.base, tc.pct, got, tc.want)
			}
		})
	}
}

func TestSubtotal(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitCost: dec("10.00")},
		{Qty: 3, UnitCost: dec("5.00")},
	}
	got := Subtotal(items)
	if !got.Equal(dec("35.00")) {
		t.Fatalf("expected subtotal 35.00, got %s", got)
	}
}

func TestSubtotalRoundsAfterSummation(t *testing.T) {
	// Each term carries sub-cent precision; only the sum is rounded.
	items := []Item{
		{Qty: 3, UnitCost: dec("0.333")},
		{Qty: 1, UnitCost: dec("0.004")},
	}
	got := Subtotal(items)
	if !got.Equal(dec("1.00")) {
		t.Fatalf("expected subtotal 1.00, got %s", got)
	}
}

func TestComputeIndependentRounding(t *testing.T) {
	summary := Compute(dec("1234.56"), dec("22"), dec("25.00"), dec("0.00"))
	if !summary.BeforeExtras.Equal(dec("1506.16")) {
		t.Fatalf("expected before_extras 1506.16, got %s", summary.BeforeExtras)
	}
	if !summary.Total.Equal(dec("1531.16")) {
		t.Fatalf("expected total 1531.16, got %s", summary.Total)
	}
}

func TestComputeNegativePassesThrough(t *testing.T) {
	summary := Compute(dec("-10.00"), dec("50"), dec("0"), dec("0"))
	if !summary.BeforeExtras.Equal(dec("-15.00")) {
		t.Fatalf("expected before_extras -15.00, got %s", summary.BeforeExtras)
	}
}
