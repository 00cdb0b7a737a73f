package pricing

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Item describes a line item used for subtotal calculation.
type Item struct {
	Description string
	Qty         int
	UnitCost    decimal.Decimal
}

// Summary aggregates computed pricing components. Every monetary field is
// rounded to two decimal places independently before the total is formed.
type Summary struct {
	Subtotal     decimal.Decimal
	MarkupPct    decimal.Decimal
	BeforeExtras decimal.Decimal
	Fees         decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// Round2 rounds a monetary value to two fractional digits, half up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Subtotal sums qty * unit_cost over the items, rounding once after summation.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return Round2(sum)
}

// CustomerPrice applies a markup percentage to a base cost:
// base * (1 + pct/100), rounded to cents. Negative inputs pass through
// unchecked; validation belongs to the caller.
func CustomerPrice(baseCost, markupPct decimal.Decimal) decimal.Decimal {
	total := baseCost.Mul(decimal.NewFromInt(1).Add(markupPct.Div(oneHundred)))
	return Round2(total)
}

// Compute assembles the full pricing summary from a subtotal and the extras.
func Compute(subtotal, markupPct, fees, tax decimal.Decimal) Summary {
	beforeExtras := CustomerPrice(subtotal, markupPct)
	fees = Round2(fees)
	tax = Round2(tax)
	total := Round2(beforeExtras.Add(fees).Add(tax))
	return Summary{
		Subtotal:     subtotal,
		MarkupPct:    markupPct,
		BeforeExtras: beforeExtras,
		Fees:         fees,
		Tax:          tax,
		Total:        total,
	}
}
