package markup

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Band maps an inclusive quantity range to a markup percentage. A nil MaxQty
// means the band has no upper bound.
type Band struct {
	MinQty        int             `json:"min_qty"`
	MaxQty        *int            `json:"max_qty"`
	MarkupPercent decimal.Decimal `json:"markup_percent"`
}

// CategoryRules holds the ordered band list for one category.
type CategoryRules struct {
	Bands []Band `json:"bands"`
}

// Rules maps a category name ("im", "pcba", "design", ...) to its bands.
type Rules map[string]CategoryRules

// ErrInvalidRules is wrapped by every validation failure in ParseRules.
var ErrInvalidRules = errors.New("invalid markup rules")

// ParseRules decodes and validates a rules document. Overlapping bands are
// deliberately allowed: resolution takes the first match in stored order.
func ParseRules(raw json.RawMessage) (Rules, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRules)
	}
	var rules Rules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	for category, cr := range rules {
		if category == "" {
			return nil, fmt.Errorf("%w: empty category name", ErrInvalidRules)
		}
		for i, band := range cr.Bands {
			if band.MinQty < 1 {
				return nil, fmt.Errorf("%w: %s band %d: min_qty must be >= 1", ErrInvalidRules, category, i)
			}
			if band.MaxQty != nil && *band.MaxQty < band.MinQty {
				return nil, fmt.Errorf("%w: %s band %d: max_qty below min_qty", ErrInvalidRules, category, i)
			}
			if band.MarkupPercent.IsNegative() {
				return nil, fmt.Errorf("%w: %s band %d: negative markup_percent", ErrInvalidRules, category, i)
			}
		}
	}
	return rules, nil
}

// Resolve returns the markup percentage for the first band containing qty, or
// zero when the category is unknown or no band matches.
func Resolve(rules Rules, category string, qty int) decimal.Decimal {
	cr, ok := rules[category]
	if !ok {
		return decimal.Zero
	}
	for _, band := range cr.Bands {
		if qty < band.MinQty {
			continue
		}
		if band.MaxQty != nil && qty > *band.MaxQty {
			continue
		}
		return band.MarkupPercent
	}
	return decimal.Zero
}
