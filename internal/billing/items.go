package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawLineItem is untrusted line-item input as it arrives from a form or API
// request. Quantity and unit price may be missing, zero, negative, or
// fractional.
type RawLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// LineItem is a well-formed invoice line. Total always equals
// round(Quantity * UnitPrice, 2).
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

var minUnitPrice = decimal.NewFromFloat(0.01)

// SanitizeItems normalizes raw line items into well-formed ones. It never
// fails: malformed values are coerced, not rejected. Input order is preserved
// and becomes the storage and display order.
//
// Per item: the description is trimmed and defaults to "Item N" (1-based),
// the quantity is rounded to the nearest integer and clamped to at least 1,
// and the unit price is rounded to cents and clamped to at least 0.01.
func SanitizeItems(raw []RawLineItem) []LineItem {
	items := make([]LineItem, 0, len(raw))
	for i, r := range raw {
		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			desc = fmt.Sprintf("Item %d", i+1)
		}

		qty := decimal.NewFromFloat(r.Quantity).Round(0).IntPart()
		if qty < 1 {
			qty = 1
		}

		price := decimal.NewFromFloat(r.UnitPrice).Round(2)
		if price.LessThan(minUnitPrice) {
			price = minUnitPrice
		}

		total := price.Mul(decimal.NewFromInt(qty)).Round(2)

		items = append(items, LineItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price.InexactFloat64(),
			Total:       total.InexactFloat64(),
		})
	}
	return items
}
