package billing

import (
	"github.com/shopspring/decimal"
)

// AdjustmentType selects how a tax or discount value is interpreted.
type AdjustmentType string

const (
	AdjustmentPercentage AdjustmentType = "PERCENTAGE"
	AdjustmentFixed      AdjustmentType = "FIXED"
)

// CalculationError reports a totals calculation that produced a non-positive
// subtotal or final total. It aborts the whole invoice-creation attempt.
type CalculationError struct {
	Reason string
}

func (e *CalculationError) Error() string {
	return e.Reason
}

// TotalsInput is everything the calculator needs to derive invoice totals.
// Discount is optional; a nil DiscountValue means no discount at all.
type TotalsInput struct {
	Items         []RawLineItem
	TaxValue      float64
	TaxType       AdjustmentType
	DiscountValue *float64
	DiscountType  AdjustmentType
}

// CalculationResult is the fully derived, persistence-ready financial state
// of an invoice. Totals are snapshots: once stored they are never recomputed.
type CalculationResult struct {
	Items          []LineItem
	Subtotal       float64
	TaxAmount      float64
	DiscountAmount float64
	Total          float64
}

// CalculateTax computes the tax amount on a subtotal. Non-positive tax
// values yield zero. A percentage is applied to the subtotal; a fixed value
// is taken verbatim. The result is floored at zero and rounded to cents.
func CalculateTax(subtotal, taxValue float64, taxType AdjustmentType) float64 {
	if taxValue <= 0 {
		return 0
	}

	var tax decimal.Decimal
	switch taxType {
	case AdjustmentPercentage:
		tax = decimal.NewFromFloat(subtotal).
			Mul(decimal.NewFromFloat(taxValue)).
			Div(decimal.NewFromInt(100))
	default:
		tax = decimal.NewFromFloat(taxValue)
	}

	if tax.IsNegative() {
		return 0
	}
	return tax.Round(2).InexactFloat64()
}

// CalculateDiscount computes the discount against a tax-inclusive base
// (subtotal + tax); discounts apply after tax, not before. The result is
// clamped to [0, base] so a discount can never push the total negative.
func CalculateDiscount(baseAmount, discountValue float64, discountType AdjustmentType) float64 {
	if discountValue <= 0 {
		return 0
	}

	base := decimal.NewFromFloat(baseAmount)
	var discount decimal.Decimal
	switch discountType {
	case AdjustmentPercentage:
		discount = base.
			Mul(decimal.NewFromFloat(discountValue)).
			Div(decimal.NewFromInt(100))
	default:
		discount = decimal.NewFromFloat(discountValue)
	}

	if discount.IsNegative() {
		return 0
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	return discount.Round(2).InexactFloat64()
}

// CalculateInvoiceTotals runs the full pipeline: sanitize items, sum the
// subtotal, apply tax, then apply the optional discount on the taxed base.
// It returns a CalculationError when the subtotal or the final total is not
// positive; both conditions are fatal for the invoice-creation request.
func CalculateInvoiceTotals(in TotalsInput) (*CalculationResult, error) {
	items := SanitizeItems(in.Items)

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}
	subtotal = subtotal.Round(2)

	if !subtotal.IsPositive() {
		return nil, &CalculationError{Reason: "subtotal must be greater than zero"}
	}

	tax := CalculateTax(subtotal.InexactFloat64(), in.TaxValue, in.TaxType)

	var discount float64
	if in.DiscountValue != nil {
		base := subtotal.Add(decimal.NewFromFloat(tax)).InexactFloat64()
		discount = CalculateDiscount(base, *in.DiscountValue, in.DiscountType)
	}

	total := subtotal.
		Add(decimal.NewFromFloat(tax)).
		Sub(decimal.NewFromFloat(discount)).
		Round(2)

	if !total.IsPositive() {
		return nil, &CalculationError{Reason: "final total must be greater than zero"}
	}

	return &CalculationResult{
		Items:          items,
		Subtotal:       subtotal.InexactFloat64(),
		TaxAmount:      tax,
		DiscountAmount: discount,
		Total:          total.InexactFloat64(),
	}, nil
}
