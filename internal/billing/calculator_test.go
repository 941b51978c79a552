package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateTax(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		value    float64
		typ      AdjustmentType
		want     float64
	}{
		{"zero value", 100, 0, AdjustmentPercentage, 0},
		{"negative value", 100, -5, AdjustmentPercentage, 0},
		{"ten percent", 100, 10, AdjustmentPercentage, 10},
		{"fractional percent rounds to cents", 99.99, 8.25, AdjustmentPercentage, 8.25},
		{"fixed amount verbatim", 100, 12.34, AdjustmentFixed, 12.34},
		{"fixed on small subtotal", 1, 50, AdjustmentFixed, 50},
		{"percentage of zero subtotal", 0, 10, AdjustmentPercentage, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTax(tt.subtotal, tt.value, tt.typ)
			if got != tt.want {
				t.Errorf("CalculateTax(%v, %v, %s) = %v, want %v",
					tt.subtotal, tt.value, tt.typ, got, tt.want)
			}
		})
	}
}

func TestCalculateDiscount(t *testing.T) {
	tests := []struct {
		name  string
		base  float64
		value float64
		typ   AdjustmentType
		want  float64
	}{
		{"zero value", 110, 0, AdjustmentPercentage, 0},
		{"negative value", 110, -10, AdjustmentFixed, 0},
		{"five percent of taxed base", 110, 5, AdjustmentPercentage, 5.50},
		{"fixed amount", 110, 25, AdjustmentFixed, 25},
		{"fixed clamped to base", 110, 500, AdjustmentFixed, 110},
		{"percentage over 100 clamped to base", 110, 250, AdjustmentPercentage, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDiscount(tt.base, tt.value, tt.typ)
			if got != tt.want {
				t.Errorf("CalculateDiscount(%v, %v, %s) = %v, want %v",
					tt.base, tt.value, tt.typ, got, tt.want)
			}
		})
	}
}

func TestCalculateInvoiceTotals_TaxThenDiscount(t *testing.T) {
	// subtotal=100, tax=10% -> 10.00; discount=5% applied to the taxed base
	// 110.00 -> 5.50; total = 100 + 10 - 5.50 = 104.50
	discount := 5.0
	result, err := CalculateInvoiceTotals(TotalsInput{
		Items:         []RawLineItem{{Description: "Consulting", Quantity: 1, UnitPrice: 100}},
		TaxValue:      10,
		TaxType:       AdjustmentPercentage,
		DiscountValue: &discount,
		DiscountType:  AdjustmentPercentage,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Subtotal != 100 {
		t.Errorf("subtotal = %v, want 100", result.Subtotal)
	}
	if result.TaxAmount != 10 {
		t.Errorf("tax = %v, want 10", result.TaxAmount)
	}
	if result.DiscountAmount != 5.50 {
		t.Errorf("discount = %v, want 5.50", result.DiscountAmount)
	}
	if result.Total != 104.50 {
		t.Errorf("total = %v, want 104.50", result.Total)
	}
}

func TestCalculateInvoiceTotals_NoDiscountWhenAbsent(t *testing.T) {
	result, err := CalculateInvoiceTotals(TotalsInput{
		Items:    []RawLineItem{{Description: "Work", Quantity: 2, UnitPrice: 50}},
		TaxValue: 20,
		TaxType:  AdjustmentFixed,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DiscountAmount != 0 {
		t.Errorf("discount = %v, want 0", result.DiscountAmount)
	}
	if result.Total != 120 {
		t.Errorf("total = %v, want 120", result.Total)
	}
}

func TestCalculateInvoiceTotals_SubtotalSumsSanitizedItems(t *testing.T) {
	result, err := CalculateInvoiceTotals(TotalsInput{
		Items: []RawLineItem{
			{Description: "A", Quantity: 3, UnitPrice: 19.99},
			{Description: "B", Quantity: 0, UnitPrice: -1}, // coerced to 1 x 0.01
			{Description: "C", Quantity: 1.5, UnitPrice: 10},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := decimal.Zero
	for _, item := range result.Items {
		sum = sum.Add(decimal.NewFromFloat(item.Total))
	}
	// 59.97 + 0.01 + 20.00
	if result.Subtotal != 79.98 {
		t.Errorf("subtotal = %v, want 79.98", result.Subtotal)
	}
	if want := sum.Round(2).InexactFloat64(); result.Subtotal != want {
		t.Errorf("subtotal %v does not equal item sum %v", result.Subtotal, want)
	}
}

func TestCalculateInvoiceTotals_EmptyItemsRejected(t *testing.T) {
	_, err := CalculateInvoiceTotals(TotalsInput{})
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("expected CalculationError, got %v", err)
	}
	if calcErr.Reason != "subtotal must be greater than zero" {
		t.Errorf("unexpected reason: %q", calcErr.Reason)
	}
}

func TestCalculateInvoiceTotals_DiscountConsumingTotalRejected(t *testing.T) {
	// Discount clamps to the full taxed base, leaving a zero total. The
	// invoice must be rejected rather than stored at zero.
	discount := 1000.0
	_, err := CalculateInvoiceTotals(TotalsInput{
		Items:         []RawLineItem{{Description: "Work", Quantity: 1, UnitPrice: 100}},
		DiscountValue: &discount,
		DiscountType:  AdjustmentFixed,
	})
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("expected CalculationError, got %v", err)
	}
	if calcErr.Reason != "final total must be greater than zero" {
		t.Errorf("unexpected reason: %q", calcErr.Reason)
	}
}

func TestCalculateInvoiceTotals_DiscountNeverExceedsTaxedBase(t *testing.T) {
	for _, value := range []float64{100, 101, 500, 1e9} {
		base := 110.0
		if got := CalculateDiscount(base, value, AdjustmentPercentage); got > base {
			t.Errorf("discount %v%% produced %v, exceeds base %v", value, got, base)
		}
	}
}
