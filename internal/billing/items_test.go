package billing

import (
	"fmt"
	"math"
	"testing"
)

func TestSanitizeItems_Coercion(t *testing.T) {
	tests := []struct {
		name string
		in   RawLineItem
		want LineItem
	}{
		{
			name: "well formed item passes through",
			in:   RawLineItem{Description: "Design work", Quantity: 3, UnitPrice: 120.50},
			want: LineItem{Description: "Design work", Quantity: 3, UnitPrice: 120.50, Total: 361.50},
		},
		{
			name: "empty description defaults to positional name",
			in:   RawLineItem{Description: "", Quantity: 1, UnitPrice: 10},
			want: LineItem{Description: "Item 1", Quantity: 1, UnitPrice: 10, Total: 10},
		},
		{
			name: "whitespace description is treated as empty",
			in:   RawLineItem{Description: "   ", Quantity: 2, UnitPrice: 5},
			want: LineItem{Description: "Item 1", Quantity: 2, UnitPrice: 5, Total: 10},
		},
		{
			name: "zero quantity and negative price are clamped",
			in:   RawLineItem{Description: "", Quantity: 0, UnitPrice: -5},
			want: LineItem{Description: "Item 1", Quantity: 1, UnitPrice: 0.01, Total: 0.01},
		},
		{
			name: "fractional quantity rounds to nearest integer",
			in:   RawLineItem{Description: "Hours", Quantity: 2.5, UnitPrice: 80},
			want: LineItem{Description: "Hours", Quantity: 3, UnitPrice: 80, Total: 240},
		},
		{
			name: "quantity below one rounds then clamps",
			in:   RawLineItem{Description: "Sliver", Quantity: 0.4, UnitPrice: 9.99},
			want: LineItem{Description: "Sliver", Quantity: 1, UnitPrice: 9.99, Total: 9.99},
		},
		{
			name: "negative quantity clamps to one",
			in:   RawLineItem{Description: "Oops", Quantity: -4, UnitPrice: 25},
			want: LineItem{Description: "Oops", Quantity: 1, UnitPrice: 25, Total: 25},
		},
		{
			name: "unit price rounds to cents",
			in:   RawLineItem{Description: "Metered", Quantity: 7, UnitPrice: 1.005},
			want: LineItem{Description: "Metered", Quantity: 7, UnitPrice: 1.01, Total: 7.07},
		},
		{
			name: "zero price clamps to one cent",
			in:   RawLineItem{Description: "Freebie", Quantity: 10, UnitPrice: 0},
			want: LineItem{Description: "Freebie", Quantity: 10, UnitPrice: 0.01, Total: 0.10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeItems([]RawLineItem{tt.in})
			if len(got) != 1 {
				t.Fatalf("expected 1 item, got %d", len(got))
			}
			if got[0] != tt.want {
				t.Errorf("sanitized = %+v, want %+v", got[0], tt.want)
			}
		})
	}
}

func TestSanitizeItems_OrderAndIndexing(t *testing.T) {
	raw := []RawLineItem{
		{Description: "", Quantity: 1, UnitPrice: 1},
		{Description: "Named", Quantity: 1, UnitPrice: 2},
		{Description: " ", Quantity: 1, UnitPrice: 3},
	}

	got := SanitizeItems(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].Description != "Item 1" {
		t.Errorf("first description = %q, want %q", got[0].Description, "Item 1")
	}
	if got[1].Description != "Named" {
		t.Errorf("second description = %q, want %q", got[1].Description, "Named")
	}
	// Default names use the input position, not a counter of blanks
	if got[2].Description != "Item 3" {
		t.Errorf("third description = %q, want %q", got[2].Description, "Item 3")
	}
	if got[0].UnitPrice != 1 || got[1].UnitPrice != 2 || got[2].UnitPrice != 3 {
		t.Errorf("input order not preserved: %+v", got)
	}
}

func TestSanitizeItems_InvariantsHold(t *testing.T) {
	// A grid of hostile inputs; sanitize must never reject and every output
	// must satisfy quantity >= 1, unitPrice >= 0.01, total == round(q*p, 2).
	values := []float64{-100, -1, -0.5, 0, 0.01, 0.4, 0.5, 1, 2.5, 3, 99.999, 1e6}

	var raw []RawLineItem
	for _, q := range values {
		for _, p := range values {
			raw = append(raw, RawLineItem{Quantity: q, UnitPrice: p})
		}
	}

	for i, item := range SanitizeItems(raw) {
		if item.Quantity < 1 {
			t.Errorf("item %d: quantity %d < 1", i, item.Quantity)
		}
		if item.UnitPrice < 0.01 {
			t.Errorf("item %d: unit price %v < 0.01", i, item.UnitPrice)
		}
		want := math.Round(float64(item.Quantity)*item.UnitPrice*100) / 100
		if diff := math.Abs(item.Total - want); diff > 1e-9 {
			t.Errorf("item %d: total %v, want round(%d*%v, 2) = %v",
				i, item.Total, item.Quantity, item.UnitPrice, want)
		}
		if item.Description == "" {
			t.Errorf("item %d: empty description", i)
		}
	}
}

func TestSanitizeItems_Empty(t *testing.T) {
	if got := SanitizeItems(nil); len(got) != 0 {
		t.Errorf("expected empty result for nil input, got %v", got)
	}
}

func ExampleSanitizeItems() {
	items := SanitizeItems([]RawLineItem{
		{Description: "", Quantity: 0, UnitPrice: -5},
	})
	fmt.Printf("%s qty=%d price=%.2f total=%.2f\n",
		items[0].Description, items[0].Quantity, items[0].UnitPrice, items[0].Total)
	// Output: Item 1 qty=1 price=0.01 total=0.01
}
