package services

import (
	"errors"
	"reflect"
	"testing"
)

func TestSanitizeSkusDefaultsAndOrdering(t *testing.T) {
	defaults := PriceDefaults{PriceRegular: 1000, PriceSale: 900, StockQty: 5}

	skus, err := SanitizeSkus([]RawSku{
		{SkuCode: " B-2 ", SortOrder: intPtr(5)},
		{SkuCode: "A-1", PriceRegular: 2500},
	}, defaults)
	if err != nil {
		t.Fatalf("SanitizeSkus() error = %v", err)
	}
	if len(skus) != 2 {
		t.Fatalf("expected 2 skus, got %d", len(skus))
	}

	// Explicit sort order 5 beats the positional default (i+1)*10.
	if skus[0].SkuCode != "B-2" {
		t.Fatalf("expected B-2 first by sort order, got %s", skus[0].SkuCode)
	}
	if skus[0].PriceRegular != 1000 || skus[0].PriceSale != 900 {
		t.Fatalf("expected defaulted prices, got regular=%d sale=%d", skus[0].PriceRegular, skus[0].PriceSale)
	}
	if skus[0].StockQty != 5 {
		t.Fatalf("expected defaulted stock 5, got %d", skus[0].StockQty)
	}

	if skus[1].SkuCode != "A-1" {
		t.Fatalf("expected A-1 second, got %s", skus[1].SkuCode)
	}
	if skus[1].PriceRegular != 2500 {
		t.Fatalf("expected explicit regular price kept, got %d", skus[1].PriceRegular)
	}
	if skus[1].PriceSale != 900 {
		t.Fatalf("expected sale price from defaults, got %d", skus[1].PriceSale)
	}
	if skus[1].SortOrder != 20 {
		t.Fatalf("expected positional sort order 20, got %d", skus[1].SortOrder)
	}
}

func TestSanitizeSkusSaleFallsBackToRegular(t *testing.T) {
	skus, err := SanitizeSkus([]RawSku{{SkuCode: "X", PriceRegular: 1200}}, PriceDefaults{})
	if err != nil {
		t.Fatalf("SanitizeSkus() error = %v", err)
	}
	if skus[0].PriceSale != 1200 {
		t.Fatalf("expected sale price to fall back to regular, got %d", skus[0].PriceSale)
	}
}

func TestSanitizeSkusStockClamp(t *testing.T) {
	negative := -3
	skus, err := SanitizeSkus([]RawSku{{SkuCode: "X", StockQty: &negative}}, PriceDefaults{PriceRegular: 100})
	if err != nil {
		t.Fatalf("SanitizeSkus() error = %v", err)
	}
	if skus[0].StockQty != 0 {
		t.Fatalf("expected negative stock clamped to 0, got %d", skus[0].StockQty)
	}
}

func TestSanitizeSkusRejections(t *testing.T) {
	cases := []struct {
		name     string
		input    []RawSku
		wantCode string
	}{
		{
			name:     "blank code",
			input:    []RawSku{{SkuCode: "   "}},
			wantCode: CodeInvalidSkuCode,
		},
		{
			name:     "duplicate code after trim",
			input:    []RawSku{{SkuCode: "A-1"}, {SkuCode: " A-1 "}},
			wantCode: CodeDuplicateSkuCode,
		},
		{
			name: "tier validation bubbles with sku context",
			input: []RawSku{{
				SkuCode:    "A-1",
				TierPrices: []TierPriceInput{{MinQty: 0, Price: 5}},
			}},
			wantCode: CodeInvalidTierQty,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SanitizeSkus(tc.input, PriceDefaults{PriceRegular: 100})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Code() != tc.wantCode {
				t.Fatalf("code = %s, want %s", verr.Code(), tc.wantCode)
			}
		})
	}
}

func TestSanitizeSkusNearDuplicateCodesAllowed(t *testing.T) {
	// Exact-match duplicate detection only; case variants are distinct codes.
	skus, err := SanitizeSkus([]RawSku{{SkuCode: "a-1"}, {SkuCode: "A-1"}}, PriceDefaults{PriceRegular: 100})
	if err != nil {
		t.Fatalf("SanitizeSkus() error = %v", err)
	}
	if len(skus) != 2 {
		t.Fatalf("expected both case variants kept, got %d", len(skus))
	}
}

func TestSanitizeSkusAttributeNormalization(t *testing.T) {
	skus, err := SanitizeSkus([]RawSku{{
		SkuCode: "A-1",
		Attributes: map[string]any{
			"color":  " red ",
			"sizes":  []any{"S", 42},
			"nested": map[string]any{"grade": "x"},
			"weight": 1.5,
		},
	}}, PriceDefaults{PriceRegular: 100})
	if err != nil {
		t.Fatalf("SanitizeSkus() error = %v", err)
	}

	attrs := skus[0].Attributes
	if attrs["color"] != "red" {
		t.Errorf("color = %v, want trimmed string", attrs["color"])
	}
	if !reflect.DeepEqual(attrs["sizes"], []string{"S", "42"}) {
		t.Errorf("sizes = %v, want stringified list", attrs["sizes"])
	}
	if !reflect.DeepEqual(attrs["nested"], map[string]any{"grade": "x"}) {
		t.Errorf("nested = %v, want passthrough", attrs["nested"])
	}
	if attrs["weight"] != "1.5" {
		t.Errorf("weight = %v, want stringified scalar", attrs["weight"])
	}
}
