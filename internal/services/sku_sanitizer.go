package services

import (
	"fmt"
	"sort"
	"strings"

	domain "github.com/shopward/backoffice/internal/domain"
)

// RawSku is one unvalidated SKU entry from a bulk import or product write.
// Prices are in minor units; zero or negative values fall back to defaults.
type RawSku struct {
	SkuCode      string
	Attributes   map[string]any
	PriceRegular int64
	PriceSale    int64
	PriceMember  int64
	StockQty     *int
	TierPrices   []TierPriceInput
	WeightGrams  *int
	Barcode      string
	SortOrder    *int
}

// PriceDefaults supplies fallback values applied when a SKU entry omits them.
type PriceDefaults struct {
	PriceRegular int64
	PriceSale    int64
	StockQty     int
}

// SanitizeSkus validates a batch of SKU entries in input order and returns
// the normalized set sorted by sort order. Any failure short-circuits the
// whole batch; nothing is partially accepted.
func SanitizeSkus(raw []RawSku, defaults PriceDefaults) ([]domain.ProductSku, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.ProductSku, 0, len(raw))

	for i, entry := range raw {
		code := strings.TrimSpace(entry.SkuCode)
		if code == "" {
			return nil, NewValidationError(CodeInvalidSkuCode, "sku at position %d has no sku_code", i)
		}
		if _, dup := seen[code]; dup {
			return nil, NewValidationError(CodeDuplicateSkuCode, "sku_code %q appears more than once", code)
		}
		seen[code] = struct{}{}

		priceRegular := entry.PriceRegular
		if priceRegular <= 0 {
			priceRegular = defaults.PriceRegular
		}
		priceSale := entry.PriceSale
		if priceSale <= 0 {
			priceSale = defaults.PriceSale
		}
		if priceSale <= 0 {
			priceSale = priceRegular
		}

		stock := defaults.StockQty
		if entry.StockQty != nil {
			stock = *entry.StockQty
		}
		if stock < 0 {
			stock = 0
		}

		tiers, err := ValidateTierPrices(entry.TierPrices)
		if err != nil {
			if verr, ok := err.(*ValidationError); ok {
				return nil, NewValidationError(verr.ErrCode, "sku %q: %s", code, verr.Message)
			}
			return nil, err
		}

		sortOrder := (i + 1) * 10
		if entry.SortOrder != nil {
			sortOrder = *entry.SortOrder
		}

		out = append(out, domain.ProductSku{
			SkuCode:      code,
			Attributes:   normalizeAttributes(entry.Attributes),
			PriceRegular: priceRegular,
			PriceSale:    priceSale,
			PriceMember:  entry.PriceMember,
			StockQty:     stock,
			TierPrices:   tiers,
			WeightGrams:  cloneIntPtr(entry.WeightGrams),
			Barcode:      strings.TrimSpace(entry.Barcode),
			SortOrder:    sortOrder,
		})
	}

	// Stable sort keeps input order for equal sort_order values.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})

	return out, nil
}

// normalizeAttributes coerces attribute values into strings or string lists.
// Nested maps are passed through unchanged as opaque values.
func normalizeAttributes(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		switch v := value.(type) {
		case string:
			out[key] = strings.TrimSpace(v)
		case []string:
			list := make([]string, len(v))
			for i, item := range v {
				list[i] = strings.TrimSpace(item)
			}
			out[key] = list
		case []any:
			list := make([]string, len(v))
			for i, item := range v {
				list[i] = stringifyScalar(item)
			}
			out[key] = list
		case map[string]any:
			out[key] = v
		default:
			out[key] = stringifyScalar(v)
		}
	}
	return out
}

func stringifyScalar(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
