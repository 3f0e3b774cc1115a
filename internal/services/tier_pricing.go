package services

import (
	"math"
	"sort"

	domain "github.com/shopward/backoffice/internal/domain"
)

// TierPriceInput is the raw, unvalidated form of a volume price tier. Price
// is supplied in major currency units and is converted to minor units during
// validation.
type TierPriceInput struct {
	MinQty int
	MaxQty *int
	Price  float64
	Note   string
}

// ValidateTierPrices validates and normalizes a tier price list for one SKU.
// The returned list is sorted ascending by MinQty with prices rounded to
// whole minor units. An empty input is valid and yields an empty list.
//
// Rules, applied in order: every tier needs MinQty > 0 and a non-negative
// price; MaxQty, when present, must not undercut MinQty; after a stable sort
// by MinQty only the last tier may be open-ended and ranges must not overlap.
// Any violation invalidates the whole list.
func ValidateTierPrices(tiers []TierPriceInput) ([]domain.TierPrice, error) {
	if len(tiers) == 0 {
		return []domain.TierPrice{}, nil
	}

	accepted := make([]domain.TierPrice, 0, len(tiers))
	for _, tier := range tiers {
		if tier.MinQty <= 0 || tier.Price < 0 {
			return nil, NewValidationError(CodeInvalidTierQty,
				"tier requires min_qty > 0 and a non-negative price, got min_qty=%d price=%v", tier.MinQty, tier.Price)
		}
		if tier.MaxQty != nil && *tier.MaxQty < tier.MinQty {
			return nil, NewValidationError(CodeInvalidTierRange,
				"tier max_qty %d is below min_qty %d", *tier.MaxQty, tier.MinQty)
		}
		accepted = append(accepted, domain.TierPrice{
			MinQty: tier.MinQty,
			MaxQty: cloneIntPtr(tier.MaxQty),
			Price:  MinorUnits(tier.Price),
			Note:   tier.Note,
		})
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].MinQty < accepted[j].MinQty
	})

	for i := 1; i < len(accepted); i++ {
		prev := accepted[i-1]
		cur := accepted[i]
		if prev.MaxQty == nil {
			return nil, NewValidationError(CodeInvalidTierLimit,
				"only the last tier may be open-ended; tier starting at %d has no max_qty", prev.MinQty)
		}
		if cur.MinQty <= *prev.MaxQty || cur.MinQty <= prev.MinQty {
			return nil, NewValidationError(CodeInvalidTierOverlap,
				"tier starting at %d overlaps previous tier [%d, %d]", cur.MinQty, prev.MinQty, *prev.MaxQty)
		}
	}

	return accepted, nil
}

// MinorUnits converts a major-unit amount to whole minor units (cents),
// rounding half away from zero. This is the single place fractional input
// becomes fixed point.
func MinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	ref := *v
	return &ref
}
