package services

import (
	"context"
	"strings"

	domain "github.com/shopward/backoffice/internal/domain"
)

// RawOrderItem is one unvalidated order line from a create or replace request.
// Total, when nil, defaults to UnitPrice multiplied by Quantity; a declared
// total is trusted as-is and never recomputed.
type RawOrderItem struct {
	ProductID    string
	SkuID        string
	ProductTitle string
	SkuCode      string
	Quantity     int
	UnitPrice    int64
	Total        *int64
	Metadata     map[string]any
}

// ProductTitleResolver looks up a product title for items that omit one.
// A nil resolver skips the lookup.
type ProductTitleResolver func(ctx context.Context, productID string) (string, bool)

// SanitizeOrderItems validates a batch of order lines in input order. An
// empty batch fails immediately; any per-item violation fails the whole
// batch with no partial output.
func SanitizeOrderItems(ctx context.Context, items []RawOrderItem, resolve ProductTitleResolver) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return nil, NewValidationError(CodeInvalidOrderItems, "order requires at least one item")
	}

	out := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, NewValidationError(CodeInvalidOrderItemQuantity,
				"item at position %d requires quantity > 0, got %d", i, item.Quantity)
		}

		title := strings.TrimSpace(item.ProductTitle)
		if title == "" && resolve != nil && strings.TrimSpace(item.ProductID) != "" {
			if resolved, ok := resolve(ctx, strings.TrimSpace(item.ProductID)); ok {
				title = strings.TrimSpace(resolved)
			}
		}
		if title == "" {
			return nil, NewValidationError(CodeInvalidOrderItemTitle,
				"item at position %d has no product title", i)
		}

		total := item.UnitPrice * int64(item.Quantity)
		if item.Total != nil {
			total = *item.Total
		}

		out = append(out, domain.OrderItem{
			ProductID:    strings.TrimSpace(item.ProductID),
			SkuID:        strings.TrimSpace(item.SkuID),
			ProductTitle: title,
			SkuCode:      strings.TrimSpace(item.SkuCode),
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Total:        total,
			Metadata:     normalizeItemMetadata(item.Metadata),
		})
	}

	return out, nil
}

// normalizeItemMetadata stringifies scalar values and passes nested
// structures through unchanged.
func normalizeItemMetadata(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta))
	for key, value := range meta {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		switch value.(type) {
		case map[string]any, []any, []string, nil:
			out[key] = value
		default:
			out[key] = stringifyScalar(value)
		}
	}
	return out
}
