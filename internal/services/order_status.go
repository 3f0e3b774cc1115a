package services

import (
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
)

// orderStateTransitions lists the allowed next states per current state.
// Self-transitions are always legal no-ops and are not listed here.
var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusPaid, domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusPaid:       {domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusCompleted},
	domain.OrderStatusCompleted:  {},
	domain.OrderStatusCancelled:  {},
}

// OrderStatuses returns every valid order status.
func OrderStatuses() []domain.OrderStatus {
	return []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusPaid,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
	}
}

// IsValidOrderStatus reports whether the value is a known lifecycle state.
func IsValidOrderStatus(status domain.OrderStatus) bool {
	_, ok := orderStateTransitions[status]
	return ok
}

// TransitionOrderStatus validates the requested edge against the transition
// table. It returns changed=false when the requested state equals the current
// one; a disallowed edge fails with invalid_order_status.
func TransitionOrderStatus(current, requested domain.OrderStatus) (changed bool, err error) {
	if !IsValidOrderStatus(requested) {
		return false, NewValidationError(CodeInvalidOrderStatus, "unknown order status %q", requested)
	}
	if !IsValidOrderStatus(current) {
		return false, NewValidationError(CodeInvalidOrderStatus, "unknown order status %q", current)
	}
	if current == requested {
		return false, nil
	}
	for _, next := range orderStateTransitions[current] {
		if next == requested {
			return true, nil
		}
	}
	return false, NewValidationError(CodeInvalidOrderStatus, "cannot transition order from %q to %q", current, requested)
}

// ApplyStatusTimestamps stamps the lifecycle timestamps implied by entering
// target. Stamping is idempotent: a timestamp already set is never touched,
// and a jump such as pending to shipped backfills paid_at and shipped_at in
// one step.
func ApplyStatusTimestamps(order *domain.Order, target domain.OrderStatus, now time.Time) {
	switch target {
	case domain.OrderStatusPaid, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusCompleted:
		if order.PaidAt == nil {
			stamp := now
			order.PaidAt = &stamp
		}
	}
	switch target {
	case domain.OrderStatusShipped, domain.OrderStatusCompleted:
		if order.ShippedAt == nil {
			stamp := now
			order.ShippedAt = &stamp
		}
	}
	if target == domain.OrderStatusCompleted && order.CompletedAt == nil {
		stamp := now
		order.CompletedAt = &stamp
	}
	if target == domain.OrderStatusCancelled && order.CancelledAt == nil {
		stamp := now
		order.CancelledAt = &stamp
	}
}
