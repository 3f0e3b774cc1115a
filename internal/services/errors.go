package services

import "fmt"

// Stable error codes surfaced to REST callers. Callers and tests match on
// these strings, never on message text.
const (
	CodeInvalidTierQty     = "invalid_tier_qty"
	CodeInvalidTierRange   = "invalid_tier_range"
	CodeInvalidTierLimit   = "invalid_tier_limit"
	CodeInvalidTierOverlap = "invalid_tier_overlap"

	CodeInvalidSkuCode   = "invalid_sku_code"
	CodeDuplicateSkuCode = "duplicate_sku_code"

	CodeInvalidOrderItems        = "invalid_order_items"
	CodeInvalidOrderItemQuantity = "invalid_order_item_quantity"
	CodeInvalidOrderItemTitle    = "invalid_order_item_title"
	CodeInvalidOrderStatus       = "invalid_order_status"

	CodeInvalidBulkAction  = "invalid_bulk_action"
	CodeInvalidBulkPayload = "invalid_bulk_payload"
	CodePartialBulkFailure = "partial_bulk_failure"

	CodeInvalidTrackingPayload = "invalid_tracking_payload"

	CodeOrderNotFound   = "order_not_found"
	CodeProductNotFound = "product_not_found"

	CodeInvalidReview    = "invalid_review"
	CodeInvalidCoupon    = "invalid_coupon"
	CodeInvalidGiftCard  = "invalid_gift_card"
	CodeInvalidPoints    = "invalid_points"
	CodeInvalidSettings  = "invalid_settings"
	CodeReviewNotFound   = "review_not_found"
	CodeCouponNotFound   = "coupon_not_found"
	CodeGiftCardNotFound = "gift_card_not_found"
	CodeSettingsNotFound = "settings_not_found"
)

// ValidationError is a client-caused failure with a stable machine readable
// code. It is never retryable.
type ValidationError struct {
	ErrCode string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.ErrCode
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

// Code returns the stable error code for transport across layers.
func (e *ValidationError) Code() string {
	if e == nil {
		return ""
	}
	return e.ErrCode
}

// SafeMessage returns the human readable message safe to expose to callers.
func (e *ValidationError) SafeMessage() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// NewValidationError constructs a ValidationError with a formatted message.
func NewValidationError(code string, format string, args ...any) *ValidationError {
	return &ValidationError{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing entity with a stable code.
type NotFoundError struct {
	ErrCode string
	Message string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.ErrCode
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

// Code returns the stable error code for transport across layers.
func (e *NotFoundError) Code() string {
	if e == nil {
		return ""
	}
	return e.ErrCode
}

// SafeMessage returns the human readable message safe to expose to callers.
func (e *NotFoundError) SafeMessage() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// NewNotFoundError constructs a NotFoundError with a formatted message.
func NewNotFoundError(code string, format string, args ...any) *NotFoundError {
	return &NotFoundError{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}
