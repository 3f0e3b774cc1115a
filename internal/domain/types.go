package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was created but not paid yet.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid indicates payment was confirmed.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusProcessing indicates the order is being prepared for shipment.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order has been handed to a carrier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusCompleted indicates the order lifecycle finished successfully. Terminal.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was cancelled before completion. Terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order captures order headers returned to handlers/services.
// Monetary fields are in the smallest currency unit.
type Order struct {
	ID               string
	OrderNumber      string
	UserID           string
	Status           OrderStatus
	PaymentMethod    string
	Channel          string
	Currency         string
	Totals           OrderTotals
	PointsUsed       int
	Items            []OrderItem
	TrackingProvider *string
	TrackingNumber   *string
	TrackingSyncedAt *time.Time
	Metadata         map[string]any
	Audit            OrderAudit
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
	ShippedAt        *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// OrderTotals holds rolled-up monetary fields in the smallest currency unit.
type OrderTotals struct {
	Subtotal         int64
	Discount         int64
	Shipping         int64
	CouponDiscount   int64
	GiftCardDiscount int64
	Total            int64
}

// OrderItem represents one order line. Items are owned exclusively by their
// order and persisted via whole-collection replace.
type OrderItem struct {
	ID           string
	OrderID      string
	ProductID    string
	SkuID        string
	ProductTitle string
	SkuCode      string
	Quantity     int
	UnitPrice    int64
	Total        int64
	Metadata     map[string]any
}

// OrderAudit records the actors responsible for creating/updating the order.
type OrderAudit struct {
	CreatedBy *string
	UpdatedBy *string
}

// Product captures catalog product headers.
type Product struct {
	ID        string
	Title     string
	Status    string
	Featured  bool
	Skus      []ProductSku
	Metadata  map[string]any
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductSku is a purchasable variant of a product. SKUs are owned exclusively
// by their product and persisted via whole-collection replace.
type ProductSku struct {
	ID           string
	ProductID    string
	SkuCode      string
	Attributes   map[string]any
	PriceRegular int64
	PriceSale    int64
	PriceMember  int64
	StockQty     int
	TierPrices   []TierPrice
	WeightGrams  *int
	Barcode      string
	SortOrder    int
}

// TierPrice applies a unit price when the purchased quantity falls within
// [MinQty, MaxQty]. A nil MaxQty means open-ended and is only legal on the
// last tier of a sorted list.
type TierPrice struct {
	MinQty int
	MaxQty *int
	Price  int64
	Note   string
}

// TrackingEvent is a normalized carrier event stored under an order.
// Events are replaced wholesale on every successful provider sync.
type TrackingEvent struct {
	ID         string
	OrderID    string
	EventCode  string
	StatusText string
	Location   string
	EventTime  *time.Time
	Raw        map[string]any
	CreatedAt  time.Time
}

// ShippingTemplate describes a flat or weight-based shipping fee schedule.
type ShippingTemplate struct {
	ID          string
	Name        string
	FeeBase     int64
	FeePerKg    int64
	FreeOver    *int64
	Regions     []string
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentMethodConfig is a storefront payment option. Processing happens
// outside this system; only display/config data is stored.
type PaymentMethodConfig struct {
	ID        string
	Code      string
	Title     string
	Enabled   bool
	SortOrder int
	Config    map[string]any
	UpdatedAt time.Time
}

// TaxRate is expressed in basis points so 825 means 8.25%.
type TaxRate struct {
	ID        string
	Name      string
	Region    string
	RateBps   int
	UpdatedAt time.Time
}

// ReviewStatus enumerates moderation states for product reviews.
type ReviewStatus string

const (
	// ReviewStatusPending indicates the review awaits moderation.
	ReviewStatusPending ReviewStatus = "pending"
	// ReviewStatusApproved indicates the review is publicly visible.
	ReviewStatusApproved ReviewStatus = "approved"
	// ReviewStatusRejected indicates the review was rejected by a moderator.
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review stores a product review with its moderation metadata.
type Review struct {
	ID          string
	ProductID   string
	OrderID     string
	UserID      string
	Rating      int
	Content     string
	Status      ReviewStatus
	ModeratedBy *string
	ModeratedAt *time.Time
	CreatedAt   time.Time
}

// CouponKind selects between percentage and fixed-amount coupons.
type CouponKind string

const (
	// CouponKindPercent discounts a percentage of the eligible subtotal.
	CouponKindPercent CouponKind = "percent"
	// CouponKindFixed discounts a fixed amount in minor units.
	CouponKindFixed CouponKind = "fixed"
)

// Coupon is a redeemable discount code.
type Coupon struct {
	ID         string
	Code       string
	Kind       CouponKind
	Value      int64
	MinSpend   int64
	StartsAt   *time.Time
	EndsAt     *time.Time
	UsageLimit int
	UsedCount  int
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GiftCard carries a stored-value balance in minor units.
type GiftCard struct {
	ID        string
	Code      string
	Balance   int64
	Currency  string
	ExpiresAt *time.Time
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PointsEntry is one loyalty-point ledger movement for a user. Positive delta
// earns, negative delta redeems.
type PointsEntry struct {
	ID        string
	UserID    string
	OrderID   string
	Delta     int
	Reason    string
	CreatedAt time.Time
}

// AuditLogEntry is an immutable audit trail record.
type AuditLogEntry struct {
	ID         string
	Actor      string
	ActorType  string
	Action     string
	TargetType string
	TargetID   string
	Severity   string
	RequestID  string
	Metadata   map[string]any
	CreatedAt  time.Time
}
