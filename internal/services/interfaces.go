package services

import (
	"context"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination           = domain.Pagination
	SortOrder            = domain.SortOrder
	Order                = domain.Order
	OrderStatus          = domain.OrderStatus
	OrderItem            = domain.OrderItem
	OrderTotals          = domain.OrderTotals
	OrderAudit           = domain.OrderAudit
	Product              = domain.Product
	ProductSku           = domain.ProductSku
	TierPrice            = domain.TierPrice
	TrackingEvent        = domain.TrackingEvent
	BulkOperationSummary = domain.BulkOperationSummary
	BulkItemDetail       = domain.BulkItemDetail
	BulkItemFailure      = domain.BulkItemFailure
	BulkExport           = domain.BulkExport
	Review               = domain.Review
	ReviewStatus         = domain.ReviewStatus
	ShippingTemplate     = domain.ShippingTemplate
	PaymentMethodConfig  = domain.PaymentMethodConfig
	TaxRate              = domain.TaxRate
	Coupon               = domain.Coupon
	GiftCard             = domain.GiftCard
	PointsEntry          = domain.PointsEntry
	AuditLogEntry        = domain.AuditLogEntry
)

type OrderListFilter = repositories.OrderListFilter

type ProductListFilter = repositories.ProductListFilter

type AuditLogFilter = repositories.AuditLogFilter

// OrderService encapsulates order read/write flows including status
// transitions and line item replacement.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
	ReplaceItems(ctx context.Context, cmd ReplaceOrderItemsCommand) (Order, error)
	SetTracking(ctx context.Context, cmd SetTrackingCommand) (Order, error)
	Delete(ctx context.Context, orderID string, actorID string) error
}

// ProductService manages catalog products and their SKU collections.
type ProductService interface {
	Create(ctx context.Context, cmd CreateProductCommand) (Product, error)
	Update(ctx context.Context, cmd UpdateProductCommand) (Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)
	ReplaceSkus(ctx context.Context, cmd ReplaceSkusCommand) (Product, error)
	AdjustStock(ctx context.Context, cmd AdjustStockCommand) (int, error)
	SetFeatured(ctx context.Context, productID string, featured bool, actorID string) (Product, error)
	Delete(ctx context.Context, cmd DeleteProductCommand) error
}

// BulkService applies one action to many entities with per-item failure
// isolation and structured summaries.
type BulkService interface {
	ExecuteProducts(ctx context.Context, cmd BulkCommand) (BulkOperationSummary, error)
	ExecuteOrders(ctx context.Context, cmd BulkCommand) (BulkOperationSummary, error)
}

// TrackingService reconciles carrier events for an order via an external
// provider capability.
type TrackingService interface {
	Sync(ctx context.Context, cmd TrackingSyncCommand) (TrackingSyncResult, error)
	ListEvents(ctx context.Context, orderID string) ([]TrackingEvent, error)
}

// ReviewService coordinates review submission and moderation workflows.
type ReviewService interface {
	Submit(ctx context.Context, cmd SubmitReviewCommand) (Review, error)
	Moderate(ctx context.Context, cmd ModerateReviewCommand) (Review, error)
	ListByProduct(ctx context.Context, productID string, pager Pagination) (domain.CursorPage[Review], error)
}

// SettingsService manages shipping templates, payment method configs and tax
// rates.
type SettingsService interface {
	UpsertShippingTemplate(ctx context.Context, cmd UpsertShippingTemplateCommand) (ShippingTemplate, error)
	DeleteShippingTemplate(ctx context.Context, templateID string, actorID string) error
	ListShippingTemplates(ctx context.Context) ([]ShippingTemplate, error)

	UpsertPaymentMethod(ctx context.Context, cmd UpsertPaymentMethodCommand) (PaymentMethodConfig, error)
	DeletePaymentMethod(ctx context.Context, methodID string, actorID string) error
	ListPaymentMethods(ctx context.Context) ([]PaymentMethodConfig, error)

	UpsertTaxRate(ctx context.Context, cmd UpsertTaxRateCommand) (TaxRate, error)
	DeleteTaxRate(ctx context.Context, rateID string, actorID string) error
	ListTaxRates(ctx context.Context) ([]TaxRate, error)
}

// PromotionService exposes coupon, gift card and loyalty point operations.
type PromotionService interface {
	CreateCoupon(ctx context.Context, cmd CreateCouponCommand) (Coupon, error)
	RedeemCoupon(ctx context.Context, cmd RedeemCouponCommand) (CouponRedemption, error)
	ListCoupons(ctx context.Context, pager Pagination) (domain.CursorPage[Coupon], error)

	CreateGiftCard(ctx context.Context, cmd CreateGiftCardCommand) (GiftCard, error)
	RedeemGiftCard(ctx context.Context, cmd RedeemGiftCardCommand) (GiftCardRedemption, error)

	EarnPoints(ctx context.Context, cmd PointsCommand) (PointsEntry, error)
	RedeemPoints(ctx context.Context, cmd PointsCommand) (PointsEntry, error)
	PointsBalance(ctx context.Context, userID string) (int, error)
	PointsHistory(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[PointsEntry], error)
}

// AuditLogService centralizes immutable audit log persistence and retrieval.
type AuditLogService interface {
	// Record is fire-and-forget: persistence failures are logged, never
	// propagated to the primary operation.
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error)
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OrderNumber    string
	PreviousStatus string
	CurrentStatus  string
	ActorID        string
	OccurredAt     time.Time
	Metadata       map[string]any
}

// Command and DTO definitions ------------------------------------------------

type CreateOrderCommand struct {
	UserID        string
	Channel       string
	PaymentMethod string
	Currency      string
	Totals        OrderTotals
	PointsUsed    int
	Items         []RawOrderItem
	Metadata      map[string]any
	OrderNumber   *string
	ActorID       string
}

type OrderStatusTransitionCommand struct {
	OrderID      string
	TargetStatus OrderStatus
	ActorID      string
	Reason       string
	Metadata     map[string]any
}

type ReplaceOrderItemsCommand struct {
	OrderID string
	Items   []RawOrderItem
	ActorID string
}

type SetTrackingCommand struct {
	OrderID  string
	Provider string
	Number   string
	ActorID  string
}

type CreateProductCommand struct {
	Title    string
	Status   string
	Featured bool
	Skus     []RawSku
	Defaults PriceDefaults
	Metadata map[string]any
	ActorID  string
}

type UpdateProductCommand struct {
	ProductID string
	Title     *string
	Status    *string
	Metadata  map[string]any
	ActorID   string
}

type ReplaceSkusCommand struct {
	ProductID string
	Skus      []RawSku
	Defaults  PriceDefaults
	ActorID   string
}

type AdjustStockCommand struct {
	ProductID string
	SkuID     string
	Delta     int
	ActorID   string
}

type DeleteProductCommand struct {
	ProductID string
	Hard      bool
	ActorID   string
}

type TrackingSyncCommand struct {
	OrderID string
	ActorID string
}

// TrackingSyncResult reports the stored event set after a successful sync.
type TrackingSyncResult struct {
	OrderID  string
	Provider string
	Number   string
	Events   []TrackingEvent
	SyncedAt time.Time
}

type SubmitReviewCommand struct {
	ProductID string
	OrderID   string
	UserID    string
	Rating    int
	Content   string
}

type ModerateReviewCommand struct {
	ReviewID string
	Approve  bool
	ActorID  string
}

type UpsertShippingTemplateCommand struct {
	TemplateID *string
	Name       string
	FeeBase    int64
	FeePerKg   int64
	FreeOver   *int64
	Regions    []string
	IsDefault  bool
	ActorID    string
}

type UpsertPaymentMethodCommand struct {
	MethodID  *string
	Code      string
	Title     string
	Enabled   bool
	SortOrder int
	Config    map[string]any
	ActorID   string
}

type UpsertTaxRateCommand struct {
	RateID  *string
	Name    string
	Region  string
	RateBps int
	ActorID string
}

type CreateCouponCommand struct {
	Code       string
	Kind       domain.CouponKind
	Value      int64
	MinSpend   int64
	StartsAt   *time.Time
	EndsAt     *time.Time
	UsageLimit int
	ActorID    string
}

type RedeemCouponCommand struct {
	Code     string
	Subtotal int64
	UserID   string
}

// CouponRedemption reports the discount granted by a coupon redemption.
type CouponRedemption struct {
	Coupon   Coupon
	Discount int64
}

type CreateGiftCardCommand struct {
	Code      string
	Balance   int64
	Currency  string
	ExpiresAt *time.Time
	ActorID   string
}

type RedeemGiftCardCommand struct {
	Code   string
	Amount int64
	UserID string
}

// GiftCardRedemption reports the amount debited and the remaining balance.
type GiftCardRedemption struct {
	Card    GiftCard
	Debited int64
}

type PointsCommand struct {
	UserID  string
	OrderID string
	Points  int
	Reason  string
	ActorID string
}

// AuditLogRecord carries the inputs for one audit trail entry.
type AuditLogRecord struct {
	Actor      string
	ActorType  string
	Action     string
	TargetType string
	TargetID   string
	Severity   string
	RequestID  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// DomainError represents a structured error with stable codes for transport across layers.
type DomainError interface {
	error
	Code() string
	SafeMessage() string
}
