package repositories

import (
	"context"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Products() ProductRepository
	TrackingEvents() TrackingEventRepository
	Reviews() ReviewRepository
	Settings() SettingsRepository
	Promotions() PromotionRepository
	AuditLogs() AuditLogRepository
	Counters() CounterRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order headers and their line items. Items are
// replaced wholesale, never patched individually.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error
}

// ProductRepository persists products and their SKU collections.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	// SoftDelete marks the product trashed without removing the document.
	SoftDelete(ctx context.Context, productID string, deletedAt time.Time) error
	// HardDelete removes the product document and its SKU subcollection.
	HardDelete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
	ReplaceSkus(ctx context.Context, productID string, skus []domain.ProductSku) error
	// AdjustStock applies the delta atomically and returns the new quantity,
	// clamped at zero.
	AdjustStock(ctx context.Context, productID string, skuID string, delta int) (int, error)
}

// TrackingEventRepository stores normalized carrier events underneath an order.
type TrackingEventRepository interface {
	// ReplaceAll removes every stored event for the order and inserts the new
	// set in a single transaction.
	ReplaceAll(ctx context.Context, orderID string, events []domain.TrackingEvent) error
	List(ctx context.Context, orderID string) ([]domain.TrackingEvent, error)
}

// ReviewRepository stores product reviews and their moderation meta.
type ReviewRepository interface {
	Insert(ctx context.Context, review domain.Review) (domain.Review, error)
	FindByID(ctx context.Context, reviewID string) (domain.Review, error)
	ListByProduct(ctx context.Context, productID string, pager domain.Pagination) (domain.CursorPage[domain.Review], error)
	UpdateStatus(ctx context.Context, reviewID string, status domain.ReviewStatus, update ReviewModerationUpdate) (domain.Review, error)
}

// SettingsRepository bundles shipping templates, payment method configs and
// tax rates, which share lifecycle and storage shape.
type SettingsRepository interface {
	UpsertShippingTemplate(ctx context.Context, tpl domain.ShippingTemplate) (domain.ShippingTemplate, error)
	DeleteShippingTemplate(ctx context.Context, templateID string) error
	FindShippingTemplate(ctx context.Context, templateID string) (domain.ShippingTemplate, error)
	ListShippingTemplates(ctx context.Context) ([]domain.ShippingTemplate, error)

	UpsertPaymentMethod(ctx context.Context, method domain.PaymentMethodConfig) (domain.PaymentMethodConfig, error)
	DeletePaymentMethod(ctx context.Context, methodID string) error
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodConfig, error)

	UpsertTaxRate(ctx context.Context, rate domain.TaxRate) (domain.TaxRate, error)
	DeleteTaxRate(ctx context.Context, rateID string) error
	ListTaxRates(ctx context.Context) ([]domain.TaxRate, error)
}

// PromotionRepository maintains coupons, gift cards and loyalty point ledgers.
type PromotionRepository interface {
	InsertCoupon(ctx context.Context, coupon domain.Coupon) error
	UpdateCoupon(ctx context.Context, coupon domain.Coupon) error
	FindCouponByCode(ctx context.Context, code string) (domain.Coupon, error)
	ListCoupons(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Coupon], error)

	InsertGiftCard(ctx context.Context, card domain.GiftCard) error
	UpdateGiftCard(ctx context.Context, card domain.GiftCard) error
	FindGiftCardByCode(ctx context.Context, code string) (domain.GiftCard, error)

	AppendPointsEntry(ctx context.Context, entry domain.PointsEntry) error
	PointsBalance(ctx context.Context, userID string) (int, error)
	ListPointsEntries(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.PointsEntry], error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// Filter DTOs shared across repositories ------------------------------------

type OrderListFilter struct {
	UserID     string
	Status     []string
	Channel    string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type ProductListFilter struct {
	Status         string
	FeaturedOnly   bool
	IncludeDeleted bool
	Pagination     domain.Pagination
}

// ReviewModerationUpdate carries moderation metadata for status transitions.
type ReviewModerationUpdate struct {
	ModeratedBy string
	ModeratedAt time.Time
}

type AuditLogFilter struct {
	TargetType string
	TargetID   string
	Actor      string
	Action     string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}
