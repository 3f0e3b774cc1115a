package services

import (
	"context"
	"fmt"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

// Repository stubs shared by the service tests. Unset function fields fail
// loudly so a test only wires what it expects to be called.

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
	msg         string
}

func (e *stubRepoError) Error() string       { return e.msg }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

func notFoundErr(msg string) error {
	return &stubRepoError{notFound: true, msg: msg}
}

type stubOrderRepository struct {
	insertFn       func(ctx context.Context, order domain.Order) error
	updateFn       func(ctx context.Context, order domain.Order) error
	deleteFn       func(ctx context.Context, orderID string) error
	findFn         func(ctx context.Context, orderID string) (domain.Order, error)
	listFn         func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	replaceItemsFn func(ctx context.Context, orderID string, items []domain.OrderItem) error
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn == nil {
		return fmt.Errorf("unexpected Insert call")
	}
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepository) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn == nil {
		return fmt.Errorf("unexpected Update call")
	}
	return s.updateFn(ctx, order)
}

func (s *stubOrderRepository) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn == nil {
		return fmt.Errorf("unexpected Delete call")
	}
	return s.deleteFn(ctx, orderID)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn == nil {
		return domain.Order{}, fmt.Errorf("unexpected FindByID call")
	}
	return s.findFn(ctx, orderID)
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFn == nil {
		return domain.CursorPage[domain.Order]{}, fmt.Errorf("unexpected List call")
	}
	return s.listFn(ctx, filter)
}

func (s *stubOrderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if s.replaceItemsFn == nil {
		return fmt.Errorf("unexpected ReplaceItems call")
	}
	return s.replaceItemsFn(ctx, orderID, items)
}

type stubProductRepository struct {
	insertFn      func(ctx context.Context, product domain.Product) error
	updateFn      func(ctx context.Context, product domain.Product) error
	softDeleteFn  func(ctx context.Context, productID string, deletedAt time.Time) error
	hardDeleteFn  func(ctx context.Context, productID string) error
	findFn        func(ctx context.Context, productID string) (domain.Product, error)
	listFn        func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
	replaceSkusFn func(ctx context.Context, productID string, skus []domain.ProductSku) error
	adjustStockFn func(ctx context.Context, productID string, skuID string, delta int) (int, error)
}

func (s *stubProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFn == nil {
		return fmt.Errorf("unexpected Insert call")
	}
	return s.insertFn(ctx, product)
}

func (s *stubProductRepository) Update(ctx context.Context, product domain.Product) error {
	if s.updateFn == nil {
		return fmt.Errorf("unexpected Update call")
	}
	return s.updateFn(ctx, product)
}

func (s *stubProductRepository) SoftDelete(ctx context.Context, productID string, deletedAt time.Time) error {
	if s.softDeleteFn == nil {
		return fmt.Errorf("unexpected SoftDelete call")
	}
	return s.softDeleteFn(ctx, productID, deletedAt)
}

func (s *stubProductRepository) HardDelete(ctx context.Context, productID string) error {
	if s.hardDeleteFn == nil {
		return fmt.Errorf("unexpected HardDelete call")
	}
	return s.hardDeleteFn(ctx, productID)
}

func (s *stubProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findFn == nil {
		return domain.Product{}, fmt.Errorf("unexpected FindByID call")
	}
	return s.findFn(ctx, productID)
}

func (s *stubProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listFn == nil {
		return domain.CursorPage[domain.Product]{}, fmt.Errorf("unexpected List call")
	}
	return s.listFn(ctx, filter)
}

func (s *stubProductRepository) ReplaceSkus(ctx context.Context, productID string, skus []domain.ProductSku) error {
	if s.replaceSkusFn == nil {
		return fmt.Errorf("unexpected ReplaceSkus call")
	}
	return s.replaceSkusFn(ctx, productID, skus)
}

func (s *stubProductRepository) AdjustStock(ctx context.Context, productID string, skuID string, delta int) (int, error) {
	if s.adjustStockFn == nil {
		return 0, fmt.Errorf("unexpected AdjustStock call")
	}
	return s.adjustStockFn(ctx, productID, skuID, delta)
}

type stubCounterRepository struct {
	nextFn func(ctx context.Context, counterID string, step int64) (int64, error)
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn == nil {
		return 0, fmt.Errorf("unexpected Next call")
	}
	return s.nextFn(ctx, counterID, step)
}

type stubTrackingEventRepository struct {
	replaceAllFn func(ctx context.Context, orderID string, events []domain.TrackingEvent) error
	listFn       func(ctx context.Context, orderID string) ([]domain.TrackingEvent, error)
}

func (s *stubTrackingEventRepository) ReplaceAll(ctx context.Context, orderID string, events []domain.TrackingEvent) error {
	if s.replaceAllFn == nil {
		return fmt.Errorf("unexpected ReplaceAll call")
	}
	return s.replaceAllFn(ctx, orderID, events)
}

func (s *stubTrackingEventRepository) List(ctx context.Context, orderID string) ([]domain.TrackingEvent, error) {
	if s.listFn == nil {
		return nil, fmt.Errorf("unexpected List call")
	}
	return s.listFn(ctx, orderID)
}

type stubReviewRepository struct {
	insertFn       func(ctx context.Context, review domain.Review) (domain.Review, error)
	findFn         func(ctx context.Context, reviewID string) (domain.Review, error)
	listFn         func(ctx context.Context, productID string, pager domain.Pagination) (domain.CursorPage[domain.Review], error)
	updateStatusFn func(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (domain.Review, error)
}

func (s *stubReviewRepository) Insert(ctx context.Context, review domain.Review) (domain.Review, error) {
	if s.insertFn == nil {
		return domain.Review{}, fmt.Errorf("unexpected Insert call")
	}
	return s.insertFn(ctx, review)
}

func (s *stubReviewRepository) FindByID(ctx context.Context, reviewID string) (domain.Review, error) {
	if s.findFn == nil {
		return domain.Review{}, fmt.Errorf("unexpected FindByID call")
	}
	return s.findFn(ctx, reviewID)
}

func (s *stubReviewRepository) ListByProduct(ctx context.Context, productID string, pager domain.Pagination) (domain.CursorPage[domain.Review], error) {
	if s.listFn == nil {
		return domain.CursorPage[domain.Review]{}, fmt.Errorf("unexpected ListByProduct call")
	}
	return s.listFn(ctx, productID, pager)
}

func (s *stubReviewRepository) UpdateStatus(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (domain.Review, error) {
	if s.updateStatusFn == nil {
		return domain.Review{}, fmt.Errorf("unexpected UpdateStatus call")
	}
	return s.updateStatusFn(ctx, reviewID, status, update)
}

type stubPromotionRepository struct {
	insertCouponFn   func(ctx context.Context, coupon domain.Coupon) error
	updateCouponFn   func(ctx context.Context, coupon domain.Coupon) error
	findCouponFn     func(ctx context.Context, code string) (domain.Coupon, error)
	listCouponsFn    func(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Coupon], error)
	insertGiftCardFn func(ctx context.Context, card domain.GiftCard) error
	updateGiftCardFn func(ctx context.Context, card domain.GiftCard) error
	findGiftCardFn   func(ctx context.Context, code string) (domain.GiftCard, error)
	appendPointsFn   func(ctx context.Context, entry domain.PointsEntry) error
	pointsBalanceFn  func(ctx context.Context, userID string) (int, error)
	listPointsFn     func(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.PointsEntry], error)
}

func (s *stubPromotionRepository) InsertCoupon(ctx context.Context, coupon domain.Coupon) error {
	if s.insertCouponFn == nil {
		return fmt.Errorf("unexpected InsertCoupon call")
	}
	return s.insertCouponFn(ctx, coupon)
}

func (s *stubPromotionRepository) UpdateCoupon(ctx context.Context, coupon domain.Coupon) error {
	if s.updateCouponFn == nil {
		return fmt.Errorf("unexpected UpdateCoupon call")
	}
	return s.updateCouponFn(ctx, coupon)
}

func (s *stubPromotionRepository) FindCouponByCode(ctx context.Context, code string) (domain.Coupon, error) {
	if s.findCouponFn == nil {
		return domain.Coupon{}, fmt.Errorf("unexpected FindCouponByCode call")
	}
	return s.findCouponFn(ctx, code)
}

func (s *stubPromotionRepository) ListCoupons(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Coupon], error) {
	if s.listCouponsFn == nil {
		return domain.CursorPage[domain.Coupon]{}, fmt.Errorf("unexpected ListCoupons call")
	}
	return s.listCouponsFn(ctx, pager)
}

func (s *stubPromotionRepository) InsertGiftCard(ctx context.Context, card domain.GiftCard) error {
	if s.insertGiftCardFn == nil {
		return fmt.Errorf("unexpected InsertGiftCard call")
	}
	return s.insertGiftCardFn(ctx, card)
}

func (s *stubPromotionRepository) UpdateGiftCard(ctx context.Context, card domain.GiftCard) error {
	if s.updateGiftCardFn == nil {
		return fmt.Errorf("unexpected UpdateGiftCard call")
	}
	return s.updateGiftCardFn(ctx, card)
}

func (s *stubPromotionRepository) FindGiftCardByCode(ctx context.Context, code string) (domain.GiftCard, error) {
	if s.findGiftCardFn == nil {
		return domain.GiftCard{}, fmt.Errorf("unexpected FindGiftCardByCode call")
	}
	return s.findGiftCardFn(ctx, code)
}

func (s *stubPromotionRepository) AppendPointsEntry(ctx context.Context, entry domain.PointsEntry) error {
	if s.appendPointsFn == nil {
		return fmt.Errorf("unexpected AppendPointsEntry call")
	}
	return s.appendPointsFn(ctx, entry)
}

func (s *stubPromotionRepository) PointsBalance(ctx context.Context, userID string) (int, error) {
	if s.pointsBalanceFn == nil {
		return 0, fmt.Errorf("unexpected PointsBalance call")
	}
	return s.pointsBalanceFn(ctx, userID)
}

func (s *stubPromotionRepository) ListPointsEntries(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.PointsEntry], error) {
	if s.listPointsFn == nil {
		return domain.CursorPage[domain.PointsEntry]{}, fmt.Errorf("unexpected ListPointsEntries call")
	}
	return s.listPointsFn(ctx, userID, pager)
}

type stubSettingsRepository struct {
	upsertShippingFn func(ctx context.Context, tpl domain.ShippingTemplate) (domain.ShippingTemplate, error)
	deleteShippingFn func(ctx context.Context, templateID string) error
	findShippingFn   func(ctx context.Context, templateID string) (domain.ShippingTemplate, error)
	listShippingFn   func(ctx context.Context) ([]domain.ShippingTemplate, error)
	upsertPaymentFn  func(ctx context.Context, method domain.PaymentMethodConfig) (domain.PaymentMethodConfig, error)
	deletePaymentFn  func(ctx context.Context, methodID string) error
	listPaymentsFn   func(ctx context.Context) ([]domain.PaymentMethodConfig, error)
	upsertTaxFn      func(ctx context.Context, rate domain.TaxRate) (domain.TaxRate, error)
	deleteTaxFn      func(ctx context.Context, rateID string) error
	listTaxFn        func(ctx context.Context) ([]domain.TaxRate, error)
}

func (s *stubSettingsRepository) UpsertShippingTemplate(ctx context.Context, tpl domain.ShippingTemplate) (domain.ShippingTemplate, error) {
	if s.upsertShippingFn == nil {
		return domain.ShippingTemplate{}, fmt.Errorf("unexpected UpsertShippingTemplate call")
	}
	return s.upsertShippingFn(ctx, tpl)
}

func (s *stubSettingsRepository) DeleteShippingTemplate(ctx context.Context, templateID string) error {
	if s.deleteShippingFn == nil {
		return fmt.Errorf("unexpected DeleteShippingTemplate call")
	}
	return s.deleteShippingFn(ctx, templateID)
}

func (s *stubSettingsRepository) FindShippingTemplate(ctx context.Context, templateID string) (domain.ShippingTemplate, error) {
	if s.findShippingFn == nil {
		return domain.ShippingTemplate{}, fmt.Errorf("unexpected FindShippingTemplate call")
	}
	return s.findShippingFn(ctx, templateID)
}

func (s *stubSettingsRepository) ListShippingTemplates(ctx context.Context) ([]domain.ShippingTemplate, error) {
	if s.listShippingFn == nil {
		return nil, fmt.Errorf("unexpected ListShippingTemplates call")
	}
	return s.listShippingFn(ctx)
}

func (s *stubSettingsRepository) UpsertPaymentMethod(ctx context.Context, method domain.PaymentMethodConfig) (domain.PaymentMethodConfig, error) {
	if s.upsertPaymentFn == nil {
		return domain.PaymentMethodConfig{}, fmt.Errorf("unexpected UpsertPaymentMethod call")
	}
	return s.upsertPaymentFn(ctx, method)
}

func (s *stubSettingsRepository) DeletePaymentMethod(ctx context.Context, methodID string) error {
	if s.deletePaymentFn == nil {
		return fmt.Errorf("unexpected DeletePaymentMethod call")
	}
	return s.deletePaymentFn(ctx, methodID)
}

func (s *stubSettingsRepository) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodConfig, error) {
	if s.listPaymentsFn == nil {
		return nil, fmt.Errorf("unexpected ListPaymentMethods call")
	}
	return s.listPaymentsFn(ctx)
}

func (s *stubSettingsRepository) UpsertTaxRate(ctx context.Context, rate domain.TaxRate) (domain.TaxRate, error) {
	if s.upsertTaxFn == nil {
		return domain.TaxRate{}, fmt.Errorf("unexpected UpsertTaxRate call")
	}
	return s.upsertTaxFn(ctx, rate)
}

func (s *stubSettingsRepository) DeleteTaxRate(ctx context.Context, rateID string) error {
	if s.deleteTaxFn == nil {
		return fmt.Errorf("unexpected DeleteTaxRate call")
	}
	return s.deleteTaxFn(ctx, rateID)
}

func (s *stubSettingsRepository) ListTaxRates(ctx context.Context) ([]domain.TaxRate, error) {
	if s.listTaxFn == nil {
		return nil, fmt.Errorf("unexpected ListTaxRates call")
	}
	return s.listTaxFn(ctx)
}

type recordingAudit struct {
	records []AuditLogRecord
}

func (a *recordingAudit) Record(ctx context.Context, record AuditLogRecord) {
	a.records = append(a.records, record)
}

func (a *recordingAudit) List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	return domain.CursorPage[AuditLogEntry]{}, nil
}

type recordingPublisher struct {
	events   []OrderEvent
	failWith error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.events = append(p.events, event)
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%04d", prefix, n)
	}
}
