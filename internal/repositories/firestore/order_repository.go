package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shopward/backoffice/internal/domain"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/repositories"
)

const (
	ordersCollection     = "orders"
	orderItemsCollection = "items"
)

type orderDocument struct {
	OrderNumber      string         `firestore:"orderNumber"`
	UserID           string         `firestore:"userId"`
	Status           string         `firestore:"status"`
	PaymentMethod    string         `firestore:"paymentMethod,omitempty"`
	Channel          string         `firestore:"channel,omitempty"`
	Currency         string         `firestore:"currency"`
	Subtotal         int64          `firestore:"subtotal"`
	Discount         int64          `firestore:"discount"`
	Shipping         int64          `firestore:"shipping"`
	CouponDiscount   int64          `firestore:"couponDiscount"`
	GiftCardDiscount int64          `firestore:"giftCardDiscount"`
	Total            int64          `firestore:"total"`
	PointsUsed       int            `firestore:"pointsUsed,omitempty"`
	TrackingProvider *string        `firestore:"trackingProvider,omitempty"`
	TrackingNumber   *string        `firestore:"trackingNumber,omitempty"`
	TrackingSyncedAt *time.Time     `firestore:"trackingSyncedAt,omitempty"`
	Metadata         map[string]any `firestore:"metadata,omitempty"`
	CreatedBy        *string        `firestore:"createdBy,omitempty"`
	UpdatedBy        *string        `firestore:"updatedBy,omitempty"`
	CreatedAt        time.Time      `firestore:"createdAt"`
	UpdatedAt        time.Time      `firestore:"updatedAt"`
	PaidAt           *time.Time     `firestore:"paidAt,omitempty"`
	ShippedAt        *time.Time     `firestore:"shippedAt,omitempty"`
	CompletedAt      *time.Time     `firestore:"completedAt,omitempty"`
	CancelledAt      *time.Time     `firestore:"cancelledAt,omitempty"`
}

type orderItemDocument struct {
	ProductID    string         `firestore:"productId,omitempty"`
	SkuID        string         `firestore:"skuId,omitempty"`
	ProductTitle string         `firestore:"productTitle"`
	SkuCode      string         `firestore:"skuCode,omitempty"`
	Quantity     int            `firestore:"quantity"`
	UnitPrice    int64          `firestore:"unitPrice"`
	Total        int64          `firestore:"total"`
	Metadata     map[string]any `firestore:"metadata,omitempty"`
	Position     int            `firestore:"position"`
}

// OrderRepository persists orders with their line items as a subcollection.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.Collection[orderDocument]
}

func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewCollection[orderDocument](provider, ordersCollection),
	}, nil
}

func (r *OrderRepository) items(orderID string) *pfirestore.Collection[orderItemDocument] {
	return pfirestore.NewCollection[orderItemDocument](r.provider, fmt.Sprintf("%s/%s/%s", ordersCollection, orderID, orderItemsCollection))
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if err := r.orders.Create(ctx, order.ID, newOrderDocument(order)); err != nil {
		return err
	}
	return r.writeItems(ctx, order.ID, order.Items)
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	return r.orders.Set(ctx, order.ID, newOrderDocument(order))
}

func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if err := r.items(orderID).DeleteAll(ctx); err != nil {
		return err
	}
	return r.orders.Delete(ctx, orderID)
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order := doc.toDomain(orderID)

	itemDocs, err := r.items(orderID).Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("position", firestore.Asc)
	})
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = make([]domain.OrderItem, 0, len(itemDocs))
	for _, item := range itemDocs {
		order.Items = append(order.Items, item.Data.toDomain(item.ID, orderID))
	}
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	pager := pagination.Normalize(filter.Pagination)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.UserID != "" {
			q = q.Where("userId", "==", filter.UserID)
		}
		if len(filter.Status) > 0 {
			q = q.Where("status", "in", filter.Status)
		}
		if filter.Channel != "" {
			q = q.Where("channel", "==", filter.Channel)
		}
		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", *filter.DateRange.From)
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", *filter.DateRange.To)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pager.PageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{}
	for i, doc := range docs {
		if i == pager.PageSize {
			last := docs[i-1]
			page.NextPageToken = pagination.EncodeToken(pagination.Cursor{
				StartAfter: []any{last.Data.CreatedAt, last.ID},
			})
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	return page, nil
}

// ReplaceItems swaps the whole line item set. Inside a unit of work the
// delete and insert land atomically.
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	coll := r.items(orderID)
	if err := coll.DeleteAll(ctx); err != nil {
		return err
	}
	return r.writeItemsTo(ctx, coll, orderID, items)
}

func (r *OrderRepository) writeItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	return r.writeItemsTo(ctx, r.items(orderID), orderID, items)
}

func (r *OrderRepository) writeItemsTo(ctx context.Context, coll *pfirestore.Collection[orderItemDocument], orderID string, items []domain.OrderItem) error {
	for i, item := range items {
		if err := coll.Set(ctx, item.ID, newOrderItemDocument(item, i)); err != nil {
			return err
		}
	}
	return nil
}

func newOrderDocument(order domain.Order) orderDocument {
	return orderDocument{
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Status:           string(order.Status),
		PaymentMethod:    order.PaymentMethod,
		Channel:          order.Channel,
		Currency:         order.Currency,
		Subtotal:         order.Totals.Subtotal,
		Discount:         order.Totals.Discount,
		Shipping:         order.Totals.Shipping,
		CouponDiscount:   order.Totals.CouponDiscount,
		GiftCardDiscount: order.Totals.GiftCardDiscount,
		Total:            order.Totals.Total,
		PointsUsed:       order.PointsUsed,
		TrackingProvider: order.TrackingProvider,
		TrackingNumber:   order.TrackingNumber,
		TrackingSyncedAt: order.TrackingSyncedAt,
		Metadata:         order.Metadata,
		CreatedBy:        order.Audit.CreatedBy,
		UpdatedBy:        order.Audit.UpdatedBy,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
		PaidAt:           order.PaidAt,
		ShippedAt:        order.ShippedAt,
		CompletedAt:      order.CompletedAt,
		CancelledAt:      order.CancelledAt,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	return domain.Order{
		ID:            id,
		OrderNumber:   d.OrderNumber,
		UserID:        d.UserID,
		Status:        domain.OrderStatus(d.Status),
		PaymentMethod: d.PaymentMethod,
		Channel:       d.Channel,
		Currency:      d.Currency,
		Totals: domain.OrderTotals{
			Subtotal:         d.Subtotal,
			Discount:         d.Discount,
			Shipping:         d.Shipping,
			CouponDiscount:   d.CouponDiscount,
			GiftCardDiscount: d.GiftCardDiscount,
			Total:            d.Total,
		},
		PointsUsed:       d.PointsUsed,
		TrackingProvider: d.TrackingProvider,
		TrackingNumber:   d.TrackingNumber,
		TrackingSyncedAt: d.TrackingSyncedAt,
		Metadata:         d.Metadata,
		Audit:            domain.OrderAudit{CreatedBy: d.CreatedBy, UpdatedBy: d.UpdatedBy},
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		PaidAt:           d.PaidAt,
		ShippedAt:        d.ShippedAt,
		CompletedAt:      d.CompletedAt,
		CancelledAt:      d.CancelledAt,
	}
}

func newOrderItemDocument(item domain.OrderItem, position int) orderItemDocument {
	return orderItemDocument{
		ProductID:    item.ProductID,
		SkuID:        item.SkuID,
		ProductTitle: item.ProductTitle,
		SkuCode:      item.SkuCode,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Total:        item.Total,
		Metadata:     item.Metadata,
		Position:     position,
	}
}

func (d orderItemDocument) toDomain(id string, orderID string) domain.OrderItem {
	return domain.OrderItem{
		ID:           id,
		OrderID:      orderID,
		ProductID:    d.ProductID,
		SkuID:        d.SkuID,
		ProductTitle: d.ProductTitle,
		SkuCode:      d.SkuCode,
		Quantity:     d.Quantity,
		UnitPrice:    d.UnitPrice,
		Total:        d.Total,
		Metadata:     d.Metadata,
	}
}
