package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/services"
)

const maxOrderBodySize = 128 * 1024

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/status", h.transitionStatus)
	r.Put("/{orderID}/items", h.replaceItems)
	r.Put("/{orderID}/tracking", h.setTracking)
	r.Delete("/{orderID}", h.deleteOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.CreateOrderCommand{
		UserID:        strings.TrimSpace(req.UserID),
		Channel:       strings.TrimSpace(req.Channel),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Currency:      strings.TrimSpace(req.Currency),
		Totals: services.OrderTotals{
			Subtotal:         req.Totals.Subtotal,
			Discount:         req.Totals.Discount,
			Shipping:         req.Totals.Shipping,
			CouponDiscount:   req.Totals.CouponDiscount,
			GiftCardDiscount: req.Totals.GiftCardDiscount,
			Total:            req.Totals.Total,
		},
		PointsUsed:  req.PointsUsed,
		Items:       buildRawOrderItems(req.Items),
		Metadata:    req.Metadata,
		OrderNumber: cloneStringPointer(req.OrderNumber),
		ActorID:     actorID(ctx),
	}

	order, err := h.orders.Create(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is malformed", http.StatusBadRequest))
		return
	}

	filter := services.OrderListFilter{
		UserID:     strings.TrimSpace(r.URL.Query().Get("user_id")),
		Channel:    strings.TrimSpace(r.URL.Query().Get("channel")),
		Pagination: pager,
	}
	if statuses := r.URL.Query()["status"]; len(statuses) > 0 {
		for _, status := range statuses {
			if status = strings.TrimSpace(status); status != "" {
				filter.Status = append(filter.Status, status)
			}
		}
	}
	from, err := parseTimePtr(r.URL.Query().Get("created_after"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be RFC3339", http.StatusBadRequest))
		return
	}
	to, err := parseTimePtr(r.URL.Query().Get("created_before"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be RFC3339", http.StatusBadRequest))
		return
	}
	filter.DateRange = domain.RangeQuery[time.Time]{From: from, To: to}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := orderListResponse{
		Orders:        make([]orderPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, order := range page.Items {
		payload.Orders = append(payload.Orders, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transitionStatusRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.OrderStatusTransitionCommand{
		OrderID:      chi.URLParam(r, "orderID"),
		TargetStatus: services.OrderStatus(strings.TrimSpace(req.Status)),
		ActorID:      actorID(ctx),
		Reason:       strings.TrimSpace(req.Reason),
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) replaceItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req replaceItemsRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.ReplaceItems(ctx, services.ReplaceOrderItemsCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Items:   buildRawOrderItems(req.Items),
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) setTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setTrackingRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.SetTracking(ctx, services.SetTrackingCommand{
		OrderID:  chi.URLParam(r, "orderID"),
		Provider: strings.TrimSpace(req.Provider),
		Number:   strings.TrimSpace(req.Number),
		ActorID:  actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.orders.Delete(ctx, chi.URLParam(r, "orderID"), actorID(ctx)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createOrderRequest struct {
	UserID        string             `json:"user_id"`
	Channel       string             `json:"channel"`
	PaymentMethod string             `json:"payment_method"`
	Currency      string             `json:"currency"`
	Totals        orderTotalsPayload `json:"totals"`
	PointsUsed    int                `json:"points_used"`
	Items         []orderItemRequest `json:"items"`
	Metadata      map[string]any     `json:"metadata"`
	OrderNumber   *string            `json:"order_number"`
}

type transitionStatusRequest struct {
	Status   string         `json:"status"`
	Reason   string         `json:"reason"`
	Metadata map[string]any `json:"metadata"`
}

type replaceItemsRequest struct {
	Items []orderItemRequest `json:"items"`
}

type setTrackingRequest struct {
	Provider string `json:"provider"`
	Number   string `json:"number"`
}

type orderItemRequest struct {
	ProductID    string         `json:"product_id"`
	SkuID        string         `json:"sku_id"`
	ProductTitle string         `json:"product_title"`
	SkuCode      string         `json:"sku_code"`
	Quantity     int            `json:"quantity"`
	UnitPrice    int64          `json:"unit_price"`
	Total        *int64         `json:"total"`
	Metadata     map[string]any `json:"metadata"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderListResponse struct {
	Orders        []orderPayload `json:"orders"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type orderPayload struct {
	ID               string             `json:"id"`
	OrderNumber      string             `json:"order_number"`
	UserID           string             `json:"user_id"`
	Status           string             `json:"status"`
	PaymentMethod    string             `json:"payment_method,omitempty"`
	Channel          string             `json:"channel,omitempty"`
	Currency         string             `json:"currency,omitempty"`
	Totals           orderTotalsPayload `json:"totals"`
	PointsUsed       int                `json:"points_used,omitempty"`
	Items            []orderItemPayload `json:"items"`
	TrackingProvider *string            `json:"tracking_provider,omitempty"`
	TrackingNumber   *string            `json:"tracking_number,omitempty"`
	TrackingSyncedAt string             `json:"tracking_synced_at,omitempty"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
	PaidAt           string             `json:"paid_at,omitempty"`
	ShippedAt        string             `json:"shipped_at,omitempty"`
	CompletedAt      string             `json:"completed_at,omitempty"`
	CancelledAt      string             `json:"cancelled_at,omitempty"`
}

type orderTotalsPayload struct {
	Subtotal         int64 `json:"subtotal"`
	Discount         int64 `json:"discount"`
	Shipping         int64 `json:"shipping"`
	CouponDiscount   int64 `json:"coupon_discount"`
	GiftCardDiscount int64 `json:"gift_card_discount"`
	Total            int64 `json:"total"`
}

type orderItemPayload struct {
	ID           string         `json:"id"`
	ProductID    string         `json:"product_id"`
	SkuID        string         `json:"sku_id"`
	ProductTitle string         `json:"product_title"`
	SkuCode      string         `json:"sku_code"`
	Quantity     int            `json:"quantity"`
	UnitPrice    int64          `json:"unit_price"`
	Total        int64          `json:"total"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func buildRawOrderItems(items []orderItemRequest) []services.RawOrderItem {
	out := make([]services.RawOrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, services.RawOrderItem{
			ProductID:    strings.TrimSpace(item.ProductID),
			SkuID:        strings.TrimSpace(item.SkuID),
			ProductTitle: item.ProductTitle,
			SkuCode:      item.SkuCode,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Total:        item.Total,
			Metadata:     item.Metadata,
		})
	}
	return out
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		Channel:       order.Channel,
		Currency:      order.Currency,
		Totals: orderTotalsPayload{
			Subtotal:         order.Totals.Subtotal,
			Discount:         order.Totals.Discount,
			Shipping:         order.Totals.Shipping,
			CouponDiscount:   order.Totals.CouponDiscount,
			GiftCardDiscount: order.Totals.GiftCardDiscount,
			Total:            order.Totals.Total,
		},
		PointsUsed:       order.PointsUsed,
		Items:            make([]orderItemPayload, 0, len(order.Items)),
		TrackingProvider: cloneStringPointer(order.TrackingProvider),
		TrackingNumber:   cloneStringPointer(order.TrackingNumber),
		TrackingSyncedAt: formatTimePtr(order.TrackingSyncedAt),
		Metadata:         order.Metadata,
		CreatedAt:        formatTime(order.CreatedAt),
		UpdatedAt:        formatTime(order.UpdatedAt),
		PaidAt:           formatTimePtr(order.PaidAt),
		ShippedAt:        formatTimePtr(order.ShippedAt),
		CompletedAt:      formatTimePtr(order.CompletedAt),
		CancelledAt:      formatTimePtr(order.CancelledAt),
	}

	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ID:           item.ID,
			ProductID:    item.ProductID,
			SkuID:        item.SkuID,
			ProductTitle: item.ProductTitle,
			SkuCode:      item.SkuCode,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Total:        item.Total,
			Metadata:     item.Metadata,
		})
	}
	return payload
}
