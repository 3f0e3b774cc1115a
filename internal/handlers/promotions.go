package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/services"
)

const maxPromotionBodySize = 64 * 1024

// PromotionHandlers exposes coupon, gift card and loyalty point endpoints.
type PromotionHandlers struct {
	promotions services.PromotionService
}

// NewPromotionHandlers constructs a new PromotionHandlers instance.
func NewPromotionHandlers(promotions services.PromotionService) *PromotionHandlers {
	return &PromotionHandlers{promotions: promotions}
}

// Routes registers the /promotions endpoints.
func (h *PromotionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/coupons", h.createCoupon)
	r.Get("/coupons", h.listCoupons)
	r.Post("/coupons/redemptions", h.redeemCoupon)

	r.Post("/gift-cards", h.createGiftCard)
	r.Post("/gift-cards/redemptions", h.redeemGiftCard)

	r.Post("/points/earnings", h.earnPoints)
	r.Post("/points/redemptions", h.redeemPoints)
	r.Get("/points/{userID}/balance", h.pointsBalance)
	r.Get("/points/{userID}/entries", h.pointsHistory)
}

func (h *PromotionHandlers) createCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCouponRequest
	if err := decodeJSONBody(r, maxPromotionBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	startsAt, err := parseTimePtr(req.StartsAt)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError(services.CodeInvalidCoupon, "starts_at must be RFC3339", http.StatusBadRequest))
		return
	}
	endsAt, err := parseTimePtr(req.EndsAt)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError(services.CodeInvalidCoupon, "ends_at must be RFC3339", http.StatusBadRequest))
		return
	}

	coupon, err := h.promotions.CreateCoupon(ctx, services.CreateCouponCommand{
		Code:       strings.TrimSpace(req.Code),
		Kind:       domain.CouponKind(strings.TrimSpace(req.Kind)),
		Value:      req.Value,
		MinSpend:   req.MinSpend,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		UsageLimit: req.UsageLimit,
		ActorID:    actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, couponResponse{Coupon: buildCouponPayload(coupon)})
}

func (h *PromotionHandlers) listCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is malformed", http.StatusBadRequest))
		return
	}

	page, err := h.promotions.ListCoupons(ctx, pager)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := couponListResponse{
		Coupons:       make([]couponPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, coupon := range page.Items {
		payload.Coupons = append(payload.Coupons, buildCouponPayload(coupon))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *PromotionHandlers) redeemCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req redeemCouponRequest
	if err := decodeJSONBody(r, maxPromotionBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	redemption, err := h.promotions.RedeemCoupon(ctx, services.RedeemCouponCommand{
		Code:     strings.TrimSpace(req.Code),
		Subtotal: req.Subtotal,
		UserID:   strings.TrimSpace(req.UserID),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, couponRedemptionResponse{
		Coupon:   buildCouponPayload(redemption.Coupon),
		Discount: redemption.Discount,
	})
}

func (h *PromotionHandlers) createGiftCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createGiftCardRequest
	if err := decodeJSONBody(r, maxPromotionBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	expiresAt, err := parseTimePtr(req.ExpiresAt)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError(services.CodeInvalidGiftCard, "expires_at must be RFC3339", http.StatusBadRequest))
		return
	}

	card, err := h.promotions.CreateGiftCard(ctx, services.CreateGiftCardCommand{
		Code:      strings.TrimSpace(req.Code),
		Balance:   req.Balance,
		Currency:  strings.TrimSpace(req.Currency),
		ExpiresAt: expiresAt,
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, giftCardResponse{Card: buildGiftCardPayload(card)})
}

func (h *PromotionHandlers) redeemGiftCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req redeemGiftCardRequest
	if err := decodeJSONBody(r, maxPromotionBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	redemption, err := h.promotions.RedeemGiftCard(ctx, services.RedeemGiftCardCommand{
		Code:   strings.TrimSpace(req.Code),
		Amount: req.Amount,
		UserID: strings.TrimSpace(req.UserID),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, giftCardRedemptionResponse{
		Card:    buildGiftCardPayload(redemption.Card),
		Debited: redemption.Debited,
	})
}

func (h *PromotionHandlers) earnPoints(w http.ResponseWriter, r *http.Request) {
	h.applyPoints(w, r, h.promotions.EarnPoints)
}

func (h *PromotionHandlers) redeemPoints(w http.ResponseWriter, r *http.Request) {
	h.applyPoints(w, r, h.promotions.RedeemPoints)
}

func (h *PromotionHandlers) applyPoints(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, cmd services.PointsCommand) (services.PointsEntry, error)) {
	ctx := r.Context()

	var req pointsRequest
	if err := decodeJSONBody(r, maxPromotionBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	entry, err := run(ctx, services.PointsCommand{
		UserID:  strings.TrimSpace(req.UserID),
		OrderID: strings.TrimSpace(req.OrderID),
		Points:  req.Points,
		Reason:  strings.TrimSpace(req.Reason),
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, pointsEntryResponse{Entry: buildPointsEntryPayload(entry)})
}

func (h *PromotionHandlers) pointsBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := chi.URLParam(r, "userID")
	balance, err := h.promotions.PointsBalance(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pointsBalanceResponse{UserID: userID, Balance: balance})
}

func (h *PromotionHandlers) pointsHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is malformed", http.StatusBadRequest))
		return
	}

	userID := chi.URLParam(r, "userID")
	page, err := h.promotions.PointsHistory(ctx, userID, pager)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := pointsHistoryResponse{
		Entries:       make([]pointsEntryPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, entry := range page.Items {
		payload.Entries = append(payload.Entries, buildPointsEntryPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type createCouponRequest struct {
	Code       string `json:"code"`
	Kind       string `json:"kind"`
	Value      int64  `json:"value"`
	MinSpend   int64  `json:"min_spend"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	UsageLimit int    `json:"usage_limit"`
}

type redeemCouponRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
	UserID   string `json:"user_id"`
}

type couponResponse struct {
	Coupon couponPayload `json:"coupon"`
}

type couponListResponse struct {
	Coupons       []couponPayload `json:"coupons"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type couponRedemptionResponse struct {
	Coupon   couponPayload `json:"coupon"`
	Discount int64         `json:"discount"`
}

type couponPayload struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Kind       string `json:"kind"`
	Value      int64  `json:"value"`
	MinSpend   int64  `json:"min_spend,omitempty"`
	StartsAt   string `json:"starts_at,omitempty"`
	EndsAt     string `json:"ends_at,omitempty"`
	UsageLimit int    `json:"usage_limit,omitempty"`
	UsedCount  int    `json:"used_count"`
	Enabled    bool   `json:"enabled"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type createGiftCardRequest struct {
	Code      string `json:"code"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	ExpiresAt string `json:"expires_at"`
}

type redeemGiftCardRequest struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
	UserID string `json:"user_id"`
}

type giftCardResponse struct {
	Card giftCardPayload `json:"gift_card"`
}

type giftCardRedemptionResponse struct {
	Card    giftCardPayload `json:"gift_card"`
	Debited int64           `json:"debited"`
}

type giftCardPayload struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type pointsRequest struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Points  int    `json:"points"`
	Reason  string `json:"reason"`
}

type pointsEntryResponse struct {
	Entry pointsEntryPayload `json:"entry"`
}

type pointsEntryPayload struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	OrderID   string `json:"order_id,omitempty"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

type pointsHistoryResponse struct {
	Entries       []pointsEntryPayload `json:"entries"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type pointsBalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}

func buildCouponPayload(coupon services.Coupon) couponPayload {
	return couponPayload{
		ID:         coupon.ID,
		Code:       coupon.Code,
		Kind:       string(coupon.Kind),
		Value:      coupon.Value,
		MinSpend:   coupon.MinSpend,
		StartsAt:   formatTimePtr(coupon.StartsAt),
		EndsAt:     formatTimePtr(coupon.EndsAt),
		UsageLimit: coupon.UsageLimit,
		UsedCount:  coupon.UsedCount,
		Enabled:    coupon.Enabled,
		CreatedAt:  formatTime(coupon.CreatedAt),
		UpdatedAt:  formatTime(coupon.UpdatedAt),
	}
}

func buildGiftCardPayload(card services.GiftCard) giftCardPayload {
	return giftCardPayload{
		ID:        card.ID,
		Code:      card.Code,
		Balance:   card.Balance,
		Currency:  card.Currency,
		ExpiresAt: formatTimePtr(card.ExpiresAt),
		Enabled:   card.Enabled,
		CreatedAt: formatTime(card.CreatedAt),
		UpdatedAt: formatTime(card.UpdatedAt),
	}
}

func buildPointsEntryPayload(entry services.PointsEntry) pointsEntryPayload {
	return pointsEntryPayload{
		ID:        entry.ID,
		UserID:    entry.UserID,
		OrderID:   entry.OrderID,
		Delta:     entry.Delta,
		Reason:    entry.Reason,
		CreatedAt: formatTime(entry.CreatedAt),
	}
}
