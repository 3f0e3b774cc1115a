package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/services"
)

const maxReviewBodySize = 32 * 1024

// ReviewHandlers exposes review submission and moderation endpoints.
type ReviewHandlers struct {
	reviews services.ReviewService
}

// NewReviewHandlers constructs a new ReviewHandlers instance.
func NewReviewHandlers(reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviews: reviews}
}

// Routes registers the /reviews endpoints.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitReview)
	r.Post("/{reviewID}/moderation", h.moderateReview)
	r.Get("/products/{productID}", h.listByProduct)
}

func (h *ReviewHandlers) submitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitReviewRequest
	if err := decodeJSONBody(r, maxReviewBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	review, err := h.reviews.Submit(ctx, services.SubmitReviewCommand{
		ProductID: strings.TrimSpace(req.ProductID),
		OrderID:   strings.TrimSpace(req.OrderID),
		UserID:    strings.TrimSpace(req.UserID),
		Rating:    req.Rating,
		Content:   req.Content,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, reviewResponse{Review: buildReviewPayload(review)})
}

func (h *ReviewHandlers) moderateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req moderateReviewRequest
	if err := decodeJSONBody(r, maxReviewBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	review, err := h.reviews.Moderate(ctx, services.ModerateReviewCommand{
		ReviewID: chi.URLParam(r, "reviewID"),
		Approve:  req.Approve,
		ActorID:  actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, reviewResponse{Review: buildReviewPayload(review)})
}

func (h *ReviewHandlers) listByProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is malformed", http.StatusBadRequest))
		return
	}

	page, err := h.reviews.ListByProduct(ctx, chi.URLParam(r, "productID"), pager)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := reviewListResponse{
		Reviews:       make([]reviewPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, review := range page.Items {
		payload.Reviews = append(payload.Reviews, buildReviewPayload(review))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type submitReviewRequest struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Content   string `json:"content"`
}

type moderateReviewRequest struct {
	Approve bool `json:"approve"`
}

type reviewResponse struct {
	Review reviewPayload `json:"review"`
}

type reviewListResponse struct {
	Reviews       []reviewPayload `json:"reviews"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type reviewPayload struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	OrderID     string  `json:"order_id,omitempty"`
	UserID      string  `json:"user_id"`
	Rating      int     `json:"rating"`
	Content     string  `json:"content"`
	Status      string  `json:"status"`
	ModeratedBy *string `json:"moderated_by,omitempty"`
	ModeratedAt string  `json:"moderated_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func buildReviewPayload(review services.Review) reviewPayload {
	return reviewPayload{
		ID:          review.ID,
		ProductID:   review.ProductID,
		OrderID:     review.OrderID,
		UserID:      review.UserID,
		Rating:      review.Rating,
		Content:     review.Content,
		Status:      string(review.Status),
		ModeratedBy: cloneStringPointer(review.ModeratedBy),
		ModeratedAt: formatTimePtr(review.ModeratedAt),
		CreatedAt:   formatTime(review.CreatedAt),
	}
}
