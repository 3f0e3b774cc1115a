package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/services"
)

type stubReviewService struct {
	submitFn   func(ctx context.Context, cmd services.SubmitReviewCommand) (services.Review, error)
	moderateFn func(ctx context.Context, cmd services.ModerateReviewCommand) (services.Review, error)
	listFn     func(ctx context.Context, productID string, pager services.Pagination) (domain.CursorPage[services.Review], error)
}

func (s *stubReviewService) Submit(ctx context.Context, cmd services.SubmitReviewCommand) (services.Review, error) {
	return s.submitFn(ctx, cmd)
}

func (s *stubReviewService) Moderate(ctx context.Context, cmd services.ModerateReviewCommand) (services.Review, error) {
	return s.moderateFn(ctx, cmd)
}

func (s *stubReviewService) ListByProduct(ctx context.Context, productID string, pager services.Pagination) (domain.CursorPage[services.Review], error) {
	return s.listFn(ctx, productID, pager)
}

func newReviewRouter(svc services.ReviewService) http.Handler {
	return NewRouter(
		WithMiddlewares(ActorMiddleware()),
		WithReviewRoutes(NewReviewHandlers(svc).Routes),
	)
}

func TestSubmitReviewReturnsCreated(t *testing.T) {
	created := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	var captured services.SubmitReviewCommand
	svc := &stubReviewService{
		submitFn: func(_ context.Context, cmd services.SubmitReviewCommand) (services.Review, error) {
			captured = cmd
			return services.Review{
				ID:        "rev_1",
				ProductID: cmd.ProductID,
				UserID:    cmd.UserID,
				Rating:    cmd.Rating,
				Content:   cmd.Content,
				Status:    domain.ReviewStatusPending,
				CreatedAt: created,
			}, nil
		},
	}
	router := newReviewRouter(svc)

	body := `{"product_id":"prd_1","user_id":"usr_9","rating":5,"content":"Solid build quality."}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ProductID != "prd_1" || captured.Rating != 5 {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var resp reviewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Review.Status != "pending" {
		t.Fatalf("expected pending review, got %+v", resp.Review)
	}
}

func TestSubmitReviewInvalidRating(t *testing.T) {
	svc := &stubReviewService{
		submitFn: func(context.Context, services.SubmitReviewCommand) (services.Review, error) {
			return services.Review{}, services.NewValidationError(services.CodeInvalidReview, "rating must be between 1 and 5")
		},
	}
	router := newReviewRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", bytes.NewBufferString(`{"product_id":"prd_1","rating":9}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	assertErrorCode(t, rr.Body.Bytes(), services.CodeInvalidReview)
}

func TestModerateReviewApprovesWithActor(t *testing.T) {
	var captured services.ModerateReviewCommand
	svc := &stubReviewService{
		moderateFn: func(_ context.Context, cmd services.ModerateReviewCommand) (services.Review, error) {
			captured = cmd
			moderator := cmd.ActorID
			at := time.Date(2026, time.June, 2, 9, 0, 0, 0, time.UTC)
			return services.Review{
				ID:          cmd.ReviewID,
				Status:      domain.ReviewStatusApproved,
				ModeratedBy: &moderator,
				ModeratedAt: &at,
			}, nil
		},
	}
	router := newReviewRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/rev_1/moderation", bytes.NewBufferString(`{"approve":true}`))
	req.Header.Set("X-Actor-Id", "staff_mei")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ReviewID != "rev_1" || !captured.Approve || captured.ActorID != "staff_mei" {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var resp reviewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Review.Status != "approved" || resp.Review.ModeratedBy == nil {
		t.Fatalf("unexpected review payload: %+v", resp.Review)
	}
}

func TestListReviewsByProduct(t *testing.T) {
	svc := &stubReviewService{
		listFn: func(_ context.Context, productID string, pager services.Pagination) (domain.CursorPage[services.Review], error) {
			if productID != "prd_1" {
				t.Fatalf("unexpected product id %s", productID)
			}
			if pager.PageSize != 10 {
				t.Fatalf("expected page size 10, got %d", pager.PageSize)
			}
			return domain.CursorPage[services.Review]{
				Items: []services.Review{{ID: "rev_1", ProductID: "prd_1", Rating: 4}},
			}, nil
		},
	}
	router := newReviewRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/products/prd_1?page_size=10", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp reviewListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Reviews) != 1 || resp.Reviews[0].ID != "rev_1" {
		t.Fatalf("unexpected reviews: %+v", resp.Reviews)
	}
}
