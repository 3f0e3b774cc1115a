package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

func newReviewFixture(t *testing.T, reviews *stubReviewRepository, products *stubProductRepository) (ReviewService, *recordingAudit) {
	t.Helper()
	if reviews == nil {
		reviews = &stubReviewRepository{}
	}
	audit := &recordingAudit{}

	deps := ReviewServiceDeps{
		Reviews:     reviews,
		Audit:       audit,
		Clock:       fixedClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("TEST"),
	}
	if products != nil {
		deps.Products = products
	}
	svc, err := NewReviewService(deps)
	if err != nil {
		t.Fatalf("NewReviewService() error = %v", err)
	}
	return svc, audit
}

func TestReviewSubmitStripsMarkup(t *testing.T) {
	var inserted domain.Review
	reviews := &stubReviewRepository{
		insertFn: func(ctx context.Context, review domain.Review) (domain.Review, error) {
			inserted = review
			return review, nil
		},
	}
	svc, audit := newReviewFixture(t, reviews, nil)

	review, err := svc.Submit(context.Background(), SubmitReviewCommand{
		ProductID: "prd_1",
		UserID:    "usr_1",
		Rating:    4,
		Content:   `Great build <script>alert("x")</script> quality`,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if strings.Contains(review.Content, "<script>") || strings.Contains(review.Content, "alert") {
		t.Fatalf("markup survived sanitization: %q", review.Content)
	}
	if !strings.Contains(review.Content, "Great build") {
		t.Fatalf("text content lost: %q", review.Content)
	}
	if review.Status != domain.ReviewStatusPending {
		t.Fatalf("expected pending status, got %q", review.Status)
	}
	if review.ID != "rev_TEST0001" {
		t.Fatalf("unexpected review id %q", review.ID)
	}
	if inserted.ID != review.ID {
		t.Fatalf("repository saw different review: %q", inserted.ID)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "review.submit" {
		t.Fatalf("unexpected audit trail: %+v", audit.records)
	}
}

func TestReviewSubmitRejectsOutOfRangeRating(t *testing.T) {
	svc, _ := newReviewFixture(t, nil, nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), SubmitReviewCommand{
			ProductID: "prd_1",
			UserID:    "usr_1",
			Rating:    rating,
		})
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.ErrCode != CodeInvalidReview {
			t.Fatalf("rating %d: expected %s, got %v", rating, CodeInvalidReview, err)
		}
	}
}

func TestReviewSubmitChecksProductExists(t *testing.T) {
	products := &stubProductRepository{
		findFn: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{}, notFoundErr("product missing")
		},
	}
	svc, _ := newReviewFixture(t, nil, products)

	_, err := svc.Submit(context.Background(), SubmitReviewCommand{
		ProductID: "prd_missing",
		UserID:    "usr_1",
		Rating:    5,
	})
	var nferr *NotFoundError
	if !errors.As(err, &nferr) || nferr.ErrCode != CodeProductNotFound {
		t.Fatalf("expected %s, got %v", CodeProductNotFound, err)
	}
}

func TestReviewModerateApproves(t *testing.T) {
	var gotStatus domain.ReviewStatus
	var gotUpdate repositories.ReviewModerationUpdate
	reviews := &stubReviewRepository{
		findFn: func(ctx context.Context, reviewID string) (domain.Review, error) {
			return domain.Review{ID: reviewID, Status: domain.ReviewStatusPending}, nil
		},
		updateStatusFn: func(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (domain.Review, error) {
			gotStatus = status
			gotUpdate = update
			return domain.Review{ID: reviewID, Status: status}, nil
		},
	}
	svc, audit := newReviewFixture(t, reviews, nil)

	review, err := svc.Moderate(context.Background(), ModerateReviewCommand{
		ReviewID: "rev_1",
		Approve:  true,
		ActorID:  "staff_1",
	})
	if err != nil {
		t.Fatalf("Moderate() error = %v", err)
	}

	if gotStatus != domain.ReviewStatusApproved || review.Status != domain.ReviewStatusApproved {
		t.Fatalf("expected approved, got %q/%q", gotStatus, review.Status)
	}
	if gotUpdate.ModeratedBy != "staff_1" || gotUpdate.ModeratedAt.IsZero() {
		t.Fatalf("unexpected moderation update: %+v", gotUpdate)
	}
	if len(audit.records) != 1 || audit.records[0].Metadata["status"] != "approved" {
		t.Fatalf("unexpected audit trail: %+v", audit.records)
	}
}

func TestReviewModerateRejectsByDefault(t *testing.T) {
	reviews := &stubReviewRepository{
		findFn: func(ctx context.Context, reviewID string) (domain.Review, error) {
			return domain.Review{ID: reviewID}, nil
		},
		updateStatusFn: func(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (domain.Review, error) {
			return domain.Review{ID: reviewID, Status: status}, nil
		},
	}
	svc, _ := newReviewFixture(t, reviews, nil)

	review, err := svc.Moderate(context.Background(), ModerateReviewCommand{ReviewID: "rev_1", ActorID: "staff_1"})
	if err != nil {
		t.Fatalf("Moderate() error = %v", err)
	}
	if review.Status != domain.ReviewStatusRejected {
		t.Fatalf("expected rejected, got %q", review.Status)
	}
}

func TestReviewModerateMapsMissingReview(t *testing.T) {
	reviews := &stubReviewRepository{
		findFn: func(ctx context.Context, reviewID string) (domain.Review, error) {
			return domain.Review{}, notFoundErr("review missing")
		},
	}
	svc, _ := newReviewFixture(t, reviews, nil)

	_, err := svc.Moderate(context.Background(), ModerateReviewCommand{ReviewID: "rev_missing", ActorID: "staff_1"})
	var nferr *NotFoundError
	if !errors.As(err, &nferr) || nferr.ErrCode != CodeReviewNotFound {
		t.Fatalf("expected %s, got %v", CodeReviewNotFound, err)
	}
}
