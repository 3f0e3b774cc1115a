package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

const (
	reviewIDPrefix   = "rev_"
	maxReviewContent = 4000
)

// ReviewServiceDeps bundles collaborators required to construct the review service.
type ReviewServiceDeps struct {
	Reviews     repositories.ReviewRepository
	Products    repositories.ProductRepository
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type reviewService struct {
	reviews   repositories.ReviewRepository
	products  repositories.ProductRepository
	audit     AuditLogService
	sanitizer *bluemonday.Policy
	clock     func() time.Time
	newID     func() string
}

// NewReviewService wires dependencies into a concrete ReviewService implementation.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service: review repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &reviewService{
		reviews:   deps.Reviews,
		products:  deps.Products,
		audit:     deps.Audit,
		sanitizer: bluemonday.StrictPolicy(),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *reviewService) Submit(ctx context.Context, cmd SubmitReviewCommand) (Review, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	userID := strings.TrimSpace(cmd.UserID)
	if productID == "" || userID == "" {
		return Review{}, NewValidationError(CodeInvalidReview, "product id and user id are required")
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return Review{}, NewValidationError(CodeInvalidReview, "rating %d is out of range 1-5", cmd.Rating)
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Content))
	if len(content) > maxReviewContent {
		return Review{}, NewValidationError(CodeInvalidReview, "content exceeds %d characters", maxReviewContent)
	}

	if s.products != nil {
		if _, err := s.products.FindByID(ctx, productID); err != nil {
			return Review{}, NewNotFoundError(CodeProductNotFound, "product %s not found", productID)
		}
	}

	review := Review{
		ID:        reviewIDPrefix + s.newID(),
		ProductID: productID,
		OrderID:   strings.TrimSpace(cmd.OrderID),
		UserID:    userID,
		Rating:    cmd.Rating,
		Content:   content,
		Status:    domain.ReviewStatusPending,
		CreatedAt: s.clock(),
	}

	stored, err := s.reviews.Insert(ctx, review)
	if err != nil {
		return Review{}, err
	}

	if s.audit != nil {
		s.audit.Record(ctx, AuditLogRecord{
			Actor:      userID,
			ActorType:  "customer",
			Action:     "review.submit",
			TargetType: "review",
			TargetID:   stored.ID,
			Metadata:   map[string]any{"productId": productID, "rating": cmd.Rating},
		})
	}
	return stored, nil
}

func (s *reviewService) Moderate(ctx context.Context, cmd ModerateReviewCommand) (Review, error) {
	reviewID := strings.TrimSpace(cmd.ReviewID)
	if reviewID == "" {
		return Review{}, NewValidationError(CodeInvalidReview, "review id is required")
	}

	if _, err := s.reviews.FindByID(ctx, reviewID); err != nil {
		return Review{}, s.mapRepositoryError(err, reviewID)
	}

	status := domain.ReviewStatusRejected
	if cmd.Approve {
		status = domain.ReviewStatusApproved
	}

	updated, err := s.reviews.UpdateStatus(ctx, reviewID, status, repositories.ReviewModerationUpdate{
		ModeratedBy: strings.TrimSpace(cmd.ActorID),
		ModeratedAt: s.clock(),
	})
	if err != nil {
		return Review{}, s.mapRepositoryError(err, reviewID)
	}

	if s.audit != nil {
		s.audit.Record(ctx, AuditLogRecord{
			Actor:      cmd.ActorID,
			Action:     "review.moderate",
			TargetType: "review",
			TargetID:   reviewID,
			Metadata:   map[string]any{"status": string(status)},
		})
	}
	return updated, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string, pager Pagination) (domain.CursorPage[Review], error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.CursorPage[Review]{}, NewValidationError(CodeInvalidReview, "product id is required")
	}
	return s.reviews.ListByProduct(ctx, productID, pager)
}

func (s *reviewService) mapRepositoryError(err error, reviewID string) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return NewNotFoundError(CodeReviewNotFound, "review %s not found", reviewID)
	}
	return err
}
