package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shopward/backoffice/internal/domain"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/repositories"
)

const reviewsCollection = "reviews"

type reviewDocument struct {
	ProductID   string     `firestore:"productId"`
	OrderID     string     `firestore:"orderId,omitempty"`
	UserID      string     `firestore:"userId"`
	Rating      int        `firestore:"rating"`
	Content     string     `firestore:"content,omitempty"`
	Status      string     `firestore:"status"`
	ModeratedBy *string    `firestore:"moderatedBy,omitempty"`
	ModeratedAt *time.Time `firestore:"moderatedAt,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt"`
}

type ReviewRepository struct {
	reviews *pfirestore.Collection[reviewDocument]
}

func NewReviewRepository(provider *pfirestore.Provider) (*ReviewRepository, error) {
	if provider == nil {
		return nil, errors.New("review repository requires firestore provider")
	}
	return &ReviewRepository{
		reviews: pfirestore.NewCollection[reviewDocument](provider, reviewsCollection),
	}, nil
}

func (r *ReviewRepository) Insert(ctx context.Context, review domain.Review) (domain.Review, error) {
	if err := r.reviews.Create(ctx, review.ID, newReviewDocument(review)); err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, reviewID string) (domain.Review, error) {
	doc, err := r.reviews.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	return doc.toDomain(reviewID), nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, pager domain.Pagination) (domain.CursorPage[domain.Review], error) {
	pager = pagination.Normalize(pager)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Review]{}, err
	}

	docs, err := r.reviews.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("productId", "==", productID).
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pager.PageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Review]{}, err
	}

	page := domain.CursorPage[domain.Review]{}
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

func (r *ReviewRepository) UpdateStatus(ctx context.Context, reviewID string, status domain.ReviewStatus, update repositories.ReviewModerationUpdate) (domain.Review, error) {
	doc, err := r.reviews.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}

	doc.Status = string(status)
	if update.ModeratedBy != "" {
		doc.ModeratedBy = &update.ModeratedBy
	}
	if !update.ModeratedAt.IsZero() {
		at := update.ModeratedAt
		doc.ModeratedAt = &at
	}

	if err := r.reviews.Set(ctx, reviewID, doc); err != nil {
		return domain.Review{}, err
	}
	return doc.toDomain(reviewID), nil
}

func newReviewDocument(review domain.Review) reviewDocument {
	return reviewDocument{
		ProductID:   review.ProductID,
		OrderID:     review.OrderID,
		UserID:      review.UserID,
		Rating:      review.Rating,
		Content:     review.Content,
		Status:      string(review.Status),
		ModeratedBy: review.ModeratedBy,
		ModeratedAt: review.ModeratedAt,
		CreatedAt:   review.CreatedAt,
	}
}

func (d reviewDocument) toDomain(id string) domain.Review {
	return domain.Review{
		ID:          id,
		ProductID:   d.ProductID,
		OrderID:     d.OrderID,
		UserID:      d.UserID,
		Rating:      d.Rating,
		Content:     d.Content,
		Status:      domain.ReviewStatus(d.Status),
		ModeratedBy: d.ModeratedBy,
		ModeratedAt: d.ModeratedAt,
		CreatedAt:   d.CreatedAt,
	}
}
