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

const (
	couponsCollection        = "coupons"
	giftCardsCollection      = "giftCards"
	pointsLedgerCollection   = "pointsLedger"
	pointsBalancesCollection = "pointsBalances"
)

// Coupon and gift card documents are keyed by their normalized code so that
// redemptions inside a transaction resolve with a direct document get and
// duplicate codes surface as creation conflicts.
type couponDocument struct {
	CouponID   string     `firestore:"couponId"`
	Kind       string     `firestore:"kind"`
	Value      int64      `firestore:"value"`
	MinSpend   int64      `firestore:"minSpend"`
	StartsAt   *time.Time `firestore:"startsAt,omitempty"`
	EndsAt     *time.Time `firestore:"endsAt,omitempty"`
	UsageLimit int        `firestore:"usageLimit"`
	UsedCount  int        `firestore:"usedCount"`
	Enabled    bool       `firestore:"enabled"`
	CreatedAt  time.Time  `firestore:"createdAt"`
	UpdatedAt  time.Time  `firestore:"updatedAt"`
}

type giftCardDocument struct {
	CardID    string     `firestore:"cardId"`
	Balance   int64      `firestore:"balance"`
	Currency  string     `firestore:"currency"`
	ExpiresAt *time.Time `firestore:"expiresAt,omitempty"`
	Enabled   bool       `firestore:"enabled"`
	CreatedAt time.Time  `firestore:"createdAt"`
	UpdatedAt time.Time  `firestore:"updatedAt"`
}

type pointsEntryDocument struct {
	UserID    string    `firestore:"userId"`
	OrderID   string    `firestore:"orderId,omitempty"`
	Delta     int       `firestore:"delta"`
	Reason    string    `firestore:"reason,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type pointsBalanceDocument struct {
	Balance   int       `firestore:"balance"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type PromotionRepository struct {
	provider *pfirestore.Provider
	coupons  *pfirestore.Collection[couponDocument]
	cards    *pfirestore.Collection[giftCardDocument]
	ledger   *pfirestore.Collection[pointsEntryDocument]
	balances *pfirestore.Collection[pointsBalanceDocument]
}

func NewPromotionRepository(provider *pfirestore.Provider) (*PromotionRepository, error) {
	if provider == nil {
		return nil, errors.New("promotion repository requires firestore provider")
	}
	return &PromotionRepository{
		provider: provider,
		coupons:  pfirestore.NewCollection[couponDocument](provider, couponsCollection),
		cards:    pfirestore.NewCollection[giftCardDocument](provider, giftCardsCollection),
		ledger:   pfirestore.NewCollection[pointsEntryDocument](provider, pointsLedgerCollection),
		balances: pfirestore.NewCollection[pointsBalanceDocument](provider, pointsBalancesCollection),
	}, nil
}

func (r *PromotionRepository) InsertCoupon(ctx context.Context, coupon domain.Coupon) error {
	return r.coupons.Create(ctx, coupon.Code, newCouponDocument(coupon))
}

func (r *PromotionRepository) UpdateCoupon(ctx context.Context, coupon domain.Coupon) error {
	return r.coupons.Set(ctx, coupon.Code, newCouponDocument(coupon))
}

func (r *PromotionRepository) FindCouponByCode(ctx context.Context, code string) (domain.Coupon, error) {
	doc, err := r.coupons.Get(ctx, code)
	if err != nil {
		return domain.Coupon{}, err
	}
	return doc.toDomain(code), nil
}

func (r *PromotionRepository) ListCoupons(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Coupon], error) {
	pager = pagination.Normalize(pager)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Coupon]{}, err
	}

	docs, err := r.coupons.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pager.PageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Coupon]{}, err
	}

	page := domain.CursorPage[domain.Coupon]{}
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

func (r *PromotionRepository) InsertGiftCard(ctx context.Context, card domain.GiftCard) error {
	return r.cards.Create(ctx, card.Code, newGiftCardDocument(card))
}

func (r *PromotionRepository) UpdateGiftCard(ctx context.Context, card domain.GiftCard) error {
	return r.cards.Set(ctx, card.Code, newGiftCardDocument(card))
}

func (r *PromotionRepository) FindGiftCardByCode(ctx context.Context, code string) (domain.GiftCard, error) {
	doc, err := r.cards.Get(ctx, code)
	if err != nil {
		return domain.GiftCard{}, err
	}
	return doc.toDomain(code), nil
}

// AppendPointsEntry writes the ledger entry and folds its delta into the
// per-user balance document so PointsBalance stays a single read.
func (r *PromotionRepository) AppendPointsEntry(ctx context.Context, entry domain.PointsEntry) error {
	write := func(ctx context.Context) error {
		balance, err := r.balances.Get(ctx, entry.UserID)
		if err != nil {
			if !isNotFound(err) {
				return err
			}
			balance = pointsBalanceDocument{}
		}
		balance.Balance += entry.Delta
		balance.UpdatedAt = entry.CreatedAt

		if err := r.ledger.Create(ctx, entry.ID, pointsEntryDocument{
			UserID:    entry.UserID,
			OrderID:   entry.OrderID,
			Delta:     entry.Delta,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		}); err != nil {
			return err
		}
		return r.balances.Set(ctx, entry.UserID, balance)
	}

	// RunInTx joins an ambient transaction, so the read-modify-write pair is
	// atomic whether or not the caller already opened one.
	return r.provider.RunInTx(ctx, write)
}

func (r *PromotionRepository) PointsBalance(ctx context.Context, userID string) (int, error) {
	doc, err := r.balances.Get(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return doc.Balance, nil
}

func (r *PromotionRepository) ListPointsEntries(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.PointsEntry], error) {
	pager = pagination.Normalize(pager)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.PointsEntry]{}, err
	}

	docs, err := r.ledger.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("userId", "==", userID).
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pager.PageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.PointsEntry]{}, err
	}

	page := domain.CursorPage[domain.PointsEntry]{}
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

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func newCouponDocument(coupon domain.Coupon) couponDocument {
	return couponDocument{
		CouponID:   coupon.ID,
		Kind:       string(coupon.Kind),
		Value:      coupon.Value,
		MinSpend:   coupon.MinSpend,
		StartsAt:   coupon.StartsAt,
		EndsAt:     coupon.EndsAt,
		UsageLimit: coupon.UsageLimit,
		UsedCount:  coupon.UsedCount,
		Enabled:    coupon.Enabled,
		CreatedAt:  coupon.CreatedAt,
		UpdatedAt:  coupon.UpdatedAt,
	}
}

func (d couponDocument) toDomain(code string) domain.Coupon {
	return domain.Coupon{
		ID:         d.CouponID,
		Code:       code,
		Kind:       domain.CouponKind(d.Kind),
		Value:      d.Value,
		MinSpend:   d.MinSpend,
		StartsAt:   d.StartsAt,
		EndsAt:     d.EndsAt,
		UsageLimit: d.UsageLimit,
		UsedCount:  d.UsedCount,
		Enabled:    d.Enabled,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func newGiftCardDocument(card domain.GiftCard) giftCardDocument {
	return giftCardDocument{
		CardID:    card.ID,
		Balance:   card.Balance,
		Currency:  card.Currency,
		ExpiresAt: card.ExpiresAt,
		Enabled:   card.Enabled,
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}
}

func (d giftCardDocument) toDomain(code string) domain.GiftCard {
	return domain.GiftCard{
		ID:        d.CardID,
		Code:      code,
		Balance:   d.Balance,
		Currency:  d.Currency,
		ExpiresAt: d.ExpiresAt,
		Enabled:   d.Enabled,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d pointsEntryDocument) toDomain(id string) domain.PointsEntry {
	return domain.PointsEntry{
		ID:        id,
		UserID:    d.UserID,
		OrderID:   d.OrderID,
		Delta:     d.Delta,
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt,
	}
}
