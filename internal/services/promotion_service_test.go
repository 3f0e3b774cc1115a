package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
)

func newPromotionFixture(t *testing.T, promotions *stubPromotionRepository) (PromotionService, *recordingAudit) {
	t.Helper()
	if promotions == nil {
		promotions = &stubPromotionRepository{}
	}
	audit := &recordingAudit{}

	svc, err := NewPromotionService(PromotionServiceDeps{
		Promotions:  promotions,
		Audit:       audit,
		Clock:       fixedClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("TEST"),
	})
	if err != nil {
		t.Fatalf("NewPromotionService() error = %v", err)
	}
	return svc, audit
}

func TestCreateCouponNormalizesCode(t *testing.T) {
	var inserted domain.Coupon
	promotions := &stubPromotionRepository{
		insertCouponFn: func(ctx context.Context, coupon domain.Coupon) error {
			inserted = coupon
			return nil
		},
	}
	svc, audit := newPromotionFixture(t, promotions)

	coupon, err := svc.CreateCoupon(context.Background(), CreateCouponCommand{
		Code:    " spring10 ",
		Kind:    domain.CouponKindPercent,
		Value:   10,
		ActorID: "staff_1",
	})
	if err != nil {
		t.Fatalf("CreateCoupon() error = %v", err)
	}

	if coupon.Code != "SPRING10" {
		t.Fatalf("code not normalized: %q", coupon.Code)
	}
	if !coupon.Enabled {
		t.Fatal("new coupon should be enabled")
	}
	if inserted.ID != coupon.ID || coupon.ID != "cpn_TEST0001" {
		t.Fatalf("unexpected coupon id %q", coupon.ID)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "coupon.create" {
		t.Fatalf("unexpected audit trail: %+v", audit.records)
	}
}

func TestCreateCouponValidation(t *testing.T) {
	svc, _ := newPromotionFixture(t, nil)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	cases := []struct {
		name string
		cmd  CreateCouponCommand
	}{
		{"blank code", CreateCouponCommand{Kind: domain.CouponKindFixed, Value: 100}},
		{"unknown kind", CreateCouponCommand{Code: "A", Kind: "bogus", Value: 100}},
		{"non-positive value", CreateCouponCommand{Code: "A", Kind: domain.CouponKindFixed, Value: 0}},
		{"percent over 100", CreateCouponCommand{Code: "A", Kind: domain.CouponKindPercent, Value: 150}},
		{"inverted window", CreateCouponCommand{Code: "A", Kind: domain.CouponKindFixed, Value: 100, StartsAt: &start, EndsAt: &end}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCoupon(context.Background(), tc.cmd)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.ErrCode != CodeInvalidCoupon {
				t.Fatalf("expected %s, got %v", CodeInvalidCoupon, err)
			}
		})
	}
}

func TestRedeemCouponComputesPercentDiscount(t *testing.T) {
	var updated domain.Coupon
	promotions := &stubPromotionRepository{
		findCouponFn: func(ctx context.Context, code string) (domain.Coupon, error) {
			return domain.Coupon{
				ID:      "cpn_1",
				Code:    code,
				Kind:    domain.CouponKindPercent,
				Value:   25,
				Enabled: true,
			}, nil
		},
		updateCouponFn: func(ctx context.Context, coupon domain.Coupon) error {
			updated = coupon
			return nil
		},
	}
	svc, _ := newPromotionFixture(t, promotions)

	redemption, err := svc.RedeemCoupon(context.Background(), RedeemCouponCommand{
		Code:     "save25",
		Subtotal: 4000,
		UserID:   "usr_1",
	})
	if err != nil {
		t.Fatalf("RedeemCoupon() error = %v", err)
	}

	if redemption.Discount != 1000 {
		t.Fatalf("expected discount 1000, got %d", redemption.Discount)
	}
	if updated.UsedCount != 1 {
		t.Fatalf("usage counter not incremented: %d", updated.UsedCount)
	}
}

func TestRedeemCouponEnforcesLimits(t *testing.T) {
	expired := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		coupon domain.Coupon
	}{
		{"disabled", domain.Coupon{Kind: domain.CouponKindFixed, Value: 100}},
		{"expired", domain.Coupon{Kind: domain.CouponKindFixed, Value: 100, Enabled: true, EndsAt: &expired}},
		{"limit reached", domain.Coupon{Kind: domain.CouponKindFixed, Value: 100, Enabled: true, UsageLimit: 3, UsedCount: 3}},
		{"min spend", domain.Coupon{Kind: domain.CouponKindFixed, Value: 100, Enabled: true, MinSpend: 5000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			promotions := &stubPromotionRepository{
				findCouponFn: func(ctx context.Context, code string) (domain.Coupon, error) {
					return tc.coupon, nil
				},
			}
			svc, _ := newPromotionFixture(t, promotions)

			_, err := svc.RedeemCoupon(context.Background(), RedeemCouponCommand{Code: "X", Subtotal: 1000, UserID: "usr_1"})
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.ErrCode != CodeInvalidCoupon {
				t.Fatalf("expected %s, got %v", CodeInvalidCoupon, err)
			}
		})
	}
}

func TestRedeemGiftCardClampsAtBalance(t *testing.T) {
	var updated domain.GiftCard
	promotions := &stubPromotionRepository{
		findGiftCardFn: func(ctx context.Context, code string) (domain.GiftCard, error) {
			return domain.GiftCard{ID: "gft_1", Code: code, Balance: 300, Enabled: true}, nil
		},
		updateGiftCardFn: func(ctx context.Context, card domain.GiftCard) error {
			updated = card
			return nil
		},
	}
	svc, _ := newPromotionFixture(t, promotions)

	redemption, err := svc.RedeemGiftCard(context.Background(), RedeemGiftCardCommand{
		Code:   "gift-300",
		Amount: 1000,
		UserID: "usr_1",
	})
	if err != nil {
		t.Fatalf("RedeemGiftCard() error = %v", err)
	}

	if redemption.Debited != 300 {
		t.Fatalf("expected debit clamped to 300, got %d", redemption.Debited)
	}
	if updated.Balance != 0 {
		t.Fatalf("expected zero remaining balance, got %d", updated.Balance)
	}
}

func TestRedeemPointsChecksBalance(t *testing.T) {
	promotions := &stubPromotionRepository{
		pointsBalanceFn: func(ctx context.Context, userID string) (int, error) {
			return 50, nil
		},
	}
	svc, _ := newPromotionFixture(t, promotions)

	_, err := svc.RedeemPoints(context.Background(), PointsCommand{
		UserID: "usr_1",
		Points: 100,
		Reason: "checkout",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.ErrCode != CodeInvalidPoints {
		t.Fatalf("expected %s, got %v", CodeInvalidPoints, err)
	}
}

func TestEarnPointsAppendsLedgerEntry(t *testing.T) {
	var appended domain.PointsEntry
	promotions := &stubPromotionRepository{
		appendPointsFn: func(ctx context.Context, entry domain.PointsEntry) error {
			appended = entry
			return nil
		},
	}
	svc, audit := newPromotionFixture(t, promotions)

	entry, err := svc.EarnPoints(context.Background(), PointsCommand{
		UserID:  "usr_1",
		OrderID: "ord_1",
		Points:  120,
		Reason:  "purchase",
		ActorID: "system",
	})
	if err != nil {
		t.Fatalf("EarnPoints() error = %v", err)
	}

	if entry.Delta != 120 || appended.Delta != 120 {
		t.Fatalf("unexpected delta: entry=%d stored=%d", entry.Delta, appended.Delta)
	}
	if entry.ID != "pts_TEST0001" {
		t.Fatalf("unexpected entry id %q", entry.ID)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "points.earn" {
		t.Fatalf("unexpected audit trail: %+v", audit.records)
	}
}
