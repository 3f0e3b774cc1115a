package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

const (
	couponIDPrefix   = "cpn_"
	giftCardIDPrefix = "gft_"
	pointsIDPrefix   = "pts_"
)

// PromotionServiceDeps bundles collaborators required to construct the promotion service.
type PromotionServiceDeps struct {
	Promotions  repositories.PromotionRepository
	UnitOfWork  repositories.UnitOfWork
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type promotionService struct {
	promotions repositories.PromotionRepository
	unitOfWork repositories.UnitOfWork
	audit      AuditLogService
	clock      func() time.Time
	newID      func() string
}

// NewPromotionService wires dependencies into a concrete PromotionService implementation.
func NewPromotionService(deps PromotionServiceDeps) (PromotionService, error) {
	if deps.Promotions == nil {
		return nil, errors.New("promotion service: promotion repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
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

	return &promotionService{
		promotions: deps.Promotions,
		unitOfWork: unit,
		audit:      deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *promotionService) CreateCoupon(ctx context.Context, cmd CreateCouponCommand) (Coupon, error) {
	code := normalizeCode(cmd.Code)
	if code == "" {
		return Coupon{}, NewValidationError(CodeInvalidCoupon, "coupon code is required")
	}
	if cmd.Kind != domain.CouponKindPercent && cmd.Kind != domain.CouponKindFixed {
		return Coupon{}, NewValidationError(CodeInvalidCoupon, "unknown coupon kind %q", cmd.Kind)
	}
	if cmd.Value <= 0 {
		return Coupon{}, NewValidationError(CodeInvalidCoupon, "coupon value must be positive")
	}
	if cmd.Kind == domain.CouponKindPercent && cmd.Value > 100 {
		return Coupon{}, NewValidationError(CodeInvalidCoupon, "percent coupon cannot exceed 100")
	}
	if cmd.StartsAt != nil && cmd.EndsAt != nil && cmd.EndsAt.Before(*cmd.StartsAt) {
		return Coupon{}, NewValidationError(CodeInvalidCoupon, "ends_at precedes starts_at")
	}

	now := s.clock()
	coupon := Coupon{
		ID:         couponIDPrefix + s.newID(),
		Code:       code,
		Kind:       cmd.Kind,
		Value:      cmd.Value,
		MinSpend:   cmd.MinSpend,
		StartsAt:   cmd.StartsAt,
		EndsAt:     cmd.EndsAt,
		UsageLimit: cmd.UsageLimit,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.promotions.InsertCoupon(ctx, coupon); err != nil {
		return Coupon{}, s.mapConflict(err, CodeInvalidCoupon, "coupon code %s already exists", code)
	}

	s.recordAudit(ctx, cmd.ActorID, "coupon.create", "coupon", coupon.ID, map[string]any{"code": code})
	return coupon, nil
}

// RedeemCoupon checks eligibility against the subtotal and returns the
// computed discount. The usage counter increments inside a transaction so a
// limit cannot be oversubscribed by concurrent redemptions.
func (s *promotionService) RedeemCoupon(ctx context.Context, cmd RedeemCouponCommand) (CouponRedemption, error) {
	code := normalizeCode(cmd.Code)
	if code == "" {
		return CouponRedemption{}, NewValidationError(CodeInvalidCoupon, "coupon code is required")
	}

	var redemption CouponRedemption
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		coupon, err := s.promotions.FindCouponByCode(txCtx, code)
		if err != nil {
			return s.mapNotFound(err, CodeCouponNotFound, "coupon %s not found", code)
		}

		now := s.clock()
		if !coupon.Enabled {
			return NewValidationError(CodeInvalidCoupon, "coupon %s is disabled", code)
		}
		if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
			return NewValidationError(CodeInvalidCoupon, "coupon %s is not yet active", code)
		}
		if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
			return NewValidationError(CodeInvalidCoupon, "coupon %s has expired", code)
		}
		if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
			return NewValidationError(CodeInvalidCoupon, "coupon %s usage limit reached", code)
		}
		if cmd.Subtotal < coupon.MinSpend {
			return NewValidationError(CodeInvalidCoupon, "subtotal below coupon minimum spend")
		}

		discount := coupon.Value
		if coupon.Kind == domain.CouponKindPercent {
			discount = cmd.Subtotal * coupon.Value / 100
		}
		if discount > cmd.Subtotal {
			discount = cmd.Subtotal
		}

		coupon.UsedCount++
		coupon.UpdatedAt = now
		if err := s.promotions.UpdateCoupon(txCtx, coupon); err != nil {
			return err
		}

		redemption = CouponRedemption{Coupon: coupon, Discount: discount}
		return nil
	})
	if err != nil {
		return CouponRedemption{}, err
	}

	s.recordAudit(ctx, cmd.UserID, "coupon.redeem", "coupon", redemption.Coupon.ID, map[string]any{
		"code":     code,
		"discount": redemption.Discount,
	})
	return redemption, nil
}

func (s *promotionService) ListCoupons(ctx context.Context, pager Pagination) (domain.CursorPage[Coupon], error) {
	return s.promotions.ListCoupons(ctx, pager)
}

func (s *promotionService) CreateGiftCard(ctx context.Context, cmd CreateGiftCardCommand) (GiftCard, error) {
	code := normalizeCode(cmd.Code)
	if code == "" {
		return GiftCard{}, NewValidationError(CodeInvalidGiftCard, "gift card code is required")
	}
	if cmd.Balance <= 0 {
		return GiftCard{}, NewValidationError(CodeInvalidGiftCard, "initial balance must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if len(currency) != 3 {
		return GiftCard{}, NewValidationError(CodeInvalidGiftCard, "currency must be a 3-letter code")
	}

	now := s.clock()
	card := GiftCard{
		ID:        giftCardIDPrefix + s.newID(),
		Code:      code,
		Balance:   cmd.Balance,
		Currency:  currency,
		ExpiresAt: cmd.ExpiresAt,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.promotions.InsertGiftCard(ctx, card); err != nil {
		return GiftCard{}, s.mapConflict(err, CodeInvalidGiftCard, "gift card code %s already exists", code)
	}

	s.recordAudit(ctx, cmd.ActorID, "giftcard.create", "gift_card", card.ID, map[string]any{"code": code})
	return card, nil
}

// RedeemGiftCard debits up to the requested amount, capped at the remaining
// balance, and reports what was actually debited.
func (s *promotionService) RedeemGiftCard(ctx context.Context, cmd RedeemGiftCardCommand) (GiftCardRedemption, error) {
	code := normalizeCode(cmd.Code)
	if code == "" {
		return GiftCardRedemption{}, NewValidationError(CodeInvalidGiftCard, "gift card code is required")
	}
	if cmd.Amount <= 0 {
		return GiftCardRedemption{}, NewValidationError(CodeInvalidGiftCard, "redeem amount must be positive")
	}

	var redemption GiftCardRedemption
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		card, err := s.promotions.FindGiftCardByCode(txCtx, code)
		if err != nil {
			return s.mapNotFound(err, CodeGiftCardNotFound, "gift card %s not found", code)
		}

		now := s.clock()
		if !card.Enabled {
			return NewValidationError(CodeInvalidGiftCard, "gift card %s is disabled", code)
		}
		if card.ExpiresAt != nil && now.After(*card.ExpiresAt) {
			return NewValidationError(CodeInvalidGiftCard, "gift card %s has expired", code)
		}
		if card.Balance <= 0 {
			return NewValidationError(CodeInvalidGiftCard, "gift card %s has no remaining balance", code)
		}

		debit := cmd.Amount
		if debit > card.Balance {
			debit = card.Balance
		}
		card.Balance -= debit
		card.UpdatedAt = now
		if err := s.promotions.UpdateGiftCard(txCtx, card); err != nil {
			return err
		}

		redemption = GiftCardRedemption{Card: card, Debited: debit}
		return nil
	})
	if err != nil {
		return GiftCardRedemption{}, err
	}

	s.recordAudit(ctx, cmd.UserID, "giftcard.redeem", "gift_card", redemption.Card.ID, map[string]any{
		"code":    code,
		"debited": redemption.Debited,
	})
	return redemption, nil
}

func (s *promotionService) EarnPoints(ctx context.Context, cmd PointsCommand) (PointsEntry, error) {
	return s.appendPoints(ctx, cmd, false)
}

// RedeemPoints records a negative ledger movement after checking the balance
// covers it.
func (s *promotionService) RedeemPoints(ctx context.Context, cmd PointsCommand) (PointsEntry, error) {
	return s.appendPoints(ctx, cmd, true)
}

func (s *promotionService) appendPoints(ctx context.Context, cmd PointsCommand, redeem bool) (PointsEntry, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return PointsEntry{}, NewValidationError(CodeInvalidPoints, "user id is required")
	}
	if cmd.Points <= 0 {
		return PointsEntry{}, NewValidationError(CodeInvalidPoints, "points must be positive")
	}

	delta := cmd.Points
	if redeem {
		delta = -cmd.Points
	}

	var entry PointsEntry
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if redeem {
			balance, err := s.promotions.PointsBalance(txCtx, userID)
			if err != nil {
				return err
			}
			if balance < cmd.Points {
				return NewValidationError(CodeInvalidPoints, "balance %d is below requested %d", balance, cmd.Points)
			}
		}

		entry = PointsEntry{
			ID:        pointsIDPrefix + s.newID(),
			UserID:    userID,
			OrderID:   strings.TrimSpace(cmd.OrderID),
			Delta:     delta,
			Reason:    strings.TrimSpace(cmd.Reason),
			CreatedAt: s.clock(),
		}
		return s.promotions.AppendPointsEntry(txCtx, entry)
	})
	if err != nil {
		return PointsEntry{}, err
	}

	action := "points.earn"
	if redeem {
		action = "points.redeem"
	}
	s.recordAudit(ctx, cmd.ActorID, action, "points", entry.ID, map[string]any{
		"userId": userID,
		"delta":  delta,
	})
	return entry, nil
}

func (s *promotionService) PointsBalance(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, NewValidationError(CodeInvalidPoints, "user id is required")
	}
	return s.promotions.PointsBalance(ctx, userID)
}

func (s *promotionService) PointsHistory(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[PointsEntry], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CursorPage[PointsEntry]{}, NewValidationError(CodeInvalidPoints, "user id is required")
	}
	return s.promotions.ListPointsEntries(ctx, userID, pager)
}

func (s *promotionService) recordAudit(ctx context.Context, actor string, action string, targetType string, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
	})
}

func (s *promotionService) mapNotFound(err error, code string, format string, args ...any) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return NewNotFoundError(code, format, args...)
	}
	return err
}

func (s *promotionService) mapConflict(err error, code string, format string, args ...any) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsConflict() {
		return NewValidationError(code, format, args...)
	}
	return err
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
