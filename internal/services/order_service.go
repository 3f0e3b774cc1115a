package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventItemsReplaced = "order.items.replaced"
	orderEventDeleted       = "order.deleted"

	orderIDPrefix     = "ord_"
	orderItemIDPrefix = "oli_"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderConflict indicates optimistic concurrency conflicts or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Products    repositories.ProductRepository
	Counters    repositories.CounterRepository
	UnitOfWork  repositories.UnitOfWork
	Audit       AuditLogService
	Events      OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	products   repositories.ProductRepository
	counters   repositories.CounterRepository
	unitOfWork repositories.UnitOfWork
	audit      AuditLogService
	events     OrderEventPublisher
	clock      func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
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

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		products:   deps.Products,
		counters:   deps.Counters,
		unitOfWork: unit,
		audit:      deps.Audit,
		events:     deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if len(currency) != 3 {
		return Order{}, fmt.Errorf("%w: currency must be a 3-letter code", ErrOrderInvalidInput)
	}

	items, err := SanitizeOrderItems(ctx, cmd.Items, s.productTitleResolver())
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	order := Order{
		ID:            orderIDPrefix + s.newID(),
		UserID:        userID,
		Status:        domain.OrderStatusPending,
		PaymentMethod: strings.TrimSpace(cmd.PaymentMethod),
		Channel:       strings.TrimSpace(cmd.Channel),
		Currency:      currency,
		Totals:        cmd.Totals,
		PointsUsed:    cmd.PointsUsed,
		Items:         s.assignItemIDs(items),
		Metadata:      cloneMap(cmd.Metadata),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if cmd.OrderNumber != nil && strings.TrimSpace(*cmd.OrderNumber) != "" {
		order.OrderNumber = strings.TrimSpace(*cmd.OrderNumber)
	} else {
		number, err := s.generateOrderNumber(ctx, now)
		if err != nil {
			return Order{}, err
		}
		order.OrderNumber = number
	}

	if actor := strings.TrimSpace(cmd.ActorID); actor != "" {
		order.Audit.CreatedBy = valuePtr(actor)
		order.Audit.UpdatedBy = valuePtr(actor)
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "order.create", order.ID, map[string]any{
		"orderNumber": order.OrderNumber,
		"total":       order.Totals.Total,
	})
	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CurrentStatus: string(order.Status),
		ActorID:       cmd.ActorID,
		OccurredAt:    now,
		Metadata:      maps.Clone(order.Metadata),
	})

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	changed, err := TransitionOrderStatus(order.Status, cmd.TargetStatus)
	if err != nil {
		return Order{}, err
	}

	if !changed {
		return order, nil
	}

	now := s.now()
	prevStatus := order.Status
	order.Status = cmd.TargetStatus
	order.UpdatedAt = now
	ApplyStatusTimestamps(&order, cmd.TargetStatus, now)
	if actor := strings.TrimSpace(cmd.ActorID); actor != "" {
		order.Audit.UpdatedBy = valuePtr(actor)
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	metadata := cloneMap(cmd.Metadata)
	if reason := strings.TrimSpace(cmd.Reason); reason != "" {
		metadata = ensureMap(metadata)
		metadata["reason"] = reason
	}

	s.recordAudit(ctx, cmd.ActorID, "order.status.set", order.ID, map[string]any{
		"from": string(prevStatus),
		"to":   string(order.Status),
	})
	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: string(prevStatus),
		CurrentStatus:  string(order.Status),
		ActorID:        cmd.ActorID,
		OccurredAt:     now,
		Metadata:       metadata,
	})

	return order, nil
}

func (s *orderService) ReplaceItems(ctx context.Context, cmd ReplaceOrderItemsCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	items, err := SanitizeOrderItems(ctx, cmd.Items, s.productTitleResolver())
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	order.Items = s.assignItemIDs(items)
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	order.UpdatedAt = now
	if actor := strings.TrimSpace(cmd.ActorID); actor != "" {
		order.Audit.UpdatedBy = valuePtr(actor)
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.ReplaceItems(txCtx, order.ID, order.Items); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "order.items.replace", order.ID, map[string]any{
		"itemCount": len(order.Items),
	})
	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventItemsReplaced,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ActorID:     cmd.ActorID,
		OccurredAt:  now,
	})

	return order, nil
}

func (s *orderService) SetTracking(ctx context.Context, cmd SetTrackingCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	provider := strings.TrimSpace(cmd.Provider)
	number := strings.TrimSpace(cmd.Number)
	if provider == "" || number == "" {
		return Order{}, NewValidationError(CodeInvalidTrackingPayload, "tracking provider and number are required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	now := s.now()
	order.TrackingProvider = valuePtr(provider)
	order.TrackingNumber = valuePtr(number)
	order.UpdatedAt = now
	if actor := strings.TrimSpace(cmd.ActorID); actor != "" {
		order.Audit.UpdatedBy = valuePtr(actor)
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.recordAudit(ctx, cmd.ActorID, "order.tracking.set", order.ID, map[string]any{
		"provider": provider,
		"number":   number,
	})

	return order, nil
}

// Delete removes the order row together with its child items. No tombstone
// is kept.
func (s *orderService) Delete(ctx context.Context, orderID string, actorID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Delete(txCtx, order.ID); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "order.delete", order.ID, map[string]any{
		"orderNumber": order.OrderNumber,
	})
	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventDeleted,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ActorID:     actorID,
		OccurredAt:  s.now(),
	})

	return nil
}

func (s *orderService) productTitleResolver() ProductTitleResolver {
	if s.products == nil {
		return nil
	}
	return func(ctx context.Context, productID string) (string, bool) {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return "", false
		}
		return product.Title, product.Title != ""
	}
}

func (s *orderService) assignItemIDs(items []domain.OrderItem) []domain.OrderItem {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = orderItemIDPrefix + s.newID()
		}
	}
	return items
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, "orders", 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SW-%04d-%06d", now.Year(), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) recordAudit(ctx context.Context, actor string, action string, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:      actor,
		Action:     action,
		TargetType: "order",
		TargetID:   targetID,
		Metadata:   metadata,
	})
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	return maps.Clone(src)
}

func ensureMap(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	return src
}

func valuePtr[T any](v T) *T {
	return &v
}
