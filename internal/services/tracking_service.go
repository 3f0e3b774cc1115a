package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
	"github.com/shopward/backoffice/internal/tracking"
)

const trackingEventIDPrefix = "trk_"

// TrackingServiceDeps bundles collaborators required to construct the tracking service.
type TrackingServiceDeps struct {
	Orders      repositories.OrderRepository
	Events      repositories.TrackingEventRepository
	Providers   *tracking.Registry
	UnitOfWork  repositories.UnitOfWork
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type trackingService struct {
	orders     repositories.OrderRepository
	events     repositories.TrackingEventRepository
	providers  *tracking.Registry
	unitOfWork repositories.UnitOfWork
	audit      AuditLogService
	clock      func() time.Time
	newID      func() string
}

// NewTrackingService wires dependencies into a concrete TrackingService implementation.
func NewTrackingService(deps TrackingServiceDeps) (TrackingService, error) {
	if deps.Orders == nil {
		return nil, errors.New("tracking service: order repository is required")
	}
	if deps.Events == nil {
		return nil, errors.New("tracking service: tracking event repository is required")
	}
	if deps.Providers == nil {
		return nil, errors.New("tracking service: provider registry is required")
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

	return &trackingService{
		orders:     deps.Orders,
		events:     deps.Events,
		providers:  deps.Providers,
		unitOfWork: unit,
		audit:      deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

// Sync fetches the provider's authoritative event list and replaces the stored
// set wholesale. A fetch that returns fewer events than previously stored
// still wins; history converges on the next successful sync.
func (s *trackingService) Sync(ctx context.Context, cmd TrackingSyncCommand) (TrackingSyncResult, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return TrackingSyncResult{}, NewValidationError(CodeInvalidTrackingPayload, "order id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return TrackingSyncResult{}, s.mapRepositoryError(err)
	}

	providerCode := deref(order.TrackingProvider)
	number := deref(order.TrackingNumber)
	if providerCode == "" || number == "" {
		return TrackingSyncResult{}, NewValidationError(CodeInvalidTrackingPayload, "order %s has no tracking provider or number", orderID)
	}

	provider, err := s.providers.Resolve(providerCode)
	if err != nil {
		return TrackingSyncResult{}, err
	}

	fetched, err := provider.FetchEvents(ctx, number, tracking.FetchOptions{})
	if err != nil {
		return TrackingSyncResult{}, err
	}

	now := s.clock()
	stored := make([]domain.TrackingEvent, 0, len(fetched))
	for _, ev := range fetched {
		stored = append(stored, domain.TrackingEvent{
			ID:         trackingEventIDPrefix + s.newID(),
			OrderID:    order.ID,
			EventCode:  ev.EventCode,
			StatusText: ev.StatusText,
			Location:   ev.Location,
			EventTime:  ev.EventTime,
			Raw:        ev.Raw,
			CreatedAt:  now,
		})
	}

	order.TrackingSyncedAt = &now
	order.UpdatedAt = now

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.events.ReplaceAll(txCtx, order.ID, stored); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return TrackingSyncResult{}, err
	}

	if s.audit != nil {
		s.audit.Record(ctx, AuditLogRecord{
			Actor:      cmd.ActorID,
			Action:     "order.tracking.sync",
			TargetType: "order",
			TargetID:   order.ID,
			Metadata: map[string]any{
				"provider": providerCode,
				"events":   len(stored),
			},
		})
	}

	return TrackingSyncResult{
		OrderID:  order.ID,
		Provider: providerCode,
		Number:   number,
		Events:   stored,
		SyncedAt: now,
	}, nil
}

func (s *trackingService) ListEvents(ctx context.Context, orderID string) ([]TrackingEvent, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, NewValidationError(CodeInvalidTrackingPayload, "order id is required")
	}
	events, err := s.events.List(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return events, nil
}

func (s *trackingService) mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return NewNotFoundError(CodeOrderNotFound, "%v", err)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
