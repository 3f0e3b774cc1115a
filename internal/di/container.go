package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopward/backoffice/internal/platform/config"
	"github.com/shopward/backoffice/internal/platform/requestctx"
	"github.com/shopward/backoffice/internal/repositories"
	"github.com/shopward/backoffice/internal/services"
	"github.com/shopward/backoffice/internal/tracking"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders     services.OrderService
	Products   services.ProductService
	Bulk       services.BulkService
	Tracking   services.TrackingService
	Reviews    services.ReviewService
	Settings   services.SettingsService
	Promotions services.PromotionService
	Audit      services.AuditLogService
}

// Infra carries optional infrastructure collaborators that services consume.
// Nil fields degrade gracefully: no order events are published, exports stay
// inline, and tracking sync reports providers as unconfigured.
type Infra struct {
	OrderEvents       services.OrderEventPublisher
	Exports           services.ExportStore
	TrackingProviders *tracking.Registry
	Logger            *zap.Logger
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring will provide real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, infra Infra) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, infra Infra) (Services, error) {
	var svc Services

	logFn := eventLogger(infra.Logger)

	auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		AuditLogs: reg.AuditLogs(),
		Clock:     time.Now,
		Logger:    logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = auditSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     reg.Orders(),
		Products:   reg.Products(),
		Counters:   reg.Counters(),
		UnitOfWork: reg,
		Audit:      svc.Audit,
		Events:     infra.OrderEvents,
		Clock:      time.Now,
		Logger:     logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	productSvc, err := services.NewProductService(services.ProductServiceDeps{
		Products:   reg.Products(),
		UnitOfWork: reg,
		Audit:      svc.Audit,
		Clock:      time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build product service: %w", err)
	}
	svc.Products = productSvc

	bulkSvc, err := services.NewBulkService(services.BulkServiceDeps{
		Orders:     reg.Orders(),
		Products:   reg.Products(),
		UnitOfWork: reg,
		Audit:      svc.Audit,
		Exports:    infra.Exports,
		Clock:      time.Now,
		Logger:     logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build bulk service: %w", err)
	}
	svc.Bulk = bulkSvc

	if cfg.Features.EnableTrackingSync {
		providers := infra.TrackingProviders
		if providers == nil {
			providers = tracking.NewRegistry()
		}
		trackingSvc, err := services.NewTrackingService(services.TrackingServiceDeps{
			Orders:     reg.Orders(),
			Events:     reg.TrackingEvents(),
			Providers:  providers,
			UnitOfWork: reg,
			Audit:      svc.Audit,
			Clock:      time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build tracking service: %w", err)
		}
		svc.Tracking = trackingSvc
	}

	reviewSvc, err := services.NewReviewService(services.ReviewServiceDeps{
		Reviews:  reg.Reviews(),
		Products: reg.Products(),
		Audit:    svc.Audit,
		Clock:    time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build review service: %w", err)
	}
	svc.Reviews = reviewSvc

	settingsSvc, err := services.NewSettingsService(services.SettingsServiceDeps{
		Settings: reg.Settings(),
		Audit:    svc.Audit,
		Clock:    time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build settings service: %w", err)
	}
	svc.Settings = settingsSvc

	if cfg.Features.EnablePromotions {
		promotionSvc, err := services.NewPromotionService(services.PromotionServiceDeps{
			Promotions: reg.Promotions(),
			UnitOfWork: reg,
			Audit:      svc.Audit,
			Clock:      time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build promotion service: %w", err)
		}
		svc.Promotions = promotionSvc
	}

	return svc, nil
}

// eventLogger adapts the zap logger to the plain event callback services
// expect. The request-scoped logger wins when present so service events keep
// their request and trace correlation fields.
func eventLogger(fallback *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == nil || logger == requestctx.NoopLogger() {
			logger = fallback
		}
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
