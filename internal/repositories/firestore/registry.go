package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
	"github.com/shopward/backoffice/internal/repositories"
)

// Registry wires every Firestore-backed repository against a shared provider
// and satisfies repositories.Registry for dependency injection.
type Registry struct {
	provider *pfirestore.Provider

	orders         *OrderRepository
	products       *ProductRepository
	trackingEvents *TrackingEventRepository
	reviews        *ReviewRepository
	settings       *SettingsRepository
	promotions     *PromotionRepository
	auditLogs      *AuditLogRepository
	counters       *CounterRepository
}

func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	trackingEvents, err := NewTrackingEventRepository(provider)
	if err != nil {
		return nil, err
	}
	reviews, err := NewReviewRepository(provider)
	if err != nil {
		return nil, err
	}
	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}
	promotions, err := NewPromotionRepository(provider)
	if err != nil {
		return nil, err
	}
	auditLogs, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:       provider,
		orders:         orders,
		products:       products,
		trackingEvents: trackingEvents,
		reviews:        reviews,
		settings:       settings,
		promotions:     promotions,
		auditLogs:      auditLogs,
		counters:       counters,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.provider.RunInTx(ctx, fn)
}

func (r *Registry) Orders() repositories.OrderRepository                 { return r.orders }
func (r *Registry) Products() repositories.ProductRepository             { return r.products }
func (r *Registry) TrackingEvents() repositories.TrackingEventRepository { return r.trackingEvents }
func (r *Registry) Reviews() repositories.ReviewRepository               { return r.reviews }
func (r *Registry) Settings() repositories.SettingsRepository            { return r.settings }
func (r *Registry) Promotions() repositories.PromotionRepository         { return r.promotions }
func (r *Registry) AuditLogs() repositories.AuditLogRepository           { return r.auditLogs }
func (r *Registry) Counters() repositories.CounterRepository             { return r.counters }

var _ repositories.Registry = (*Registry)(nil)
