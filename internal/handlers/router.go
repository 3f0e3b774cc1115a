package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shopward/backoffice/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	orders     RouteRegistrar
	products   RouteRegistrar
	bulk       RouteRegistrar
	tracking   RouteRegistrar
	reviews    RouteRegistrar
	settings   RouteRegistrar
	promotions RouteRegistrar
	auditLogs  RouteRegistrar

	bulkMiddlewares []func(http.Handler) http.Handler
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware and the expected
// route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		mount := func(path string, registrar RouteRegistrar, name string, groupMW []func(http.Handler) http.Handler) {
			api.Route(path, func(group chi.Router) {
				for _, mw := range groupMW {
					if mw != nil {
						group.Use(mw)
					}
				}
				if registrar != nil {
					registrar(group)
					return
				}
				registerNotImplemented(group, name)
			})
		}

		mount("/orders", cfg.orders, "orders", nil)
		mount("/products", cfg.products, "products", nil)
		mount("/bulk", cfg.bulk, "bulk", cfg.bulkMiddlewares)
		mount("/tracking", cfg.tracking, "tracking", nil)
		mount("/reviews", cfg.reviews, "reviews", nil)
		mount("/settings", cfg.settings, "settings", nil)
		mount("/promotions", cfg.promotions, "promotions", nil)
		mount("/audit-logs", cfg.auditLogs, "auditLogs", nil)
	})

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for the probe endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithOrderRoutes configures the registrar responsible for order endpoints.
func WithOrderRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.orders = reg
	}
}

// WithProductRoutes configures the registrar responsible for catalog endpoints.
func WithProductRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.products = reg
	}
}

// WithBulkRoutes configures the registrar responsible for bulk endpoints.
func WithBulkRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.bulk = reg
	}
}

// WithBulkMiddlewares configures middlewares applied to the /bulk group.
func WithBulkMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.bulkMiddlewares = append(cfg.bulkMiddlewares, mw...)
	}
}

// WithTrackingRoutes configures the registrar responsible for tracking endpoints.
func WithTrackingRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.tracking = reg
	}
}

// WithReviewRoutes configures the registrar responsible for review endpoints.
func WithReviewRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.reviews = reg
	}
}

// WithSettingsRoutes configures the registrar responsible for settings endpoints.
func WithSettingsRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.settings = reg
	}
}

// WithPromotionRoutes configures the registrar responsible for promotion endpoints.
func WithPromotionRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.promotions = reg
	}
}

// WithAuditLogRoutes configures the registrar responsible for audit log endpoints.
func WithAuditLogRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.auditLogs = reg
	}
}

func registerNotImplemented(r chi.Router, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
	}
	r.HandleFunc("/*", handler)
	r.HandleFunc("/", handler)
	r.NotFound(handler)
	r.MethodNotAllowed(handler)
}
