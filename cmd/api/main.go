package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/shopward/backoffice/internal/di"
	"github.com/shopward/backoffice/internal/exports"
	"github.com/shopward/backoffice/internal/handlers"
	"github.com/shopward/backoffice/internal/platform/config"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
	"github.com/shopward/backoffice/internal/platform/idempotency"
	"github.com/shopward/backoffice/internal/platform/jobs"
	"github.com/shopward/backoffice/internal/platform/observability"
	"github.com/shopward/backoffice/internal/platform/secrets"
	platformstorage "github.com/shopward/backoffice/internal/platform/storage"
	firestoreRepo "github.com/shopward/backoffice/internal/repositories/firestore"
	"github.com/shopward/backoffice/internal/services"
	"github.com/shopward/backoffice/internal/tracking"
)

const (
	envSignerKey      = "BACKOFFICE_STORAGE_SIGNER_KEY"
	envGoogleProject  = "GOOGLE_CLOUD_PROJECT"
	shutdownTimeout   = 10 * time.Second
	readinessDeadline = 5 * time.Second
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("backoffice")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithDefaultProject(os.Getenv(envGoogleProject)),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(fetcher))
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.String("secrets", missing.Error()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(pfirestore.Config{
		ProjectID:    cfg.Firestore.ProjectID,
		DatabaseID:   cfg.Firestore.DatabaseID,
		EmulatorHost: cfg.Firestore.EmulatorHost,
	})
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	exportStore := buildExportStore(ctx, logger, fetcher, cfg)
	orderEvents, closeOrderEvents := buildOrderEventPublisher(ctx, logger, cfg)
	defer closeOrderEvents()

	container, err := di.NewContainer(ctx, cfg, registry, di.Infra{
		OrderEvents:       orderEvents,
		Exports:           exportStore,
		TrackingProviders: buildTrackingRegistry(cfg),
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	projectID := cfg.Firestore.ProjectID
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		handlers.ActorMiddleware(),
		handlers.RateLimitMiddleware(cfg.RateLimits.DefaultPerMinute),
		idempotencyMiddleware,
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("firestore", func(checkCtx context.Context) error {
			checkCtx, cancel := context.WithTimeout(checkCtx, readinessDeadline)
			defer cancel()
			_, err := firestoreProvider.Client(checkCtx)
			return err
		}),
	)

	orderHandlers := handlers.NewOrderHandlers(container.Services.Orders)
	productHandlers := handlers.NewProductHandlers(container.Services.Products)
	bulkHandlers := handlers.NewBulkHandlers(container.Services.Bulk)
	reviewHandlers := handlers.NewReviewHandlers(container.Services.Reviews)
	settingsHandlers := handlers.NewSettingsHandlers(container.Services.Settings)
	auditLogHandlers := handlers.NewAuditLogHandlers(container.Services.Audit)

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithBulkRoutes(bulkHandlers.Routes),
		handlers.WithBulkMiddlewares(handlers.RateLimitMiddleware(cfg.RateLimits.BulkPerMinute)),
		handlers.WithReviewRoutes(reviewHandlers.Routes),
		handlers.WithSettingsRoutes(settingsHandlers.Routes),
		handlers.WithAuditLogRoutes(auditLogHandlers.Routes),
	}
	if container.Services.Tracking != nil {
		trackingHandlers := handlers.NewTrackingHandlers(container.Services.Tracking)
		opts = append(opts, handlers.WithTrackingRoutes(trackingHandlers.Routes))
	}
	if container.Services.Promotions != nil {
		promotionHandlers := handlers.NewPromotionHandlers(container.Services.Promotions)
		opts = append(opts, handlers.WithPromotionRoutes(promotionHandlers.Routes))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("backoffice api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := container.Close(closeCtx); err != nil {
		logger.Warn("container close error", zap.Error(err))
	}
}

// buildExportStore wires the Cloud Storage export publisher. Missing bucket or
// signer configuration disables uploads; bulk exports then stay inline-only.
func buildExportStore(ctx context.Context, logger *zap.Logger, fetcher *secrets.Fetcher, cfg config.Config) services.ExportStore {
	bucket := strings.TrimSpace(cfg.Storage.ExportsBucket)
	if bucket == "" {
		logger.Info("exports bucket not configured; bulk exports stay inline")
		return nil
	}

	signerKey := strings.TrimSpace(os.Getenv(envSignerKey))
	if signerKey == "" {
		logger.Warn("storage signer key not configured; bulk exports stay inline")
		return nil
	}
	if strings.HasPrefix(signerKey, "secret://") || strings.HasPrefix(signerKey, "sm://") {
		resolved, err := fetcher.Resolve(ctx, strings.Replace(signerKey, "sm://", "secret://", 1))
		if err != nil {
			logger.Warn("failed to resolve storage signer key; bulk exports stay inline", zap.Error(err))
			return nil
		}
		signerKey = resolved
	}

	signer, err := platformstorage.NewServiceAccountSignerFromJSON([]byte(signerKey))
	if err != nil {
		logger.Warn("failed to parse storage signer key; bulk exports stay inline", zap.Error(err))
		return nil
	}
	signedURLClient, err := platformstorage.NewClient(signer)
	if err != nil {
		logger.Warn("failed to initialise signed url client; bulk exports stay inline", zap.Error(err))
		return nil
	}

	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Warn("failed to initialise storage client; bulk exports stay inline", zap.Error(err))
		return nil
	}
	uploader, err := platformstorage.NewUploader(storageClient)
	if err != nil {
		logger.Warn("failed to initialise storage uploader; bulk exports stay inline", zap.Error(err))
		return nil
	}

	publisher, err := exports.NewPublisher(exports.PublisherDeps{
		Uploader: uploader,
		Signer:   signedURLClient,
		Bucket:   bucket,
	})
	if err != nil {
		logger.Warn("failed to initialise export publisher; bulk exports stay inline", zap.Error(err))
		return nil
	}
	return publisher
}

// buildOrderEventPublisher wires the Pub/Sub order event topic. The returned
// closer is a no-op when publishing is disabled.
func buildOrderEventPublisher(ctx context.Context, logger *zap.Logger, cfg config.Config) (services.OrderEventPublisher, func()) {
	noop := func() {}
	projectID := strings.TrimSpace(cfg.PubSub.ProjectID)
	topicID := strings.TrimSpace(cfg.PubSub.OrderEventsTopic)
	if projectID == "" || topicID == "" {
		logger.Info("pubsub not configured; order events disabled")
		return nil, noop
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		logger.Warn("failed to initialise pubsub client; order events disabled", zap.Error(err))
		return nil, noop
	}

	topic := client.Topic(topicID)
	publisher, err := jobs.NewPubSubOrderEventPublisher(topic)
	if err != nil {
		logger.Warn("failed to initialise order event publisher; order events disabled", zap.Error(err))
		_ = client.Close()
		return nil, noop
	}

	return publisher, func() {
		topic.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}
}

// buildTrackingRegistry constructs HTTP providers for every configured
// carrier. Codes without a base URL are skipped rather than registered broken.
func buildTrackingRegistry(cfg config.Config) *tracking.Registry {
	registry := tracking.NewRegistry()
	for code, baseURL := range cfg.Tracking.BaseURLs {
		baseURL = strings.TrimSpace(baseURL)
		if baseURL == "" {
			continue
		}
		registry.Register(tracking.NewHTTPProvider(tracking.HTTPConfig{
			Code:    code,
			BaseURL: baseURL,
			APIKey:  cfg.Tracking.APIKeys[code],
			Timeout: cfg.Tracking.FetchTimeout,
		}))
	}
	return registry
}
