// Package app собирает витрину: хранилища, кэш представлений, сервисы и HTTP-серверы.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
	"github.com/vladislavdragonenkov/storefront/internal/invalidation"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/recommendation"
	"github.com/vladislavdragonenkov/storefront/internal/service/users"
	"github.com/vladislavdragonenkov/storefront/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	storefrontMetrics := metrics.New()

	ids, err := idgen.New(cfg.NodeID)
	if err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, ids, logger)
	if err != nil {
		return err
	}
	defer deps.close(context.Background(), logger)
	storefrontMetrics.SetStorageBackend(deps.activeDriver, storageDrivers...)
	if deps.activeDriver != cfg.StorageDriver {
		logger.WithFields(log.Fields{
			"configured": cfg.StorageDriver,
			"active":     deps.activeDriver,
		}).Warn("storage degraded: data will not survive restart")
	}

	// Kafka необязательна: без неё события заказов и межинстансные сбросы отключены.
	producer, _ := initKafkaProducer(cfg.brokerList(), logger)
	defer closeKafka(producer, logger)

	views, err := initViewCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer views.shutdown(logger)

	bus, invalidator, err := buildInvalidator(cfg, views.cache, producer, storefrontMetrics, logger)
	if err != nil {
		return err
	}

	products := catalog.NewService(deps.products, invalidator,
		catalog.WithMetrics(storefrontMetrics),
		catalog.WithLogger(logger.WithField("layer", "catalog")))

	orderOpts := []orders.Option{
		orders.WithMetrics(storefrontMetrics),
		orders.WithLogger(logger.WithField("layer", "orders")),
	}
	if producer != nil {
		orderOpts = append(orderOpts, orders.WithEvents(producer))
	}
	orderService := orders.NewService(deps.orders, products, invalidator, orderOpts...)

	userService := users.NewService(deps.users,
		users.WithAdminCredentials(cfg.AdminEmail, cfg.AdminPassword),
		users.WithLogger(logger.WithField("layer", "users")))
	if err := userService.SeedAdminIfAbsent(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	var generator domain.RecommendationGenerator
	if cfg.RecommenderURL != "" {
		generator = recommendation.NewHTTPGenerator(cfg.RecommenderURL, nil)
	} else {
		logger.Warn("STOREFRONT_RECOMMENDER_URL is not set, recommendations are unavailable")
	}
	recommender := recommendation.NewService(generator,
		recommendation.WithMetrics(storefrontMetrics),
		recommendation.WithLogger(logger.WithField("layer", "recommendation")))

	// Сбросы соседей нужны только локальному кэшу: Redis общий для всех инстансов.
	var consumer *kafka.Consumer
	if producer != nil && !views.shared {
		applier := invalidation.NewRemoteApplier(cfg.instanceID(), bus, logger.WithField("layer", "invalidation"))
		consumer, _ = startInvalidationConsumer(ctx, cfg, applier.Handle, logger)
	}
	defer stopConsumer(consumer, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if views.ping != nil {
		healthHandler.RegisterChecker("view-cache", healthcheck.NewPingChecker("view-cache", views.ping))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	api := httpapi.New(httpapi.Deps{
		Catalog:     products,
		Orders:      orderService,
		Auth:        userService,
		Recommender: recommender,
		Cache:       views.cache,
		Metrics:     storefrontMetrics,
		Logger:      logger.WithField("layer", "http"),
	})

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}
	apiSrv := &http.Server{Handler: api, ReadHeaderTimeout: readHeaderTimeout}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", lis.Addr())
		errCh <- apiSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildInvalidator собирает цепочку сброса: метрики, затем локальная шина
// (подписан кэш представлений) и, при наличии Kafka, публикация соседям.
func buildInvalidator(
	cfg Config,
	cache invalidation.ViewCache,
	producer *kafka.Producer,
	m *metrics.StorefrontMetrics,
	logger *log.Entry,
) (*invalidation.Bus, domain.Invalidator, error) {
	bus := invalidation.NewBus()
	if err := bus.Subscribe(func(ctx context.Context, key domain.ViewKey) {
		cache.Invalidate(ctx, key)
	}); err != nil {
		return nil, nil, fmt.Errorf("subscribe view cache: %w", err)
	}

	targets := invalidation.Fanout{bus}
	if producer != nil {
		targets = append(targets, invalidation.NewKafkaPublisher(producer, cfg.InvalidationTopic, cfg.instanceID(),
			logger.WithField("layer", "invalidation")))
	}
	return bus, invalidation.NewCounting(targets, m), nil
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
