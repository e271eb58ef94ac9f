package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/mongodb"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// runtimeDependencies: хранилища, выбранные один раз при старте.
type runtimeDependencies struct {
	products domain.ProductStore
	orders   domain.OrderStore
	users    domain.UserStore

	// activeDriver отличается от cfg.StorageDriver, если пришлось перейти на память.
	activeDriver   string
	storageChecker healthcheck.Checker
	closeFn        func(ctx context.Context) error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, ids domain.IDGenerator, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		return memoryDependencies(cfg.StorageDriver, ids), nil
	case StorageDriverMongo:
		return initMongoDependencies(ctx, cfg, ids, logger), nil
	case StorageDriverPostgres:
		return initPostgresDependencies(ctx, cfg, ids, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func memoryDependencies(configured string, ids domain.IDGenerator) *runtimeDependencies {
	return &runtimeDependencies{
		products:       memory.NewProductStore(ids),
		orders:         memory.NewOrderStore(ids),
		users:          memory.NewUserStore(),
		activeDriver:   StorageDriverMemory,
		storageChecker: healthcheck.NewStorageChecker(configured, StorageDriverMemory, nil),
	}
}

// initMongoDependencies никогда не падает: без MongoDB витрина работает в памяти.
func initMongoDependencies(ctx context.Context, cfg Config, ids domain.IDGenerator, logger *log.Entry) *runtimeDependencies {
	connector := mongodb.NewConnector(cfg.MongoURI, cfg.MongoDBName, logger.WithField("storage", StorageDriverMongo))
	db := connector.Connect(ctx)
	if db == nil {
		return memoryDependencies(StorageDriverMongo, ids)
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.WithError(err).Warn("failed to ensure mongodb indexes")
	}

	return &runtimeDependencies{
		products:       mongodb.NewProductStore(db),
		orders:         mongodb.NewOrderStore(db),
		users:          mongodb.NewUserStore(db),
		activeDriver:   StorageDriverMongo,
		storageChecker: healthcheck.NewStorageChecker(StorageDriverMongo, StorageDriverMongo, connector.Ping),
		closeFn:        connector.Close,
	}
}

func initPostgresDependencies(ctx context.Context, cfg Config, ids domain.IDGenerator, logger *log.Entry) (*runtimeDependencies, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("STOREFRONT_POSTGRES_DSN is required for %s storage driver", StorageDriverPostgres)
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	return &runtimeDependencies{
		products:       postgres.NewProductStore(store, ids),
		orders:         postgres.NewOrderStore(store, ids),
		users:          postgres.NewUserStore(store),
		activeDriver:   StorageDriverPostgres,
		storageChecker: healthcheck.NewStorageChecker(StorageDriverPostgres, StorageDriverPostgres, store.Ping),
		closeFn:        func(context.Context) error { return store.Close() },
	}, nil
}

func (d *runtimeDependencies) close(ctx context.Context, logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(ctx); err != nil {
		logger.WithError(err).Warn("failed to close storage")
		return
	}
	logger.WithField("driver", d.activeDriver).Info("storage closed")
}
