package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/idgen"
)

func testIDs(t *testing.T) *idgen.Generator {
	t.Helper()
	ids, err := idgen.New(1)
	if err != nil {
		t.Fatalf("idgen.New failed: %v", err)
	}
	return ids
}

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
	}, testIDs(t), log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies(memory) failed: %v", err)
	}
	if deps.products == nil || deps.orders == nil || deps.users == nil {
		t.Fatal("stores should not be nil for memory storage")
	}
	if deps.activeDriver != StorageDriverMemory {
		t.Fatalf("expected active driver memory, got %s", deps.activeDriver)
	}
	if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy storage, got %+v", check)
	}
}

func TestInitRuntimeDependencies_MongoFallsBackToMemory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMongo,
	}, testIDs(t), log.WithField("test", "mongo-fallback"))
	if err != nil {
		t.Fatalf("mongo without configuration must not fail: %v", err)
	}
	if deps.activeDriver != StorageDriverMemory {
		t.Fatalf("expected memory fallback, got %s", deps.activeDriver)
	}
	if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusDegraded {
		t.Fatalf("expected degraded storage, got %+v", check)
	}
	if deps.closeFn != nil {
		t.Fatal("memory fallback has nothing to close")
	}
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, testIDs(t), log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: "sqlite",
	}, testIDs(t), log.WithField("test", "unsupported-driver"))
	if err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}

func TestRuntimeDependencies_CloseNil(_ *testing.T) {
	var deps *runtimeDependencies
	// Не должно паниковать
	deps.close(context.Background(), log.WithField("test", "close-nil"))
}
