package e2e

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/cache"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/config"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/database"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/metrics"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/storage"
	"github.com/HCTatse/MF-Chaincode/internal/repositories"
	"github.com/HCTatse/MF-Chaincode/internal/repositories/objectstore"
	"github.com/HCTatse/MF-Chaincode/internal/repositories/postgres"
	"github.com/HCTatse/MF-Chaincode/internal/services"
	"github.com/HCTatse/MF-Chaincode/pkg/cache/gocache"
	"go.uber.org/zap/zaptest"
)

// E2ETestEnv is a catalog service wired to a real storage backend
type E2ETestEnv struct {
	Service   *services.CatalogService
	Repo      repositories.CatalogRepository
	Cache     *gocache.Cache
	Collector *metrics.Collector
	DB        *sql.DB
	connStr   string
	closers   []func() error
}

// SetupLocalE2ETest wires the catalog service to a local object store in dir
func SetupLocalE2ETest(t *testing.T, dir string) *E2ETestEnv {
	t.Helper()

	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	return newEnv(t, objectstore.NewCatalogRepository(store))
}

// SetupPostgresE2ETest wires the catalog service to PostgreSQL.
// The test is skipped when no database is configured or reachable.
func SetupPostgresE2ETest(t *testing.T) *E2ETestEnv {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("failed to init config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping PostgreSQL e2e test: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping PostgreSQL e2e test: %v", err)
	}
	if err := pg.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	cleanupDatabase(t, pg.DB)

	env := newEnv(t, postgres.NewPostgresCatalogRepository(pg.DB))
	env.DB = pg.DB
	env.connStr = cfg.Database.ConnectionString()
	env.closers = append(env.closers, func() error {
		cleanupDatabase(t, pg.DB)
		return pg.Close()
	})
	return env
}

func newEnv(t *testing.T, repo repositories.CatalogRepository) *E2ETestEnv {
	c := gocache.New(&gocache.Config{DefaultTTL: time.Minute, EnableMetrics: true})
	collector := metrics.NewCollector()
	collector.SetCache(c)

	return &E2ETestEnv{
		Service: services.NewCatalogService(repo,
			services.WithCache(c, 0),
			services.WithMetrics(collector, nil),
			services.WithLogger(zaptest.NewLogger(t)),
		),
		Repo:      repo,
		Cache:     c,
		Collector: collector,
	}
}

// StartInvalidator evicts this environment's cache on changes committed by other instances
func (env *E2ETestEnv) StartInvalidator(t *testing.T, ctx context.Context) {
	t.Helper()

	inv := cache.NewInvalidator(env.Cache, env.connStr, zaptest.NewLogger(t))
	if err := inv.Start(ctx); err != nil {
		t.Fatalf("failed to start invalidator: %v", err)
	}
	env.closers = append(env.closers, inv.Stop)
}

// Teardown releases the environment
func (env *E2ETestEnv) Teardown(t *testing.T) {
	t.Helper()

	for i := len(env.closers) - 1; i >= 0; i-- {
		if err := env.closers[i](); err != nil {
			t.Logf("Warning: teardown failed: %v", err)
		}
	}
	env.Cache.Close()
}

func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec("DELETE FROM schema_catalogs"); err != nil {
		t.Logf("Warning: failed to clean up schema_catalogs: %v", err)
	}
}
