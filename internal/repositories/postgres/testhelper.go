package postgres

import (
	"database/sql"
	"testing"

	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/config"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/database"
)

// setupTestRepository connects to the test database, migrates it and returns a
// repository over it. Stored catalogs are removed and the pool is closed when
// the test ends. Without a reachable database the test is skipped.
func setupTestRepository(t *testing.T) (*PostgresCatalogRepository, *sql.DB) {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: %v", err)
	}
	if err := pg.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		pg.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if _, err := pg.DB.Exec("DELETE FROM schema_catalogs"); err != nil {
			t.Logf("Warning: failed to clean up schema_catalogs: %v", err)
		}
		if err := pg.Close(); err != nil {
			t.Logf("Warning: failed to close database: %v", err)
		}
	})

	return NewPostgresCatalogRepository(pg.DB).(*PostgresCatalogRepository), pg.DB
}
