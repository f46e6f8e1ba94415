package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/config"
)

func TestPostgres_Close(t *testing.T) {
	tests := []struct {
		name    string
		pg      *Postgres
		wantErr bool
	}{
		{
			name:    "nil DB",
			pg:      &Postgres{DB: nil},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pg.Close()
			if (err != nil) != tt.wantErr {
				t.Errorf("Postgres.Close() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigurePool(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		wantOpen int
	}{
		{
			name:     "defaults",
			cfg:      config.DatabaseConfig{},
			wantOpen: defaultMaxOpenConns,
		},
		{
			name:     "configured",
			cfg:      config.DatabaseConfig{MaxOpenConns: 3, MaxIdleConns: 8, ConnMaxLifetimeMinutes: 1},
			wantOpen: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// sql.Open does not connect, so no server is needed
			db, err := sql.Open("postgres", tt.cfg.ConnectionString())
			if err != nil {
				t.Fatalf("sql.Open() error = %v", err)
			}
			defer db.Close()

			configurePool(db, &tt.cfg)
			if got := db.Stats().MaxOpenConnections; got != tt.wantOpen {
				t.Errorf("MaxOpenConnections = %d, want %d", got, tt.wantOpen)
			}
		})
	}
}

func TestNewPostgres_InvalidConfig(t *testing.T) {
	// Test with invalid configuration that should fail to connect
	cfg := &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     99999,
		User:     "invalid",
		Password: "invalid",
		Database: "invalid",
		SSLMode:  "disable",
	}

	pg, err := NewPostgres(cfg)
	if err == nil {
		if pg != nil && pg.DB != nil {
			pg.Close()
		}
		t.Error("NewPostgres() with invalid config should return error")
	}
}

func TestMigrations_Paired(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "postgres", "*.sql"))
	if err != nil {
		t.Fatalf("failed to list migrations: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migrations found")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, f := range files {
		base := filepath.Base(f)
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file name %s", base)
		}

		content, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("failed to read %s: %v", f, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Errorf("migration %s is empty", base)
		}
	}

	for name := range ups {
		if !downs[name] {
			t.Errorf("migration %s has no down file", name)
		}
	}
	for name := range downs {
		if !ups[name] {
			t.Errorf("migration %s has no up file", name)
		}
	}
}

func TestPostgres_Integration(t *testing.T) {
	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Integration test - requires running database: %v", err)
	}

	pg, err := NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Integration test - requires running database: %v", err)
	}
	defer pg.Close()

	if err := pg.RunMigrations(filepath.Join("migrations", "postgres")); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	if err := pg.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	var table string
	if err := pg.DB.QueryRow(`SELECT to_regclass($1)::text`, MigrationsTable).Scan(&table); err != nil {
		t.Fatalf("failed to look up %s: %v", MigrationsTable, err)
	}
	if table != MigrationsTable {
		t.Errorf("expected migrations to be recorded in %s, got %q", MigrationsTable, table)
	}

	// Test Close
	if err := pg.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Second close should also work
	if err := pg.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}
