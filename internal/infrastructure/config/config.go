// Package config loads catalog settings from .env.<env> files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendLocal    = "local"
	BackendS3       = "s3"
)

// Config is the typed view of the loaded settings
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Log      LogConfig
	Catalog  CatalogConfig
}

// StorageConfig selects where catalogs are persisted
type StorageConfig struct {
	Backend        string // postgres, local or s3
	LocalPath      string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string // MinIO, LocalStack
	S3UsePathStyle bool
}

type CacheConfig struct {
	Enabled        bool
	TTLMinutes     int
	CleanupMinutes int
	MaxItems       int // 0 = unbounded
	Metrics        bool
}

type LogConfig struct {
	Level string // debug, info, warn, error
}

type CatalogConfig struct {
	DefaultDomain  string
	MigrationsPath string
}

// DatabaseConfig holds the PostgreSQL connection and pool settings.
// Zero pool values fall back to the database package defaults.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

// findProjectRoot returns the nearest ancestor of the working directory holding go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// defaults returns the fallback value of every setting for env
func defaults(env, root string) map[string]any {
	return map[string]any{
		"DB_HOST":                      "localhost",
		"DB_PORT":                      15432,
		"DB_USER":                      "catalog",
		"DB_NAME":                      "catalog_" + env,
		"DB_SSLMODE":                   "disable",
		"DB_MAX_OPEN_CONNS":            10,
		"DB_MAX_IDLE_CONNS":            2,
		"DB_CONN_MAX_LIFETIME_MINUTES": 5,

		"STORAGE_BACKEND":    BackendPostgres,
		"STORAGE_LOCAL_PATH": filepath.Join(root, "data"),
		"S3_REGION":          "us-east-1",
		"S3_USE_PATH_STYLE":  false,

		"CACHE_ENABLED":         true,
		"CACHE_TTL_MINUTES":     5,
		"CACHE_CLEANUP_MINUTES": 10,
		"CACHE_MAX_ITEMS":       1000,
		"CACHE_METRICS":         true,

		"LOG_LEVEL": "info",

		"CATALOG_DEFAULT_DOMAIN": "default",
		"MIGRATIONS_PATH":        filepath.Join(root, "internal", "infrastructure", "database", "migrations", "postgres"),
	}
}

// InitConfig points viper at .env.<env> (dev when empty) and registers defaults.
// The file is optional and environment variables override it.
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	root, err := findProjectRoot()
	if err != nil {
		root = "."
	}

	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(root)
	_ = viper.ReadInConfig()
	viper.AutomaticEnv()

	for key, value := range defaults(env, root) {
		viper.SetDefault(key, value)
	}
	return nil
}

// Load reads the settings registered by InitConfig and checks that the
// selected backend has what it needs.
func Load() (*Config, error) {
	backend := strings.ToLower(viper.GetString("STORAGE_BACKEND"))
	if backend == "" {
		backend = BackendPostgres
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:                   viper.GetString("DB_HOST"),
			Port:                   viper.GetInt("DB_PORT"),
			User:                   viper.GetString("DB_USER"),
			Password:               viper.GetString("DB_PASSWORD"),
			Database:               viper.GetString("DB_NAME"),
			SSLMode:                viper.GetString("DB_SSLMODE"),
			MaxOpenConns:           viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:           viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: viper.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
		},
		Storage: StorageConfig{
			Backend:        backend,
			LocalPath:      viper.GetString("STORAGE_LOCAL_PATH"),
			S3Bucket:       viper.GetString("S3_BUCKET"),
			S3Region:       viper.GetString("S3_REGION"),
			S3Endpoint:     viper.GetString("S3_ENDPOINT"),
			S3UsePathStyle: viper.GetBool("S3_USE_PATH_STYLE"),
		},
		Cache: CacheConfig{
			Enabled:        viper.GetBool("CACHE_ENABLED"),
			TTLMinutes:     viper.GetInt("CACHE_TTL_MINUTES"),
			CleanupMinutes: viper.GetInt("CACHE_CLEANUP_MINUTES"),
			MaxItems:       viper.GetInt("CACHE_MAX_ITEMS"),
			Metrics:        viper.GetBool("CACHE_METRICS"),
		},
		Log:     LogConfig{Level: viper.GetString("LOG_LEVEL")},
		Catalog: CatalogConfig{DefaultDomain: viper.GetString("CATALOG_DEFAULT_DOMAIN"), MigrationsPath: viper.GetString("MIGRATIONS_PATH")},
	}

	if err := cfg.Storage.validate(cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s StorageConfig) validate(db DatabaseConfig) error {
	switch s.Backend {
	case BackendPostgres:
		if db.Password == "" {
			return errors.New("DB_PASSWORD is required (set via environment variable or .env file)")
		}
	case BackendLocal:
		if s.LocalPath == "" {
			return errors.New("STORAGE_LOCAL_PATH is required for the local backend")
		}
	case BackendS3:
		if s.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want postgres, local or s3)", s.Backend)
	}
	return nil
}

// ConnectionString returns the lib/pq key=value DSN
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
