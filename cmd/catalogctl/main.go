package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/cache"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/config"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/database"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/logging"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/metrics"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/storage"
	"github.com/HCTatse/MF-Chaincode/internal/repositories"
	"github.com/HCTatse/MF-Chaincode/internal/repositories/objectstore"
	"github.com/HCTatse/MF-Chaincode/internal/repositories/postgres"
	"github.com/HCTatse/MF-Chaincode/internal/services"
	"github.com/HCTatse/MF-Chaincode/pkg/cache/gocache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFlag     string
	domainFlag  string
	metricsFlag string
	timeoutFlag time.Duration
)

// app holds everything a subcommand needs
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	service     services.CatalogServiceInterface
	collector   *metrics.Collector
	exporter    *metrics.PrometheusExporter
	registry    *prometheus.Registry
	invalidator *cache.Invalidator
	closers     []func() error
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Manage versioned attribute and asset schema catalogs",
	Long: `catalogctl manages schema catalogs: attribute types with data type history,
asset schemas with an append-only change log, and unit labels.
Catalogs are stored per domain in PostgreSQL, a local directory or S3.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")
	rootCmd.PersistentFlags().StringVarP(&domainFlag, "domain", "d", "", "Catalog domain (default: CATALOG_DEFAULT_DOMAIN)")
	rootCmd.PersistentFlags().StringVar(&metricsFlag, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Timeout for the whole command")

	rootCmd.AddCommand(newAttributeCmd())
	rootCmd.AddCommand(newAssetCmd())
	rootCmd.AddCommand(newUnitCmd())
	rootCmd.AddCommand(newCatalogCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// PersistentPostRunE does not run after a failed command
		if current != nil {
			current.close()
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.InitConfig(envFlag); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	cmd.SetContext(ctx)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		collector: metrics.NewCollector(),
		registry:  prometheus.NewRegistry(),
		closers: []func() error{func() error {
			cancel()
			return nil
		}},
	}
	a.exporter = metrics.NewPrometheusExporter(a.collector, a.registry)
	current = a

	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMetrics(a.collector, a.exporter),
	}
	if cfg.Cache.Enabled {
		c := gocache.New(&gocache.Config{
			DefaultTTL:      time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			CleanupInterval: time.Duration(cfg.Cache.CleanupMinutes) * time.Minute,
			MaxItems:        cfg.Cache.MaxItems,
			EnableMetrics:   cfg.Cache.Metrics,
		})
		a.collector.SetCache(c)
		a.closers = append(a.closers, c.Close)
		opts = append(opts, services.WithCache(c, 0))

		if cfg.Storage.Backend == config.BackendPostgres {
			a.invalidator = cache.NewInvalidator(c, cfg.Database.ConnectionString(), logger)
			if err := a.invalidator.Start(ctx); err != nil {
				logger.Warn("catalog cache invalidation disabled", zap.Error(err))
				a.invalidator = nil
			} else {
				a.closers = append(a.closers, a.invalidator.Stop)
			}
		}
	}

	a.service = services.NewCatalogService(repo, opts...)

	if domainFlag == "" {
		domainFlag = cfg.Catalog.DefaultDomain
	}
	logger.Debug("catalogctl ready",
		zap.String("env", envFlag),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("domain", domainFlag))
	return nil
}

// openRepository builds the catalog repository for the configured backend
func (a *app) openRepository(ctx context.Context) (repositories.CatalogRepository, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendLocal:
		store, err := storage.NewLocalStorage(a.cfg.Storage.LocalPath)
		if err != nil {
			return nil, err
		}
		return objectstore.NewCatalogRepository(store), nil

	case config.BackendS3:
		store, err := storage.NewS3Storage(ctx, a.cfg.Storage.S3Bucket, storage.S3Config{
			Region:       a.cfg.Storage.S3Region,
			Endpoint:     a.cfg.Storage.S3Endpoint,
			UsePathStyle: a.cfg.Storage.S3UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return objectstore.NewCatalogRepository(store), nil

	default:
		pg, err := database.NewPostgres(&a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.logger.Debug("connected to database",
			zap.String("host", a.cfg.Database.Host),
			zap.Int("port", a.cfg.Database.Port),
			zap.String("database", a.cfg.Database.Database))
		return postgres.NewPostgresCatalogRepository(pg.DB), nil
	}
}

func teardown(cmd *cobra.Command, args []string) error {
	if current == nil {
		return nil
	}
	return current.close()
}

// close writes the metrics file and releases resources. It runs once.
func (a *app) close() error {
	var firstErr error
	if metricsFlag != "" {
		a.exporter.Update()
		if err := prometheus.WriteToTextfile(metricsFlag, a.registry); err != nil {
			firstErr = fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	current = nil
	return firstErr
}
