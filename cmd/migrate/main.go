package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/config"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/database"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var (
	envFlag   string
	pathFlag  string
	migration *migrate.Migrate
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema of the catalog store",
	Long: `migrate applies the SQL migrations that create the schema_catalogs table.
Only the postgres storage backend needs them.`,
	SilenceUsage:       true,
	PersistentPreRunE:  openMigrator,
	PersistentPostRunE: closeMigrator,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")
	rootCmd.PersistentFlags().StringVar(&pathFlag, "path", "", "Migrations directory (default: MIGRATIONS_PATH)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return report(migration.Up(), "schema is up to date", "all migrations applied")
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default: 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					var err error
					if steps, err = parseSteps(args[0]); err != nil {
						return err
					}
				}
				return report(migration.Steps(-steps), "nothing to roll back",
					fmt.Sprintf("rolled back %d migration(s)", steps))
			},
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return report(migration.Migrate(uint(version)),
					fmt.Sprintf("already at version %d", version),
					fmt.Sprintf("migrated to version %d", version))
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := migration.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					log.Println("No migrations applied yet")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read version: %w", err)
				}
				if dirty {
					log.Printf("Version %d (dirty: the last migration failed, fix it and use force)", version)
					return nil
				}
				log.Printf("Version %d", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the recorded version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				if err := migration.Force(version); err != nil {
					return fmt.Errorf("failed to force version: %w", err)
				}
				log.Printf("Version forced to %d", version)
				return nil
			},
		},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if migration != nil {
			migration.Close()
		}
		os.Exit(1)
	}
}

func openMigrator(cmd *cobra.Command, args []string) error {
	if err := config.InitConfig(envFlag); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Backend != config.BackendPostgres {
		log.Printf("Warning: STORAGE_BACKEND is %s, migrating PostgreSQL anyway", cfg.Storage.Backend)
	}

	path := cfg.Catalog.MigrationsPath
	if pathFlag != "" {
		path = pathFlag
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if migration, err = pg.NewMigrator(path); err != nil {
		pg.Close()
		return err
	}

	log.Printf("Environment %s, database %s@%s:%d/%s, migrations %s",
		envFlag, cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, path)
	return nil
}

// closeMigrator closes the migrator, which also closes the connection pool
func closeMigrator(cmd *cobra.Command, args []string) error {
	if migration == nil {
		return nil
	}
	sourceErr, dbErr := migration.Close()
	migration = nil
	return errors.Join(sourceErr, dbErr)
}

// report logs the outcome of a migration run; ErrNoChange is not a failure
func report(err error, unchanged, done string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println(unchanged)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println(done)
	return nil
}

func parseVersion(arg string) (int, error) {
	version, err := strconv.Atoi(arg)
	if err != nil || version < 0 {
		return 0, fmt.Errorf("invalid migration version: %s", arg)
	}
	return version, nil
}

func parseSteps(arg string) (int, error) {
	steps, err := strconv.Atoi(arg)
	if err != nil || steps < 1 {
		return 0, fmt.Errorf("invalid number of steps: %s", arg)
	}
	return steps, nil
}
