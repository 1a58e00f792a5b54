package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/crm-content-api/internal/config"
	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/pkg/logger"
	"github.com/spf13/cobra"
)

var migrationsPath string

// rootCmd is the schema migration tool
var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the CRM content database schema",
	Long: `Apply or roll back the content schema migrations.

Connection settings are read from the same environment as the server
(DB_HOST, DB_NAME, ...). The migrations directory defaults to
MIGRATIONS_PATH.`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB, path string) error {
			return db.RunMigrations(path)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB, path string) error {
			return db.MigrateDown(path)
		})
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return withDB(func(db *database.DB, path string) error {
			return db.MigrateToVersion(path, uint(version))
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB, path string) error {
			version, dirty, err := db.MigrationVersion(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (overrides MIGRATIONS_PATH)")
	rootCmd.AddCommand(upCmd, downCmd, gotoCmd, versionCmd)
}

// withDB opens the configured database, runs fn and closes the connection
func withDB(fn func(db *database.DB, path string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	path := cfg.Database.MigrationsPath
	if migrationsPath != "" {
		path = migrationsPath
	}
	return fn(db, path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
