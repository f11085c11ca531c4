package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply pending PostgreSQL schema migrations and print the schema version.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string`,
	Example: `  # Apply migrations
  lasku migrate

  # Only print the current version
  lasku migrate --status`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("status", false, "Print the schema version without migrating")
	migrateCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("migrate")

	statusOnly, _ := cmd.Flags().GetBool("status")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	pg, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return handleStoreError(err, log)
	}
	defer pg.Close()

	if !statusOnly {
		if err := postgres.Migrate(ctx, pg.Pool()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, err := postgres.MigrationVersion(ctx, pg.Pool())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	log.Info().Int64("version", version).Bool("migrated", !statusOnly).Msg("Schema version")
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
