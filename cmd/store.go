package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LeeviJ/triolasku-sub000/internal/config"
	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/internal/store"
	"github.com/LeeviJ/triolasku-sub000/internal/store/memory"
	"github.com/LeeviJ/triolasku-sub000/internal/store/postgres"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration, check your .env file: %w", err)
	}
	return cfg, nil
}

// openStore opens the store selected by STORE_DRIVER. Postgres schemas are
// migrated when migrate is set.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, handleStoreError(err, log)
		}
		if migrate {
			if err := postgres.Migrate(ctx, pg.Pool()); err != nil {
				pg.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return pg, nil
	default:
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return memory.New(), nil
	}
}

func newInvoiceService(s store.Store, cfg *config.Config) *invoice.Service {
	return invoice.NewService(s, invoice.Defaults{
		PaymentTermDays: cfg.DefaultPaymentTermDays,
		LateInterest:    cfg.DefaultLateInterest,
	})
}

// handleStoreError provides user-friendly error messages for store failures
func handleStoreError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Store operation failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, store.ErrCompanyNotFound):
		return fmt.Errorf("company not found. List companies with GET /api/v1/companies")
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("record not found: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("database did not answer in time")
	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf("database authentication failed. Check the credentials in DATABASE_URL")
	case strings.Contains(errStr, "connect"):
		return fmt.Errorf("could not connect to the database. Check DATABASE_URL and that PostgreSQL is running: %w", err)
	default:
		return fmt.Errorf("store operation failed: %w", err)
	}
}
