package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/overdue"
	"github.com/LeeviJ/triolasku-sub000/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the invoicing HTTP API",
	Long: `Run the HTTP API under /api/v1 together with the overdue sweeper.

Environment variables:
  STORE_DRIVER     - memory (default) or postgres
  DATABASE_URL     - PostgreSQL connection string (postgres driver)
  HTTP_ADDR        - listen address (default :8080)
  HTTP_USER        - Basic auth user (empty disables auth)
  HTTP_PASSWORD    - Basic auth password
  OVERDUE_SCHEDULE - cron schedule of the overdue sweep (default @daily, empty disables)

PostgreSQL migrations are applied on start.`,
	Example: `  # In-memory API on :8080
  lasku serve

  # PostgreSQL-backed API
  STORE_DRIVER=postgres DATABASE_URL=postgres://localhost/lasku lasku serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
	serveCmd.Flags().Int("shutdown-timeout", 15, "Graceful shutdown timeout in seconds")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	shutdownSecs, _ := cmd.Flags().GetInt("shutdown-timeout")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg, true, log)
	if err != nil {
		return err
	}
	defer s.Close()

	invoices := newInvoiceService(s, cfg)

	sweeper := overdue.NewSweeper(s)
	if cfg.OverdueSchedule != "" {
		if err := sweeper.Start(ctx, cfg.OverdueSchedule); err != nil {
			return fmt.Errorf("failed to start overdue sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.New(s, invoices, server.Options{
			User:     cfg.HTTPUser,
			Password: cfg.HTTPPassword,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("store", cfg.StoreDriver).
			Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Received interrupt signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}
