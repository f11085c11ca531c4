// Package overdue moves unpaid invoices past their due date to the overdue
// status on a cron schedule.
package overdue

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Store is what the sweeper reads and updates.
type Store interface {
	ListInvoicesByStatus(ctx context.Context, status models.Status) ([]models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status models.Status) error
}

// Sweeper marks overdue invoices.
type Sweeper struct {
	store Store
	now   func() time.Time
	cron  *cron.Cron
	log   zerolog.Logger
}

// NewSweeper creates a sweeper over s.
func NewSweeper(s Store) *Sweeper {
	return &Sweeper{
		store: s,
		now:   time.Now,
		log:   logger.WithComponent("overdue"),
	}
}

// Sweep marks every sent or ready invoice whose due date has passed as
// overdue and returns how many were changed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	const op = "Sweep"

	today := s.now()
	changed := 0
	for _, status := range []models.Status{models.StatusSent, models.StatusReady} {
		invoices, err := s.store.ListInvoicesByStatus(ctx, status)
		if err != nil {
			return changed, fmt.Errorf("%s: failed to list %s invoices: %w", op, status, err)
		}
		for i := range invoices {
			inv := &invoices[i]
			if !invoice.IsOverdue(inv, today) {
				continue
			}
			if err := s.store.UpdateInvoiceStatus(ctx, inv.ID, models.StatusOverdue); err != nil {
				return changed, fmt.Errorf("%s: failed to mark invoice %d overdue: %w", op, inv.InvoiceNumber, err)
			}
			changed++

			s.log.Info().
				Str("invoice_id", inv.ID).
				Int64("invoice_number", inv.InvoiceNumber).
				Str("due_date", inv.DueDate).
				Msg("Invoice marked overdue")
		}
	}

	return changed, nil
}

// Start runs Sweep once and then on schedule (standard cron syntax or
// descriptors such as "@daily") until Stop is called.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	const op = "Start"

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := s.Sweep(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("Overdue sweep failed")
			return
		}
		s.log.Debug().Int("marked", n).Msg("Overdue sweep completed")
	})
	if err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}

	if n, err := s.Sweep(ctx); err != nil {
		s.log.Error().Err(err).Msg("Initial overdue sweep failed")
	} else {
		s.log.Info().Int("marked", n).Msg("Initial overdue sweep completed")
	}

	s.cron = c
	c.Start()
	s.log.Info().Str("schedule", schedule).Msg("Overdue scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Overdue scheduler stopped")
}
