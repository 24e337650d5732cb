package cron

import (
	"context"
	"fmt"

	"github.com/fleurly/fleurly-backend/internal/inventory"
	"github.com/fleurly/fleurly-backend/pkg/logger"
	"github.com/fleurly/fleurly-backend/pkg/metrics"
)

const defaultReservationMaxAgeHours = 72

type reservationSweeper interface {
	CleanupExpiredReservations(ctx context.Context, maxAgeHours int, dryRun bool) (*inventory.CleanupStats, error)
}

// ReservationCleanupJobParams configure the abandoned reservation sweep.
type ReservationCleanupJobParams struct {
	Logger      *logger.Logger
	Inventory   reservationSweeper
	Metrics     *metrics.CronJobMetrics
	MaxAgeHours int
	DryRun      bool
}

// NewReservationCleanupJob builds the cron job that releases reservations
// still held by orders that were abandoned or cancelled.
func NewReservationCleanupJob(params ReservationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	maxAge := params.MaxAgeHours
	if maxAge <= 0 {
		maxAge = defaultReservationMaxAgeHours
	}
	return &reservationCleanupJob{
		logg:      params.Logger,
		inventory: params.Inventory,
		metrics:   params.Metrics,
		maxAge:    maxAge,
		dryRun:    params.DryRun,
	}, nil
}

type reservationCleanupJob struct {
	logg      *logger.Logger
	inventory reservationSweeper
	metrics   *metrics.CronJobMetrics
	maxAge    int
	dryRun    bool
}

func (j *reservationCleanupJob) Name() string { return "reservation-cleanup" }

func (j *reservationCleanupJob) Run(ctx context.Context) error {
	stats, err := j.inventory.CleanupExpiredReservations(ctx, j.maxAge, j.dryRun)
	if stats != nil {
		if j.metrics != nil {
			j.metrics.AddItemsProcessed(j.Name(), stats.ReservationsDeleted)
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"max_age_hours":        j.maxAge,
			"dry_run":              j.dryRun,
			"orders_found":         stats.OrdersFound,
			"reservations_found":   stats.ReservationsFound,
			"reservations_deleted": stats.ReservationsDeleted,
		})
		j.logg.Info(logCtx, "reservation cleanup sweep complete")
	}
	if err != nil {
		return fmt.Errorf("reservation cleanup: %w", err)
	}
	return nil
}
