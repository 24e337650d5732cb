package inventory

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/enums"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
)

const releasedBySweep = "cleanup_sweep"

// CleanupExpiredReservations finds holds owned by aged new/cancelled orders
// and, unless dryRun is set, releases them. Each order is swept in its own
// transaction so one failure does not block the rest.
func (s *service) CleanupExpiredReservations(ctx context.Context, maxAgeHours int, dryRun bool) (*CleanupStats, error) {
	if maxAgeHours <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_age_hours must be positive")
	}

	cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)
	staleOrders, err := s.orders.FindStaleReservationHolders(ctx, cutoff, enums.AbandonedReservationStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding stale orders")
	}

	stats := &CleanupStats{OrdersFound: len(staleOrders), DryRun: dryRun}

	var sweepErr error
	for _, order := range staleOrders {
		rows, err := s.repo.ReservationsForOrder(ctx, order.ID)
		if err != nil {
			sweepErr = multierr.Append(sweepErr, err)
			continue
		}
		stats.ReservationsFound += len(rows)
		if dryRun || len(rows) == 0 {
			continue
		}

		orderID := order.ID
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			count, err := s.releaseInTx(ctx, tx, orderID, releasedBySweep)
			if err != nil {
				return err
			}
			stats.ReservationsDeleted += count
			return nil
		})
		if err != nil {
			s.logError(ctx, "cleanup sweep failed for order", err)
			sweepErr = multierr.Append(sweepErr, err)
		}
	}
	if sweepErr != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeInternal, sweepErr, "cleanup sweep completed with errors")
	}

	s.logInfo(ctx, map[string]any{
		"orders_found":         stats.OrdersFound,
		"reservations_found":   stats.ReservationsFound,
		"reservations_deleted": stats.ReservationsDeleted,
		"dry_run":              stats.DryRun,
	}, "reservation cleanup sweep finished")
	return stats, nil
}
