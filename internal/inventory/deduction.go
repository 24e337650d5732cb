package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/enums"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/outbox"
	"github.com/fleurly/fleurly-backend/pkg/outbox/payloads"
)

// deductionSource tags where an order's stock demands came from: the
// reservation ledger, or a recomputation from order line items for orders
// that never had holds. Both variants feed the same validation/audit core.
type deductionSource struct {
	fromReservations bool
	requirements     []itemRequirement
}

const (
	sourceReservations = "reservations"
	sourceOrderItems   = "order_items"
)

func (d deductionSource) name() string {
	if d.fromReservations {
		return sourceReservations
	}
	return sourceOrderItems
}

// ConvertReservationsToDeductions permanently decrements stock for an
// assembled order, writes one audit row per item, and drops the order's
// holds. Any shortfall aborts the whole conversion.
func (s *service) ConvertReservationsToDeductions(ctx context.Context, orderID uuid.UUID) ([]AuditRecord, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	var records []AuditRecord
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		source, err := s.resolveDeductionSource(ctx, tx, order)
		if err != nil {
			return err
		}
		if len(source.requirements) == 0 {
			return nil
		}

		records, err = s.applyDeductions(ctx, tx, order, source)
		if err != nil {
			return err
		}

		if source.fromReservations {
			repo := s.repo.WithTx(tx)
			if _, err := repo.DeleteReservationsForOrder(ctx, orderID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting converted reservations")
			}
		}

		deducted := make([]payloads.ReservedItem, 0, len(records))
		for _, rec := range records {
			deducted = append(deducted, payloads.ReservedItem{
				WarehouseItemID: rec.WarehouseItemID,
				Quantity:        -rec.QuantityChange,
			})
		}
		return s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockDeducted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.StockDeductedEvent{
				OrderID:     orderID,
				OrderNumber: order.Number,
				Items:       deducted,
				Source:      source.name(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, map[string]any{
		"order_id":   orderID.String(),
		"item_count": len(records),
	}, "reservations converted to deductions")
	return records, nil
}

// resolveDeductionSource prefers the reservation ledger and falls back to
// recomputing demands from order line items when the order holds nothing.
func (s *service) resolveDeductionSource(ctx context.Context, tx *gorm.DB, order *models.Order) (deductionSource, error) {
	repo := s.repo.WithTx(tx)

	rows, err := repo.ReservationsForOrder(ctx, order.ID)
	if err != nil {
		return deductionSource{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservations")
	}
	if len(rows) > 0 {
		requirements := make([]itemRequirement, 0, len(rows))
		for _, row := range rows {
			name := ""
			if row.Item != nil {
				name = row.Item.Name
			}
			requirements = append(requirements, itemRequirement{
				ItemID: row.WarehouseItemID,
				Name:   name,
				Qty:    row.Quantity,
			})
		}
		return deductionSource{fromReservations: true, requirements: requirements}, nil
	}

	lineItems, err := s.orders.WithTx(tx).FindLineItems(ctx, order.ID)
	if err != nil {
		return deductionSource{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order line items")
	}
	if len(lineItems) == 0 {
		return deductionSource{}, nil
	}
	requests := make([]ItemRequest, 0, len(lineItems))
	for _, li := range lineItems {
		requests = append(requests, ItemRequest{ProductID: li.ProductID, Quantity: li.Quantity})
	}
	merged, _ := coalesceRequests(requests)
	requirements, err := expandRequirements(ctx, s.catalog.WithTx(tx), merged)
	if err != nil {
		return deductionSource{}, err
	}
	return deductionSource{fromReservations: false, requirements: requirements}, nil
}

// applyDeductions is the shared core of both deduction variants: guarded
// decrement, audit row, low-stock signal, per item in ascending id order.
func (s *service) applyDeductions(ctx context.Context, tx *gorm.DB, order *models.Order, source deductionSource) ([]AuditRecord, error) {
	repo := s.repo.WithTx(tx)

	records := make([]AuditRecord, 0, len(source.requirements))
	for _, req := range source.requirements {
		var item *models.WarehouseItem
		var ok bool
		var err error
		if source.fromReservations {
			item, ok, err = repo.DeductReserved(ctx, req.ItemID, req.Qty)
		} else {
			item, ok, err = repo.DeductOnHand(ctx, req.ItemID, req.Qty)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deducting stock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for deduction").
				WithDetails(map[string]any{
					"warehouse_item_id": req.ItemID,
					"item_name":         req.Name,
					"required":          req.Qty,
				})
		}

		op := &models.WarehouseOperation{
			WarehouseItemID: req.ItemID,
			Type:            enums.WarehouseOperationSale,
			QuantityChange:  -req.Qty,
			BalanceAfter:    item.Quantity,
			Description:     fmt.Sprintf("Sale for order %s", order.Number),
			OrderID:         &order.ID,
		}
		if err := repo.InsertOperation(ctx, op); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing audit row")
		}

		records = append(records, AuditRecord{
			WarehouseItemID: req.ItemID,
			ItemName:        item.Name,
			QuantityChange:  -req.Qty,
			BalanceAfter:    item.Quantity,
		})

		if item.IsLowStock() {
			err := s.emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockLow,
				AggregateType: enums.AggregateWarehouseItem,
				AggregateID:   item.ID,
				Data: payloads.StockLowEvent{
					WarehouseItemID: item.ID,
					Name:            item.Name,
					Quantity:        item.Quantity,
					MinQuantity:     item.MinQuantity,
				},
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}
