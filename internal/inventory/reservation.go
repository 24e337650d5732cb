package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/internal/catalog"
	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/enums"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/outbox"
	"github.com/fleurly/fleurly-backend/pkg/outbox/payloads"
)

// itemRequirement is one BOM-expanded demand: the order needs Qty units of
// the warehouse item, summed across all its line items, optional lines
// excluded.
type itemRequirement struct {
	ItemID uuid.UUID
	Name   string
	Qty    int
}

// expandRequirements turns (product, quantity) pairs into per-warehouse-item
// demands, sorted by ascending item id so concurrent multi-item transactions
// claim rows in the same order.
func expandRequirements(ctx context.Context, cat *catalog.Repository, requests []ItemRequest) ([]itemRequirement, error) {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.ProductID)
	}
	products, err := cat.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	linesByProduct, err := cat.ListRecipeLinesForProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading recipe lines")
	}

	totals := map[uuid.UUID]*itemRequirement{}
	for _, req := range requests {
		if _, ok := products[req.ProductID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": req.ProductID})
		}
		for _, line := range linesByProduct[req.ProductID] {
			if line.Optional || line.Quantity <= 0 {
				continue
			}
			need := line.Quantity * req.Quantity
			if existing, ok := totals[line.WarehouseItemID]; ok {
				existing.Qty += need
				continue
			}
			name := ""
			if line.Item != nil {
				name = line.Item.Name
			}
			totals[line.WarehouseItemID] = &itemRequirement{
				ItemID: line.WarehouseItemID,
				Name:   name,
				Qty:    need,
			}
		}
	}

	requirements := make([]itemRequirement, 0, len(totals))
	for _, req := range totals {
		requirements = append(requirements, *req)
	}
	sort.Slice(requirements, func(i, j int) bool {
		return requirements[i].ItemID.String() < requirements[j].ItemID.String()
	})
	return requirements, nil
}

// CreateReservations places all-or-nothing holds for the order. The guarded
// counter update rejects over-reservation even when validate is false; the
// validate pass adds the detailed per-product shortfall before any write.
func (s *service) CreateReservations(ctx context.Context, orderID uuid.UUID, requests []ItemRequest, validate bool) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	if len(requests) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, req := range requests {
		if req.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	if validate {
		batch, err := s.CheckBatchAvailability(ctx, requests)
		if err != nil {
			return err
		}
		if !batch.Available {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for reservation").
				WithDetails(map[string]any{"warnings": batch.Warnings})
		}
	}

	merged, _ := coalesceRequests(requests)

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.ReservationsForOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeReservation, err, "loading existing reservations")
		}
		if len(existing) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already holds reservations")
		}

		requirements, err := expandRequirements(ctx, s.catalog.WithTx(tx), merged)
		if err != nil {
			return err
		}
		if len(requirements) == 0 {
			return nil
		}

		rows := make([]models.OrderReservation, 0, len(requirements))
		reservedItems := make([]payloads.ReservedItem, 0, len(requirements))
		for _, req := range requirements {
			held, err := repo.HoldQuantity(ctx, req.ItemID, req.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeReservation, err, "claiming stock")
			}
			if !held {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for reservation").
					WithDetails(map[string]any{
						"warehouse_item_id": req.ItemID,
						"item_name":         req.Name,
						"required":          req.Qty,
					})
			}
			rows = append(rows, models.OrderReservation{
				OrderID:         orderID,
				WarehouseItemID: req.ItemID,
				Quantity:        req.Qty,
			})
			reservedItems = append(reservedItems, payloads.ReservedItem{
				WarehouseItemID: req.ItemID,
				Quantity:        req.Qty,
			})
		}

		if err := repo.InsertReservations(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeReservation, err, "inserting reservations")
		}

		return s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.ReservationCreatedEvent{
				OrderID:     orderID,
				OrderNumber: order.Number,
				Items:       reservedItems,
			},
		})
	})
	if err != nil {
		return err
	}

	s.logInfo(ctx, map[string]any{"order_id": orderID.String()}, "reservations created")
	return nil
}

// ReleaseReservations drops every hold for the order and returns how many
// ledger rows were removed. Safe to call on orders with no holds.
func (s *service) ReleaseReservations(ctx context.Context, orderID uuid.UUID) (int, error) {
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	released := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		count, err := s.releaseInTx(ctx, tx, orderID, "release")
		released = count
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// releaseInTx is the shared release core used by explicit release and the
// cleanup sweep. It returns the number of deleted ledger rows.
func (s *service) releaseInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, releasedBy string) (int, error) {
	repo := s.repo.WithTx(tx)

	rows, err := repo.ReservationsForOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeReservation, err, "loading reservations")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	releasedItems := make([]payloads.ReservedItem, 0, len(rows))
	for _, row := range rows {
		ok, err := repo.ReleaseQuantity(ctx, row.WarehouseItemID, row.Quantity)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeReservation, err, "releasing held stock")
		}
		if !ok {
			s.logWarn(ctx, map[string]any{
				"order_id":          orderID.String(),
				"warehouse_item_id": row.WarehouseItemID.String(),
				"quantity":          row.Quantity,
			}, "reserved counter below ledger quantity on release")
		}
		releasedItems = append(releasedItems, payloads.ReservedItem{
			WarehouseItemID: row.WarehouseItemID,
			Quantity:        row.Quantity,
		})
	}

	count, err := repo.DeleteReservationsForOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeReservation, err, "deleting reservations")
	}

	err = s.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReservationReleased,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data: payloads.ReservationReleasedEvent{
			OrderID:        orderID,
			Items:          releasedItems,
			ReleasedBy:     releasedBy,
			ReleasedAt:     time.Now(),
			SweepTriggered: releasedBy == releasedBySweep,
		},
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetReservations returns the order's holds joined with item names.
func (s *service) GetReservations(ctx context.Context, orderID uuid.UUID) ([]ReservationDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	rows, err := s.repo.ReservationsForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservations")
	}
	details := make([]ReservationDetail, 0, len(rows))
	for _, row := range rows {
		detail := ReservationDetail{
			ID:              row.ID,
			OrderID:         row.OrderID,
			WarehouseItemID: row.WarehouseItemID,
			Quantity:        row.Quantity,
			CreatedAt:       row.CreatedAt,
		}
		if row.Item != nil {
			detail.ItemName = row.Item.Name
		}
		details = append(details, detail)
	}
	return details, nil
}
