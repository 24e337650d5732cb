package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/enums"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
)

func TestConvertReservationsToDeductions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	rose := seedItem(t, db, "rose", 100, 10)
	fern := seedItem(t, db, "fern", 40, 5)
	product := seedProduct(t, db, "rose and fern", true)
	seedRecipeLine(t, db, product.ID, rose.ID, 12, false)
	seedRecipeLine(t, db, product.ID, fern.ID, 2, false)

	order := seedOrder(t, db, "FL-3001", enums.OrderStatusPaid, time.Now())
	if err := svc.CreateReservations(ctx, order.ID, []ItemRequest{{ProductID: product.ID, Quantity: 3}}, true); err != nil {
		t.Fatalf("create reservations: %v", err)
	}

	records, err := svc.ConvertReservationsToDeductions(ctx, order.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}

	gotRose := reloadItem(t, db, rose.ID)
	if gotRose.Quantity != 64 || gotRose.ReservedQuantity != 0 {
		t.Fatalf("unexpected rose state: qty=%d reserved=%d", gotRose.Quantity, gotRose.ReservedQuantity)
	}
	gotFern := reloadItem(t, db, fern.ID)
	if gotFern.Quantity != 34 || gotFern.ReservedQuantity != 0 {
		t.Fatalf("unexpected fern state: qty=%d reserved=%d", gotFern.Quantity, gotFern.ReservedQuantity)
	}
	if count := countReservations(t, db, order.ID); count != 0 {
		t.Fatalf("expected reservations consumed, got %d", count)
	}

	var ops []models.WarehouseOperation
	if err := db.Where("order_id = ?", order.ID).Find(&ops).Error; err != nil {
		t.Fatalf("load operations: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(ops))
	}
	for _, op := range ops {
		if op.Type != enums.WarehouseOperationSale {
			t.Fatalf("expected sale type, got %s", op.Type)
		}
		if op.QuantityChange >= 0 {
			t.Fatalf("expected negative quantity change, got %d", op.QuantityChange)
		}
		if op.Description != "Sale for order FL-3001" {
			t.Fatalf("expected order number in description, got %q", op.Description)
		}
	}

	if events := emitter.byType(enums.EventStockDeducted); len(events) != 1 {
		t.Fatalf("expected 1 stock_deducted event, got %d", len(events))
	}
}

func TestConvertAbortsAtomicallyOnShortfall(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	stable := seedItem(t, db, "stable", 50, 0)
	drained := seedItem(t, db, "drained", 20, 0)
	product := seedProduct(t, db, "pair", true)
	seedRecipeLine(t, db, product.ID, stable.ID, 1, false)
	seedRecipeLine(t, db, product.ID, drained.ID, 2, false)

	order := seedOrder(t, db, "FL-3002", enums.OrderStatusPaid, time.Now())
	if err := svc.CreateReservations(ctx, order.ID, []ItemRequest{{ProductID: product.ID, Quantity: 5}}, true); err != nil {
		t.Fatalf("create reservations: %v", err)
	}

	// Out-of-band adjustment drains the item below its reserved quantity.
	if err := db.Model(&models.WarehouseItem{}).Where("id = ?", drained.ID).Update("quantity", 3).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err := svc.ConvertReservationsToDeductions(ctx, order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if got := reloadItem(t, db, stable.ID); got.Quantity != 50 {
		t.Fatalf("expected stable stock untouched after rollback, got %d", got.Quantity)
	}
	if count := countReservations(t, db, order.ID); count != 2 {
		t.Fatalf("expected reservations preserved after rollback, got %d", count)
	}

	var opCount int64
	if err := db.Model(&models.WarehouseOperation{}).Count(&opCount).Error; err != nil {
		t.Fatalf("count operations: %v", err)
	}
	if opCount != 0 {
		t.Fatalf("expected no audit rows after rollback, got %d", opCount)
	}
}

func TestConvertLegacyFallbackFromLineItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	tulip := seedItem(t, db, "tulip", 30, 0)
	wrap := seedItem(t, db, "wrap", 30, 0)
	product := seedProduct(t, db, "tulip trio", true)
	seedRecipeLine(t, db, product.ID, tulip.ID, 3, false)
	seedRecipeLine(t, db, product.ID, wrap.ID, 1, true)

	// Order predates the reservation ledger: line items only, no holds.
	order := seedOrder(t, db, "FL-3003", enums.OrderStatusPaid, time.Now())
	seedLineItem(t, db, order.ID, product.ID, 4)

	records, err := svc.ConvertReservationsToDeductions(ctx, order.ID)
	if err != nil {
		t.Fatalf("legacy convert: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	if records[0].QuantityChange != -12 || records[0].BalanceAfter != 18 {
		t.Fatalf("unexpected audit record: %+v", records[0])
	}

	if got := reloadItem(t, db, tulip.ID); got.Quantity != 18 {
		t.Fatalf("expected 18 tulips left, got %d", got.Quantity)
	}
	if got := reloadItem(t, db, wrap.ID); got.Quantity != 30 {
		t.Fatal("optional line must never be deducted")
	}
}

func TestConvertLowStockEmitsEvent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	rose := seedItem(t, db, "rose", 15, 10)
	product := seedProduct(t, db, "dozen", true)
	seedRecipeLine(t, db, product.ID, rose.ID, 12, false)

	order := seedOrder(t, db, "FL-3004", enums.OrderStatusPaid, time.Now())
	if err := svc.CreateReservations(ctx, order.ID, []ItemRequest{{ProductID: product.ID, Quantity: 1}}, true); err != nil {
		t.Fatalf("create reservations: %v", err)
	}
	if _, err := svc.ConvertReservationsToDeductions(ctx, order.ID); err != nil {
		t.Fatalf("convert: %v", err)
	}

	events := emitter.byType(enums.EventStockLow)
	if len(events) != 1 {
		t.Fatalf("expected 1 stock_low event, got %d", len(events))
	}
	if events[0].AggregateID != rose.ID {
		t.Fatalf("expected low-stock event for rose, got %s", events[0].AggregateID)
	}
}

func TestConvertUnknownOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.ConvertReservationsToDeductions(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
