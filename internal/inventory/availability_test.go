package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleurly/fleurly-backend/pkg/enums"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
)

func TestCheckAvailabilityBouquetScenario(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	rose := seedItem(t, db, "red rose stem", 100, 10)
	bouquet := seedProduct(t, db, "bouquet of 12 roses", true)
	seedRecipeLine(t, db, bouquet.ID, rose.ID, 12, false)

	result, err := svc.CheckAvailability(ctx, bouquet.ID, 8)
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if !result.Available {
		t.Fatal("expected 8 bouquets to be available from 100 roses")
	}
	if result.MaxQuantity != 8 {
		t.Fatalf("expected max quantity 8, got %d", result.MaxQuantity)
	}
	if len(result.Ingredients) != 1 {
		t.Fatalf("expected 1 ingredient, got %d", len(result.Ingredients))
	}
	if ing := result.Ingredients[0]; ing.Required != 96 || !ing.Sufficient {
		t.Fatalf("unexpected ingredient state: %+v", ing)
	}

	// Reserve 8 bouquets, then only 4 roses remain effective.
	order := seedOrder(t, db, "FL-1001", enums.OrderStatusNew, time.Now())
	if err := svc.CreateReservations(ctx, order.ID, []ItemRequest{{ProductID: bouquet.ID, Quantity: 8}}, true); err != nil {
		t.Fatalf("create reservations: %v", err)
	}

	result, err = svc.CheckAvailability(ctx, bouquet.ID, 1)
	if err != nil {
		t.Fatalf("check availability after reserve: %v", err)
	}
	if result.Available {
		t.Fatal("expected 1 more bouquet to be unavailable with 4 effective roses")
	}
	if result.MaxQuantity != 0 {
		t.Fatalf("expected max quantity 0, got %d", result.MaxQuantity)
	}
	if ing := result.Ingredients[0]; ing.Reserved != 96 || ing.Sufficient {
		t.Fatalf("unexpected ingredient state after reserve: %+v", ing)
	}
}

func TestCheckAvailabilityUnknownAndDisabled(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	result, err := svc.CheckAvailability(ctx, uuid.New(), 1)
	if err != nil {
		t.Fatalf("unknown product should not error: %v", err)
	}
	if result.Available || result.MaxQuantity != 0 {
		t.Fatalf("unknown product should be unavailable: %+v", result)
	}

	disabled := seedProduct(t, db, "retired arrangement", false)
	result, err = svc.CheckAvailability(ctx, disabled.ID, 1)
	if err != nil {
		t.Fatalf("disabled product should not error: %v", err)
	}
	if result.Available || result.MaxQuantity != 0 {
		t.Fatalf("disabled product should be unavailable: %+v", result)
	}
}

func TestCheckAvailabilityRecipelessProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	card := seedProduct(t, db, "greeting card", true)
	result, err := svc.CheckAvailability(ctx, card.ID, 3)
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if !result.Available {
		t.Fatal("recipe-less product should be available")
	}
	if result.MaxQuantity != unconstrainedCeiling {
		t.Fatalf("expected ceiling %d, got %d", unconstrainedCeiling, result.MaxQuantity)
	}
}

func TestCheckAvailabilityOptionalLinesNeverGate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	rose := seedItem(t, db, "rose", 10, 0)
	ribbon := seedItem(t, db, "ribbon", 0, 0)
	bouquet := seedProduct(t, db, "single rose wrap", true)
	seedRecipeLine(t, db, bouquet.ID, rose.ID, 1, false)
	seedRecipeLine(t, db, bouquet.ID, ribbon.ID, 1, true)

	result, err := svc.CheckAvailability(ctx, bouquet.ID, 5)
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if !result.Available {
		t.Fatal("out-of-stock optional line must not gate availability")
	}
	if result.MaxQuantity != 10 {
		t.Fatalf("expected max 10, got %d", result.MaxQuantity)
	}
	for _, ing := range result.Ingredients {
		if ing.Optional && !ing.Sufficient {
			t.Fatalf("optional ingredient should always read sufficient: %+v", ing)
		}
	}
}

func TestCheckAvailabilityZeroQuantityLinesNeverGate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	rose := seedItem(t, db, "rose", 10, 0)
	card := seedItem(t, db, "gift card blank", 0, 0)
	bouquet := seedProduct(t, db, "rose with card slot", true)
	seedRecipeLine(t, db, bouquet.ID, rose.ID, 1, false)
	seedRecipeLine(t, db, bouquet.ID, card.ID, 0, false)

	result, err := svc.CheckAvailability(ctx, bouquet.ID, 5)
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if !result.Available {
		t.Fatal("line requiring zero units must not gate availability")
	}
	if result.MaxQuantity != 10 {
		t.Fatalf("expected max 10, got %d", result.MaxQuantity)
	}
}

func TestCheckBatchAvailabilityCoalescesDuplicates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	tulip := seedItem(t, db, "tulip", 20, 0)
	bunch := seedProduct(t, db, "tulip bunch", true)
	seedRecipeLine(t, db, bunch.ID, tulip.ID, 4, false)

	batch, err := svc.CheckBatchAvailability(ctx, []ItemRequest{
		{ProductID: bunch.ID, Quantity: 2},
		{ProductID: bunch.ID, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("batch check: %v", err)
	}
	if !batch.Available {
		t.Fatal("expected 5 merged bunches to be available from 20 tulips")
	}
	if len(batch.Results) != 1 {
		t.Fatalf("expected 1 merged result, got %d", len(batch.Results))
	}
	if batch.Results[0].Requested != 5 {
		t.Fatalf("expected merged quantity 5, got %d", batch.Results[0].Requested)
	}
	if batch.Results[0].MaxQuantity != 5 {
		t.Fatalf("expected max 5, got %d", batch.Results[0].MaxQuantity)
	}

	foundDuplicate := false
	for _, warning := range batch.Warnings {
		if warning.Cause == ShortfallDuplicateRequest && warning.ProductID == bunch.ID {
			foundDuplicate = true
		}
	}
	if !foundDuplicate {
		t.Fatalf("expected duplicate warning, got %+v", batch.Warnings)
	}
}

func TestCheckBatchAvailabilityReportsShortfalls(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	lily := seedItem(t, db, "lily", 3, 0)
	vaseSet := seedProduct(t, db, "lily vase set", true)
	seedRecipeLine(t, db, vaseSet.ID, lily.ID, 2, false)
	disabled := seedProduct(t, db, "discontinued", false)
	missing := uuid.New()

	batch, err := svc.CheckBatchAvailability(ctx, []ItemRequest{
		{ProductID: vaseSet.ID, Quantity: 5},
		{ProductID: disabled.ID, Quantity: 1},
		{ProductID: missing, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("batch check: %v", err)
	}
	if batch.Available {
		t.Fatal("expected aggregate unavailable")
	}

	causes := map[ShortfallCause]bool{}
	for _, warning := range batch.Warnings {
		causes[warning.Cause] = true
		if warning.Cause == ShortfallInsufficientStock {
			if warning.Requested != 5 || warning.MaxAvailable != 1 {
				t.Fatalf("unexpected shortfall detail: %+v", warning)
			}
		}
	}
	for _, want := range []ShortfallCause{ShortfallInsufficientStock, ShortfallProductDisabled, ShortfallProductNotFound} {
		if !causes[want] {
			t.Fatalf("missing %s warning in %+v", want, batch.Warnings)
		}
	}
}

func TestCheckAvailabilityRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.CheckAvailability(context.Background(), uuid.New(), 0)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
