package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/internal/catalog"
	"github.com/fleurly/fleurly-backend/internal/orders"
	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/enums"
	"github.com/fleurly/fleurly-backend/pkg/outbox"
)

// The production schema lives in goose migrations; tests mirror it in
// sqlite-flavored DDL because the uuid defaults are Postgres functions.
var testSchema = []string{
	`CREATE TABLE warehouse_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		reserved_quantity INTEGER NOT NULL DEFAULT 0,
		min_quantity INTEGER NOT NULL DEFAULT 0,
		cost_price NUMERIC NOT NULL DEFAULT 0,
		retail_price NUMERIC NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		price_cents INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_recipes (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		warehouse_item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		optional BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_line_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE order_reservations (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		warehouse_item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE warehouse_operations (
		id TEXT PRIMARY KEY,
		warehouse_item_id TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity_change INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		description TEXT,
		order_id TEXT,
		created_at DATETIME
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create test schema: %v", err)
		}
	}
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (e *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	e.events = append(e.events, event)
	return nil
}

func (e *recordingEmitter) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var matched []outbox.DomainEvent
	for _, event := range e.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(db),
		Catalog: catalog.NewRepository(db),
		Orders:  orders.NewRepository(db),
		DB:      &testTxRunner{db: db},
		Outbox:  emitter,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, emitter
}

func seedItem(t *testing.T, db *gorm.DB, name string, quantity, minQuantity int) models.WarehouseItem {
	t.Helper()
	item := models.WarehouseItem{
		Name:        name,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		CostPrice:   decimal.NewFromInt(2),
		RetailPrice: decimal.NewFromInt(5),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item %s: %v", name, err)
	}
	return item
}

func seedProduct(t *testing.T, db *gorm.DB, name string, active bool) models.Product {
	t.Helper()
	product := models.Product{
		Name:     name,
		SKU:      "sku-" + uuid.NewString()[:8],
		IsActive: active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func seedRecipeLine(t *testing.T, db *gorm.DB, productID, itemID uuid.UUID, quantity int, optional bool) models.ProductRecipe {
	t.Helper()
	line := models.ProductRecipe{
		ProductID:       productID,
		WarehouseItemID: itemID,
		Quantity:        quantity,
		Optional:        optional,
	}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("seed recipe line: %v", err)
	}
	return line
}

func seedOrder(t *testing.T, db *gorm.DB, number string, status enums.OrderStatus, createdAt time.Time) models.Order {
	t.Helper()
	order := models.Order{
		Number:    number,
		Status:    status,
		CreatedAt: createdAt,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order %s: %v", number, err)
	}
	return order
}

func seedLineItem(t *testing.T, db *gorm.DB, orderID, productID uuid.UUID, quantity int) models.OrderLineItem {
	t.Helper()
	item := models.OrderLineItem{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed line item: %v", err)
	}
	return item
}

func reloadItem(t *testing.T, db *gorm.DB, id uuid.UUID) models.WarehouseItem {
	t.Helper()
	var item models.WarehouseItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	return item
}

func countReservations(t *testing.T, db *gorm.DB, orderID uuid.UUID) int {
	t.Helper()
	var count int64
	if err := db.Model(&models.OrderReservation{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	return int(count)
}
