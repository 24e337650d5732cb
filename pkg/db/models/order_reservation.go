package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderReservation is a logical hold on warehouse stock tied to an order.
// One row exists per distinct warehouse item the order consumes, with the
// BOM-expanded quantity already summed across the order's line items.
// Rows are deleted when the hold resolves: deduction on assembly, release on
// cancellation, or the cleanup sweep.
type OrderReservation struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	WarehouseItemID uuid.UUID `gorm:"column:warehouse_item_id;type:uuid;not null;index"`
	Quantity        int       `gorm:"column:quantity;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`

	Item *WarehouseItem `gorm:"foreignKey:WarehouseItemID"`
}

func (r *OrderReservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
