package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WarehouseItem is a raw material consumed by product recipes.
//
// Quantity is the authoritative on-hand count; ReservedQuantity mirrors the
// sum of active order_reservations rows for the item and is only ever mutated
// in the same transaction as the ledger, so the two never drift. Committed
// deductions keep Quantity >= 0 at all times.
type WarehouseItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Quantity         int             `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity int             `gorm:"column:reserved_quantity;not null;default:0"`
	MinQuantity      int             `gorm:"column:min_quantity;not null;default:0"`
	CostPrice        decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	RetailPrice      decimal.Decimal `gorm:"column:retail_price;type:numeric(12,2);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *WarehouseItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// EffectiveQuantity is the stock a new reservation can still claim.
func (i WarehouseItem) EffectiveQuantity() int {
	return i.Quantity - i.ReservedQuantity
}

// IsLowStock reports whether the on-hand balance sits at or below threshold.
func (i WarehouseItem) IsLowStock() bool {
	return i.Quantity <= i.MinQuantity
}
