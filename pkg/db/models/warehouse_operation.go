package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/enums"
)

// WarehouseOperation is one append-only audit row per committed stock change.
// Rows are never updated or deleted.
type WarehouseOperation struct {
	ID              uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseItemID uuid.UUID                    `gorm:"column:warehouse_item_id;type:uuid;not null;index"`
	Type            enums.WarehouseOperationType `gorm:"column:type;type:warehouse_operation_type_enum;not null"`
	QuantityChange  int                          `gorm:"column:quantity_change;not null"`
	BalanceAfter    int                          `gorm:"column:balance_after;not null"`
	Description     string                       `gorm:"column:description"`
	OrderID         *uuid.UUID                   `gorm:"column:order_id;type:uuid;index"`
	CreatedAt       time.Time                    `gorm:"column:created_at;autoCreateTime"`
}

func (o *WarehouseOperation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
