package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRecipe is one bill-of-materials line: building one unit of the
// product consumes Quantity units of the warehouse item. Optional lines
// (ribbon, wrapping) never gate availability and are never deducted.
type ProductRecipe struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseItemID uuid.UUID      `gorm:"column:warehouse_item_id;type:uuid;not null;index"`
	Quantity        int            `gorm:"column:quantity;not null"`
	Optional        bool           `gorm:"column:optional;not null;default:false"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Item *WarehouseItem `gorm:"foreignKey:WarehouseItemID"`
}

func (r *ProductRecipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
