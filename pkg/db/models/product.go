package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable good (bouquet, arrangement). Catalog CRUD lives
// elsewhere; the inventory engine only reads the enabled flag and the name.
type Product struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	SKU        string    `gorm:"column:sku;uniqueIndex"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Recipes []ProductRecipe `gorm:"foreignKey:ProductID"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
