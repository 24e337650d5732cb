package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/enums"
)

// Repository gives the inventory engine read access to orders. Order lifecycle
// writes happen in the order service, not here.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the order without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindLineItems returns the order's line items in insertion order.
func (r *Repository) FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	var items []models.OrderLineItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindStaleReservationHolders returns orders that still hold reservations,
// sit in one of the given statuses, and were created before the cutoff.
func (r *Repository) FindStaleReservationHolders(ctx context.Context, cutoff time.Time, statuses []enums.OrderStatus) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Distinct("orders.*").
		Joins("JOIN order_reservations ON order_reservations.order_id = orders.id").
		Where("orders.status IN ?", statuses).
		Where("orders.created_at < ?", cutoff).
		Order("orders.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
