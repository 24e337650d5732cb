package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/pagination"
)

// Repository owns warehouse item, reservation ledger, and audit persistence.
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

// FindItem loads one warehouse item.
func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error) {
	var item models.WarehouseItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns every warehouse item ordered by name.
func (r *Repository) ListItems(ctx context.Context) ([]models.WarehouseItem, error) {
	var items []models.WarehouseItem
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemsPage returns one cursor page ordered by created_at then id. The
// caller passes the buffered limit (page size + 1) to detect a next page.
func (r *Repository) ListItemsPage(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.WarehouseItem, error) {
	q := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var items []models.WarehouseItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type reservedRow struct {
	WarehouseItemID uuid.UUID `gorm:"column:warehouse_item_id"`
	Total           int       `gorm:"column:total"`
}

// ReservedQuantities sums active ledger rows per warehouse item. With no ids
// it covers the whole ledger. Items without holds are absent from the map.
func (r *Repository) ReservedQuantities(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	q := r.db.WithContext(ctx).
		Model(&models.OrderReservation{}).
		Select("warehouse_item_id, COALESCE(SUM(quantity), 0) AS total").
		Group("warehouse_item_id")
	if len(itemIDs) > 0 {
		q = q.Where("warehouse_item_id IN ?", itemIDs)
	}
	var rows []reservedRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		result[row.WarehouseItemID] = row.Total
	}
	return result, nil
}

// ReservationsForOrder returns the order's ledger rows with items preloaded,
// in ascending item-id order so multi-item write paths touch rows in a stable
// sequence.
func (r *Repository) ReservationsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderReservation, error) {
	var rows []models.OrderReservation
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("order_id = ?", orderID).
		Order("warehouse_item_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertReservations writes the ledger rows for one order.
func (r *Repository) InsertReservations(ctx context.Context, rows []models.OrderReservation) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeleteReservationsForOrder removes every ledger row for the order and
// returns how many were deleted.
func (r *Repository) DeleteReservationsForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	res := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderReservation{})
	return int(res.RowsAffected), res.Error
}

// HoldQuantity atomically claims qty units of effective stock. The guard
// rejects the update when quantity - reserved_quantity < qty, so two
// concurrent holds on a scarce item can never both succeed.
func (r *Repository) HoldQuantity(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WarehouseItem{}).
		Where("id = ? AND quantity - reserved_quantity >= ?", itemID, qty).
		Update("reserved_quantity", gorm.Expr("reserved_quantity + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseQuantity returns qty units of held stock. Releasing more than is
// held never drives the counter negative; ok=false reports the guard miss so
// the caller can flag the counter/ledger drift.
func (r *Repository) ReleaseQuantity(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WarehouseItem{}).
		Where("id = ? AND reserved_quantity >= ?", itemID, qty).
		Update("reserved_quantity", gorm.Expr("reserved_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeductReserved converts qty held units into a permanent decrement. The
// guard re-verifies sufficiency at write time; ok=false means the caller must
// abort the whole conversion.
func (r *Repository) DeductReserved(ctx context.Context, itemID uuid.UUID, qty int) (*models.WarehouseItem, bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WarehouseItem{}).
		Where("id = ? AND quantity >= ? AND reserved_quantity >= ?", itemID, qty, qty).
		Updates(map[string]any{
			"quantity":          gorm.Expr("quantity - ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", qty),
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	item, err := r.FindItem(ctx, itemID)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// DeductOnHand decrements stock that was never held, for orders predating the
// ledger. The guard leaves other orders' holds intact.
func (r *Repository) DeductOnHand(ctx context.Context, itemID uuid.UUID, qty int) (*models.WarehouseItem, bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WarehouseItem{}).
		Where("id = ? AND quantity - reserved_quantity >= ?", itemID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	item, err := r.FindItem(ctx, itemID)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// InsertOperation appends one audit row.
func (r *Repository) InsertOperation(ctx context.Context, op *models.WarehouseOperation) error {
	return r.db.WithContext(ctx).Create(op).Error
}
