package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/pagination"
)

// GetInventorySummary aggregates the whole warehouse: counts, stock value at
// cost and retail, low-stock flags, and per-item detail.
func (s *service) GetInventorySummary(ctx context.Context) (*InventorySummary, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading warehouse items")
	}
	reserved, err := s.repo.ReservedQuantities(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservation sums")
	}

	summary := &InventorySummary{
		TotalItems:       len(items),
		TotalCostValue:   decimal.Zero,
		TotalRetailValue: decimal.Zero,
		Items:            make([]ItemSummary, 0, len(items)),
	}
	for _, item := range items {
		entry := itemSummaryOf(item, reserved[item.ID])
		summary.TotalCostValue = summary.TotalCostValue.Add(entry.CostValue)
		summary.TotalRetailValue = summary.TotalRetailValue.Add(entry.RetailValue)
		if entry.LowStock {
			summary.LowStockCount++
		}
		if entry.Reserved > 0 {
			summary.ItemsWithReservations++
		}
		summary.Items = append(summary.Items, entry)
	}
	return summary, nil
}

// ListWarehouseItems returns one cursor page of items with their current
// reservation state.
func (s *service) ListWarehouseItems(ctx context.Context, params pagination.Params) (*WarehouseItemPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	items, err := s.repo.ListItemsPage(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading warehouse items")
	}

	page := &WarehouseItemPage{}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	reserved, err := s.repo.ReservedQuantities(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservation sums")
	}

	for _, item := range items {
		page.Items = append(page.Items, itemSummaryOf(item, reserved[item.ID]))
	}
	if hasMore {
		last := items[len(items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func itemSummaryOf(item models.WarehouseItem, reserved int) ItemSummary {
	qty := decimal.NewFromInt(int64(item.Quantity))
	return ItemSummary{
		ID:          item.ID,
		Name:        item.Name,
		Quantity:    item.Quantity,
		Reserved:    reserved,
		Effective:   item.Quantity - reserved,
		MinQuantity: item.MinQuantity,
		LowStock:    item.IsLowStock(),
		CostValue:   item.CostPrice.Mul(qty),
		RetailValue: item.RetailPrice.Mul(qty),
		CreatedAt:   item.CreatedAt,
	}
}
