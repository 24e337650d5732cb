package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest is one (product, quantity) pair in an availability check or a
// reservation request.
type ItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// IngredientAvailability is the per-BOM-line breakdown of a product check.
// Reserved counts holds across all orders, not just the caller's.
type IngredientAvailability struct {
	WarehouseItemID uuid.UUID `json:"warehouse_item_id"`
	Name            string    `json:"name"`
	Required        int       `json:"required"`
	Available       int       `json:"available"`
	Reserved        int       `json:"reserved"`
	Sufficient      bool      `json:"sufficient"`
	Optional        bool      `json:"optional"`
}

// AvailabilityResult is the outcome of a single-product availability check.
type AvailabilityResult struct {
	ProductID   uuid.UUID                `json:"product_id"`
	ProductName string                   `json:"product_name,omitempty"`
	Requested   int                      `json:"requested"`
	Available   bool                     `json:"available"`
	MaxQuantity int                      `json:"max_quantity"`
	Ingredients []IngredientAvailability `json:"ingredients,omitempty"`
}

// ShortfallCause classifies why a batch entry cannot be satisfied.
type ShortfallCause string

const (
	ShortfallProductNotFound   ShortfallCause = "product_not_found"
	ShortfallProductDisabled   ShortfallCause = "product_disabled"
	ShortfallInsufficientStock ShortfallCause = "insufficient_stock"
	ShortfallDuplicateRequest  ShortfallCause = "duplicate_request"
)

// ShortfallReason is a structured batch warning. Display strings are rendered
// at the presentation boundary, never stored.
type ShortfallReason struct {
	Cause        ShortfallCause `json:"cause"`
	ProductID    uuid.UUID      `json:"product_id"`
	ProductName  string         `json:"product_name,omitempty"`
	Requested    int            `json:"requested,omitempty"`
	MaxAvailable int            `json:"max_available,omitempty"`
}

// String renders the reason for humans. API responses carry the structured
// form; this is for logs and error details.
func (r ShortfallReason) String() string {
	name := r.ProductName
	if name == "" {
		name = r.ProductID.String()
	}
	switch r.Cause {
	case ShortfallProductNotFound:
		return fmt.Sprintf("product %s not found", name)
	case ShortfallProductDisabled:
		return fmt.Sprintf("product %s is disabled", name)
	case ShortfallDuplicateRequest:
		return fmt.Sprintf("product %s requested more than once; quantities merged", name)
	case ShortfallInsufficientStock:
		return fmt.Sprintf("insufficient stock for %s: requested %d, can fulfill %d", name, r.Requested, r.MaxAvailable)
	default:
		return fmt.Sprintf("availability issue for %s", name)
	}
}

// BatchAvailabilityResult aggregates per-product checks. Available is the AND
// over all requested products.
type BatchAvailabilityResult struct {
	Available bool                 `json:"available"`
	Results   []AvailabilityResult `json:"results"`
	Warnings  []ShortfallReason    `json:"warnings,omitempty"`
}

// ReservationDetail is one ledger row joined with its item name.
type ReservationDetail struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	WarehouseItemID uuid.UUID `json:"warehouse_item_id"`
	ItemName        string    `json:"item_name"`
	Quantity        int       `json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
}

// AuditRecord reports one committed stock decrement from a deduction
// conversion.
type AuditRecord struct {
	WarehouseItemID uuid.UUID `json:"warehouse_item_id"`
	ItemName        string    `json:"item_name"`
	QuantityChange  int       `json:"quantity_change"`
	BalanceAfter    int       `json:"balance_after"`
}

// ItemSummary is the per-item block of the inventory summary and the item
// listing endpoint.
type ItemSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Reserved    int             `json:"reserved"`
	Effective   int             `json:"effective"`
	MinQuantity int             `json:"min_quantity"`
	LowStock    bool            `json:"low_stock"`
	CostValue   decimal.Decimal `json:"cost_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InventorySummary is the aggregate warehouse report.
type InventorySummary struct {
	TotalItems            int             `json:"total_items"`
	TotalCostValue        decimal.Decimal `json:"total_cost_value"`
	TotalRetailValue      decimal.Decimal `json:"total_retail_value"`
	LowStockCount         int             `json:"low_stock_count"`
	ItemsWithReservations int             `json:"items_with_reservations"`
	Items                 []ItemSummary   `json:"items"`
}

// WarehouseItemPage is one cursor page of warehouse items.
type WarehouseItemPage struct {
	Items      []ItemSummary `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// CleanupStats reports one sweep of abandoned reservations.
type CleanupStats struct {
	OrdersFound         int  `json:"orders_found"`
	ReservationsFound   int  `json:"reservations_found"`
	ReservationsDeleted int  `json:"reservations_deleted"`
	DryRun              bool `json:"dry_run"`
}
