package payloads

import (
	"time"

	"github.com/google/uuid"
)

// ReservedItem is one warehouse item hold inside a reservation event.
type ReservedItem struct {
	WarehouseItemID uuid.UUID `json:"warehouse_item_id"`
	Quantity        int       `json:"quantity"`
}

// ReservationCreatedEvent signals that stock holds were placed for an order.
type ReservationCreatedEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Items       []ReservedItem `json:"items"`
}

// ReservationReleasedEvent is emitted when an order's holds are dropped,
// whether by explicit release or the cleanup sweep.
type ReservationReleasedEvent struct {
	OrderID        uuid.UUID      `json:"order_id"`
	Items          []ReservedItem `json:"items"`
	ReleasedBy     string         `json:"released_by"`
	ReleasedAt     time.Time      `json:"released_at"`
	SweepTriggered bool           `json:"sweep_triggered"`
}

// StockDeductedEvent surfaces the committed stock changes when an order assembles.
type StockDeductedEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Items       []ReservedItem `json:"items"`
	Source      string         `json:"source"`
}

// StockLowEvent warns that an item's on-hand balance dropped to or below its minimum.
type StockLowEvent struct {
	WarehouseItemID uuid.UUID `json:"warehouse_item_id"`
	Name            string    `json:"name"`
	Quantity        int       `json:"quantity"`
	MinQuantity     int       `json:"min_quantity"`
}
