package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres. The inventory engine
// never mutates it; it only reads it to decide reservation cleanup eligibility.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusAssembled OrderStatus = "assembled"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDeleted   OrderStatus = "deleted"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusPaid,
	OrderStatusAssembled,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusDeleted,
}

// AbandonedReservationStatuses are the order states in which an aged
// reservation is considered leaked rather than legitimately in flight.
var AbandonedReservationStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusCancelled,
}

// IsValid reports whether the value matches the canonical order_status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
