package enums

import "fmt"

// WarehouseOperationType maps to the warehouse_operation_type enum in Postgres.
// Every committed stock change writes exactly one audit row carrying this type.
type WarehouseOperationType string

const (
	WarehouseOperationSale        WarehouseOperationType = "sale"
	WarehouseOperationDelivery    WarehouseOperationType = "delivery"
	WarehouseOperationWriteoff    WarehouseOperationType = "writeoff"
	WarehouseOperationPriceChange WarehouseOperationType = "price_change"
	WarehouseOperationInventory   WarehouseOperationType = "inventory"
)

var validWarehouseOperationTypes = []WarehouseOperationType{
	WarehouseOperationSale,
	WarehouseOperationDelivery,
	WarehouseOperationWriteoff,
	WarehouseOperationPriceChange,
	WarehouseOperationInventory,
}

// IsValid reports whether the value matches the canonical operation type enum.
func (t WarehouseOperationType) IsValid() bool {
	for _, candidate := range validWarehouseOperationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWarehouseOperationType converts raw input into WarehouseOperationType.
func ParseWarehouseOperationType(value string) (WarehouseOperationType, error) {
	for _, candidate := range validWarehouseOperationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warehouse operation type %q", value)
}
