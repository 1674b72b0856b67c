package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLowStockThreshold applies when a ledger row is provisioned without one.
const DefaultLowStockThreshold = 5

// InventoryItem is the stock ledger row for one SKU.
// Invariant: 0 <= Reserved <= OnHand.
type InventoryItem struct {
	SKUID             uuid.UUID  `gorm:"column:sku_id;type:uuid;primaryKey"`
	OnHand            int        `gorm:"column:on_hand;not null;default:0"`
	Reserved          int        `gorm:"column:reserved;not null;default:0"`
	LowStockThreshold int        `gorm:"column:low_stock_threshold;not null;default:5"`
	WarehouseLocation string     `gorm:"column:warehouse_location;not null;default:''"`
	LastRestockAt     *time.Time `gorm:"column:last_restock_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Available is the stock not claimed by any live reservation.
func (i InventoryItem) Available() int {
	return i.OnHand - i.Reserved
}

func (i InventoryItem) IsLowStock() bool {
	return i.Available() <= i.LowStockThreshold
}

func (i InventoryItem) IsInStock() bool {
	return i.Available() > 0
}
