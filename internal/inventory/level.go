package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
)

// Level is a read-only snapshot of one ledger row.
type Level struct {
	SKUID             uuid.UUID  `json:"sku_id"`
	OnHand            int        `json:"on_hand"`
	Reserved          int        `json:"reserved"`
	Available         int        `json:"available"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	IsLowStock        bool       `json:"is_low_stock"`
	IsInStock         bool       `json:"is_in_stock"`
	WarehouseLocation string     `json:"warehouse_location,omitempty"`
	LastRestockAt     *time.Time `json:"last_restock_at,omitempty"`
}

func levelOf(item models.InventoryItem) Level {
	return Level{
		SKUID:             item.SKUID,
		OnHand:            item.OnHand,
		Reserved:          item.Reserved,
		Available:         item.Available(),
		LowStockThreshold: item.LowStockThreshold,
		IsLowStock:        item.IsLowStock(),
		IsInStock:         item.IsInStock(),
		WarehouseLocation: item.WarehouseLocation,
		LastRestockAt:     item.LastRestockAt,
	}
}
