package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// StockMovement is an append-only audit row written for every ledger mutation.
type StockMovement struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	SKUID         uuid.UUID               `gorm:"column:sku_id;type:uuid;not null;index"`
	Type          enums.StockMovementType `gorm:"column:type;type:varchar(16);not null"`
	Quantity      int                     `gorm:"column:quantity;not null"`
	OnHandAfter   int                     `gorm:"column:on_hand_after;not null"`
	ReservedAfter int                     `gorm:"column:reserved_after;not null"`
	Reference     string                  `gorm:"column:reference;not null;default:''"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
