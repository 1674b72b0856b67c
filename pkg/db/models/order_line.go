package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// ProductSnapshot freezes the descriptive fields of a SKU at purchase time.
type ProductSnapshot struct {
	ProductID   uuid.UUID           `json:"product_id"`
	ProductName string              `json:"product_name"`
	SetName     string              `json:"set_name,omitempty"`
	Rarity      string              `json:"rarity,omitempty"`
	SKUCode     string              `json:"sku_code"`
	Condition   enums.CardCondition `json:"condition"`
	Language    string              `json:"language"`
	IsFoil      bool                `json:"is_foil"`
}

// OrderLine copies one cart item into an order. SKUID is kept for reference
// only; later catalog edits never touch the snapshot.
type OrderLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	SKUID           uuid.UUID       `gorm:"column:sku_id;type:uuid;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPriceCents  int             `gorm:"column:unit_price_cents;not null"`
	TotalCents      int             `gorm:"column:total_cents;not null"`
	ProductSnapshot ProductSnapshot `gorm:"column:product_snapshot;type:jsonb;serializer:json;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
