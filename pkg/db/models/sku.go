package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// SKU is a sellable variant of a Product. Its InventoryItem is provisioned alongside it.
type SKU struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Product        *Product            `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	SKUCode        string              `gorm:"column:sku_code;not null;uniqueIndex:ux_skus_sku_code"`
	Condition      enums.CardCondition `gorm:"column:condition;type:varchar(8);not null;default:'NM'"`
	Language       string              `gorm:"column:language;type:varchar(8);not null;default:'EN'"`
	IsFoil         bool                `gorm:"column:is_foil;not null;default:false"`
	PriceCents     int                 `gorm:"column:price_cents;not null"`
	SalePriceCents *int                `gorm:"column:sale_price_cents"`
	IsActive       bool                `gorm:"column:is_active;not null;default:true"`
	Inventory      *InventoryItem      `gorm:"foreignKey:SKUID"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (SKU) TableName() string { return "skus" }

func (s *SKU) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// EffectivePriceCents returns the sale price when one is set, else the list price.
func (s SKU) EffectivePriceCents() int {
	if s.SalePriceCents != nil {
		return *s.SalePriceCents
	}
	return s.PriceCents
}
