package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is a reservation record: it holds Quantity units of the SKU's stock
// until ReservationExpiresAt. UnitPriceCents is captured on creation and never
// refreshed.
type CartItem struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID               uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_sku"`
	SKUID                uuid.UUID `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_sku"`
	SKU                  *SKU      `gorm:"foreignKey:SKUID;constraint:OnDelete:RESTRICT"`
	Quantity             int       `gorm:"column:quantity;not null"`
	UnitPriceCents       int       `gorm:"column:unit_price_cents;not null"`
	ReservationExpiresAt time.Time `gorm:"column:reservation_expires_at;not null;index"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i CartItem) IsReservationExpired(now time.Time) bool {
	return now.After(i.ReservationExpiresAt)
}

func (i CartItem) LineTotalCents() int {
	return i.Quantity * i.UnitPriceCents
}
