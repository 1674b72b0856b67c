package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart groups the reservation-bearing items of one shopper session.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SessionID string     `gorm:"column:session_id;not null;uniqueIndex:ux_carts_session_id"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null;index"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c Cart) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// SubtotalCents sums quantity times the captured unit price of every item.
func (c Cart) SubtotalCents() int {
	total := 0
	for _, item := range c.Items {
		total += item.LineTotalCents()
	}
	return total
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}
