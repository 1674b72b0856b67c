package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the catalog entry a set of SKUs (condition/language/finish variants) hang off.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	SetName   string    `gorm:"column:set_name;not null;default:''"`
	Rarity    string    `gorm:"column:rarity;not null;default:''"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	SKUs      []SKU     `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
