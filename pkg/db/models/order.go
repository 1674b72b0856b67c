package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// Order is created by checkout from a cart. Totals are fixed at creation.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   string               `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	SessionID     string               `gorm:"column:session_id;not null;index"`
	CartID        uuid.UUID            `gorm:"column:cart_id;type:uuid;not null;index"`
	UserID        *uuid.UUID           `gorm:"column:user_id;type:uuid"`
	Status        enums.OrderStatus    `gorm:"column:status;type:varchar(16);not null;default:'PENDING'"`
	PaymentMethod enums.PaymentMethod  `gorm:"column:payment_method;type:varchar(16);not null"`
	CustomerEmail string               `gorm:"column:customer_email;not null"`
	CustomerName  string               `gorm:"column:customer_name;not null"`
	CustomerCPF   string               `gorm:"column:customer_cpf;not null;default:''"`
	CustomerPhone string               `gorm:"column:customer_phone;not null;default:''"`
	Shipping      ShippingAddress      `gorm:"embedded"`
	SubtotalCents int                  `gorm:"column:subtotal_cents;not null"`
	ShippingCents int                  `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents int                  `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int                  `gorm:"column:total_cents;not null"`
	Currency      enums.Currency       `gorm:"column:currency;type:varchar(3);not null;default:'BRL'"`
	Lines         []OrderLine          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments      []PaymentTransaction `gorm:"foreignKey:OrderID"`
	Notes         *string              `gorm:"column:notes"`
	TrackingCode  *string              `gorm:"column:tracking_code"`
	ConfirmedAt   *time.Time           `gorm:"column:confirmed_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ShippingAddress is embedded into Order as flat shipping_* columns.
type ShippingAddress struct {
	Street       string `gorm:"column:shipping_street;not null"`
	Number       string `gorm:"column:shipping_number;not null"`
	Complement   string `gorm:"column:shipping_complement;not null;default:''"`
	Neighborhood string `gorm:"column:shipping_neighborhood;not null;default:''"`
	City         string `gorm:"column:shipping_city;not null"`
	State        string `gorm:"column:shipping_state;type:varchar(2);not null"`
	CEP          string `gorm:"column:shipping_cep;type:varchar(9);not null"`
}
