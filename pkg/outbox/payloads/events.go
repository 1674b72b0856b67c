package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID              uuid.UUID           `json:"order_id"`
	OrderNumber          string              `json:"order_number"`
	PaymentTransactionID uuid.UUID           `json:"payment_transaction_id"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	TotalCents           int                 `json:"total_cents"`
	Currency             enums.Currency      `json:"currency"`
	LineCount            int                 `json:"line_count"`
	UnitCount            int                 `json:"unit_count"`
}

// OrderPaidEvent is emitted once when a payment webhook confirms an order.
type OrderPaidEvent struct {
	OrderID              uuid.UUID `json:"order_id"`
	OrderNumber          string    `json:"order_number"`
	PaymentTransactionID uuid.UUID `json:"payment_transaction_id"`
	AmountCents          int       `json:"amount_cents"`
	PaidAt               time.Time `json:"paid_at"`
}

// ReservationReleasedEvent reports a cart line whose claim returned to stock and
// whose record was removed.
type ReservationReleasedEvent struct {
	CartItemID uuid.UUID `json:"cart_item_id"`
	CartID     uuid.UUID `json:"cart_id"`
	SKUID      uuid.UUID `json:"sku_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
}

// Reasons carried by ReservationReleasedEvent.
const (
	ReleaseReasonCartExpired    = "cart_expired"
	ReleaseReasonStockExhausted = "stock_exhausted"
)

// StockLowEvent is emitted when a mutation moves a SKU to or below its threshold.
type StockLowEvent struct {
	SKUID     uuid.UUID `json:"sku_id"`
	OnHand    int       `json:"on_hand"`
	Reserved  int       `json:"reserved"`
	Available int       `json:"available"`
	Threshold int       `json:"threshold"`
}

// PaymentStatusChangedEvent mirrors provider status transitions.
type PaymentStatusChangedEvent struct {
	PaymentTransactionID  uuid.UUID           `json:"payment_transaction_id"`
	OrderID               uuid.UUID           `json:"order_id"`
	ProviderTransactionID string              `json:"provider_transaction_id"`
	PreviousStatus        enums.PaymentStatus `json:"previous_status"`
	Status                enums.PaymentStatus `json:"status"`
}
