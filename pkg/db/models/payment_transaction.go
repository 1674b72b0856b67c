package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// PaymentTransaction records one provider-side payment attempt. The
// idempotency key is unique and doubles as the checkout replay handle.
type PaymentTransaction struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID               uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	IdempotencyKey        string              `gorm:"column:idempotency_key;not null;uniqueIndex:ux_payment_transactions_idempotency_key"`
	Provider              string              `gorm:"column:provider;not null"`
	ProviderTransactionID string              `gorm:"column:provider_transaction_id;not null;index"`
	Method                enums.PaymentMethod `gorm:"column:method;type:varchar(16);not null"`
	Status                enums.PaymentStatus `gorm:"column:status;type:varchar(16);not null"`
	AmountCents           int                 `gorm:"column:amount_cents;not null"`
	FeeCents              int                 `gorm:"column:fee_cents;not null;default:0"`
	NetAmountCents        int                 `gorm:"column:net_amount_cents;not null"`
	PixQRCode             *string             `gorm:"column:pix_qr_code"`
	PixCopyPaste          *string             `gorm:"column:pix_copy_paste"`
	BoletoURL             *string             `gorm:"column:boleto_url"`
	BoletoBarcode         *string             `gorm:"column:boleto_barcode"`
	RedirectURL           *string             `gorm:"column:redirect_url"`
	ExpiresAt             *time.Time          `gorm:"column:expires_at"`
	PaidAt                *time.Time          `gorm:"column:paid_at"`
	ErrorMessage          *string             `gorm:"column:error_message"`
	RawResponse           json.RawMessage     `gorm:"column:raw_response;type:jsonb"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentTransaction) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
