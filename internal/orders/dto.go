package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// OrderDTO is the client-facing view of an order and its latest payment.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CustomerEmail string              `json:"customer_email"`
	CustomerName  string              `json:"customer_name"`
	Shipping      ShippingDTO         `json:"shipping"`
	SubtotalCents int                 `json:"subtotal_cents"`
	ShippingCents int                 `json:"shipping_cents"`
	DiscountCents int                 `json:"discount_cents"`
	TotalCents    int                 `json:"total_cents"`
	Currency      enums.Currency      `json:"currency"`
	ItemCount     int                 `json:"item_count"`
	Lines         []OrderLineDTO      `json:"lines"`
	Payment       *PaymentDTO         `json:"payment,omitempty"`
	TrackingCode  *string             `json:"tracking_code,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type ShippingDTO struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	CEP          string `json:"cep"`
}

type OrderLineDTO struct {
	ID             uuid.UUID              `json:"id"`
	SKUID          uuid.UUID              `json:"sku_id"`
	Quantity       int                    `json:"quantity"`
	UnitPriceCents int                    `json:"unit_price_cents"`
	TotalCents     int                    `json:"total_cents"`
	Product        models.ProductSnapshot `json:"product"`
}

// PaymentDTO carries the payment instructions returned to the shopper.
type PaymentDTO struct {
	ID                    uuid.UUID           `json:"id"`
	Provider              string              `json:"provider"`
	ProviderTransactionID string              `json:"provider_transaction_id"`
	Method                enums.PaymentMethod `json:"method"`
	Status                enums.PaymentStatus `json:"status"`
	AmountCents           int                 `json:"amount_cents"`
	FeeCents              int                 `json:"fee_cents"`
	PixQRCode             *string             `json:"pix_qr_code,omitempty"`
	PixCopyPaste          *string             `json:"pix_copy_paste,omitempty"`
	BoletoURL             *string             `json:"boleto_url,omitempty"`
	BoletoBarcode         *string             `json:"boleto_barcode,omitempty"`
	RedirectURL           *string             `json:"redirect_url,omitempty"`
	ExpiresAt             *time.Time          `json:"expires_at,omitempty"`
	PaidAt                *time.Time          `json:"paid_at,omitempty"`
}

// NewOrderDTO maps an order. Lines and Payments must be loaded; the last
// payment is reported.
func NewOrderDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		Shipping: ShippingDTO{
			Street:       order.Shipping.Street,
			Number:       order.Shipping.Number,
			Complement:   order.Shipping.Complement,
			Neighborhood: order.Shipping.Neighborhood,
			City:         order.Shipping.City,
			State:        order.Shipping.State,
			CEP:          order.Shipping.CEP,
		},
		SubtotalCents: order.SubtotalCents,
		ShippingCents: order.ShippingCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
		Lines:         make([]OrderLineDTO, 0, len(order.Lines)),
		TrackingCode:  order.TrackingCode,
		ConfirmedAt:   order.ConfirmedAt,
		CreatedAt:     order.CreatedAt,
	}
	for _, line := range order.Lines {
		dto.ItemCount += line.Quantity
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ID:             line.ID,
			SKUID:          line.SKUID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
			Product:        line.ProductSnapshot,
		})
	}
	if n := len(order.Payments); n > 0 {
		payment := NewPaymentDTO(order.Payments[n-1])
		dto.Payment = &payment
	}
	return dto
}

func NewPaymentDTO(p models.PaymentTransaction) PaymentDTO {
	return PaymentDTO{
		ID:                    p.ID,
		Provider:              p.Provider,
		ProviderTransactionID: p.ProviderTransactionID,
		Method:                p.Method,
		Status:                p.Status,
		AmountCents:           p.AmountCents,
		FeeCents:              p.FeeCents,
		PixQRCode:             p.PixQRCode,
		PixCopyPaste:          p.PixCopyPaste,
		BoletoURL:             p.BoletoURL,
		BoletoBarcode:         p.BoletoBarcode,
		RedirectURL:           p.RedirectURL,
		ExpiresAt:             p.ExpiresAt,
		PaidAt:                p.PaidAt,
	}
}
