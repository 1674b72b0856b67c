package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/nexus-cards-backend/api/responses"
	"github.com/angelmondragon/nexus-cards-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/nexus-cards-backend/internal/checkout"
	"github.com/angelmondragon/nexus-cards-backend/internal/orders"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

const maxNotesLength = 1000

type checkoutRequest struct {
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=PIX BOLETO CREDIT_CARD DEBIT_CARD pix boleto credit_card debit_card"`
	Customer      checkoutCustomer `json:"customer" validate:"required"`
	Shipping      checkoutShipping `json:"shipping" validate:"required"`
	ShippingCents int              `json:"shipping_cents" validate:"min=0"`
	DiscountCents int              `json:"discount_cents" validate:"min=0"`
	Notes         string           `json:"notes"`
}

type checkoutCustomer struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=200"`
	CPF   string `json:"cpf" validate:"omitempty,len=11,numeric"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

type checkoutShipping struct {
	Street       string `json:"street" validate:"required,max=255"`
	Number       string `json:"number" validate:"required,max=20"`
	Complement   string `json:"complement" validate:"max=100"`
	Neighborhood string `json:"neighborhood" validate:"max=100"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,len=2"`
	CEP          string `json:"cep" validate:"required,min=8,max=9"`
}

type checkoutResponse struct {
	Order    orders.OrderDTO `json:"order"`
	Replayed bool            `json:"replayed"`
}

func (req checkoutRequest) toInput(sessionID string) checkoutsvc.Input {
	return checkoutsvc.Input{
		SessionID:     sessionID,
		PaymentMethod: enums.PaymentMethod(strings.ToUpper(req.PaymentMethod)),
		Customer: checkoutsvc.Customer{
			Email: req.Customer.Email,
			Name:  validators.SanitizeString(req.Customer.Name, 200),
			CPF:   req.Customer.CPF,
			Phone: req.Customer.Phone,
		},
		Shipping: models.ShippingAddress{
			Street:       validators.SanitizeString(req.Shipping.Street, 255),
			Number:       validators.SanitizeString(req.Shipping.Number, 20),
			Complement:   validators.SanitizeString(req.Shipping.Complement, 100),
			Neighborhood: validators.SanitizeString(req.Shipping.Neighborhood, 100),
			City:         validators.SanitizeString(req.Shipping.City, 100),
			State:        req.Shipping.State,
			CEP:          req.Shipping.CEP,
		},
		ShippingCents: req.ShippingCents,
		DiscountCents: req.DiscountCents,
		Notes:         validators.SanitizeString(req.Notes, maxNotesLength),
	}
}

// Checkout converts the session's cart into an order. A replayed attempt
// answers 200 with the original order instead of 201.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "checkout service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), payload.toInput(sessionID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, checkoutResponse{
			Order:    orders.NewOrderDTO(*result.Order),
			Replayed: result.Replayed,
		})
	}
}
