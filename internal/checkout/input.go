package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

// Customer identifies the buyer on the order and towards the payment provider.
type Customer struct {
	Email string
	Name  string
	CPF   string
	Phone string
}

// Input is one checkout attempt for the session's cart.
type Input struct {
	SessionID     string
	PaymentMethod enums.PaymentMethod
	Customer      Customer
	Shipping      models.ShippingAddress
	// ShippingCents and DiscountCents are applied to the total as given.
	ShippingCents int
	DiscountCents int
	Notes         string
}

func (in *Input) normalize() error {
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	in.PaymentMethod = enums.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(in.PaymentMethod))))
	if !in.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"payment_method": in.PaymentMethod})
	}
	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	if in.Customer.Email == "" || in.Customer.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email and name are required")
	}
	in.Shipping.State = strings.ToUpper(strings.TrimSpace(in.Shipping.State))
	if in.ShippingCents < 0 || in.DiscountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping and discount must not be negative")
	}
	return nil
}

// IdempotencyKey identifies a logical checkout attempt: one cart paid one way.
func IdempotencyKey(cartID uuid.UUID, method enums.PaymentMethod) string {
	return fmt.Sprintf("cart_%s_%s", cartID, method)
}
