package payments

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// CreatePaymentRequest is what checkout hands the provider.
type CreatePaymentRequest struct {
	IdempotencyKey string
	OrderID        uuid.UUID
	OrderNumber    string
	AmountCents    int
	Method         enums.PaymentMethod
	Currency       enums.Currency
	CustomerEmail  string
	CustomerName   string
	CustomerCPF    string
	CustomerPhone  string
}

// CreatePaymentResponse carries the payment instructions for the shopper.
type CreatePaymentResponse struct {
	Success               bool
	ProviderTransactionID string
	Status                enums.PaymentStatus
	PixQRCode             *string
	PixCopyPaste          *string
	BoletoURL             *string
	BoletoBarcode         *string
	RedirectURL           *string
	ExpiresAt             *time.Time
	FeeCents              int
	Raw                   map[string]any
	ErrorMessage          string
}

// WebhookVerification is the parsed, authenticated content of a provider callback.
type WebhookVerification struct {
	IsValid               bool
	ProviderTransactionID string
	Status                enums.PaymentStatus
	PaidAt                *time.Time
	ErrorMessage          string
}

// Provider is the payment collaborator contract.
type Provider interface {
	Name() string
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (CreatePaymentResponse, error)
	VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookVerification, error)
	Refund(ctx context.Context, providerTransactionID string, amountCents int) error
	GetStatus(ctx context.Context, providerTransactionID string) (enums.PaymentStatus, error)
	CalculateFee(method enums.PaymentMethod, amountCents int) int
}

// NewProvider resolves a provider by name.
func NewProvider(name string, opts StubOptions) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderStub:
		return NewStubProvider(opts), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", name)
	}
}
