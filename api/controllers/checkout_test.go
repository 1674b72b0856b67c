package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutsvc "github.com/angelmondragon/nexus-cards-backend/internal/checkout"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

type stubCheckout struct {
	result *checkoutsvc.Result
	err    error
	inputs []checkoutsvc.Input
}

func (s *stubCheckout) Checkout(_ context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.inputs = append(s.inputs, input)
	return s.result, s.err
}

const checkoutBody = `{
	"payment_method": "pix",
	"customer": {"email": "ana@example.com", "name": " Ana Souza ", "cpf": "12345678901"},
	"shipping": {"street": "Rua A", "number": "10", "city": "Sao Paulo", "state": "SP", "cep": "01000-000"},
	"shipping_cents": 1500
}`

func sampleResult(replayed bool) *checkoutsvc.Result {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "NCH-20261018-ABCDE",
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodPix,
		SubtotalCents: 3000,
		ShippingCents: 1500,
		TotalCents:    4500,
		Currency:      enums.CurrencyBRL,
		Lines: []models.OrderLine{
			{ID: uuid.New(), SKUID: uuid.New(), Quantity: 2, UnitPriceCents: 1500, TotalCents: 3000},
		},
	}
	payment := models.PaymentTransaction{ID: uuid.New(), OrderID: order.ID, Method: enums.PaymentMethodPix, Status: enums.PaymentStatusPending, AmountCents: 4500}
	order.Payments = []models.PaymentTransaction{payment}
	return &checkoutsvc.Result{Order: order, Payment: &payment, Replayed: replayed}
}

func TestCheckoutCreatesOrder(t *testing.T) {
	svc := &stubCheckout{result: sampleResult(false)}
	rec := serve(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", "sess-1", checkoutBody, Checkout(svc, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[checkoutResponse](t, rec.Body)
	assert.Equal(t, "NCH-20261018-ABCDE", body.Data.Order.OrderNumber)
	assert.Equal(t, 2, body.Data.Order.ItemCount)
	require.NotNil(t, body.Data.Order.Payment)
	assert.False(t, body.Data.Replayed)

	require.Len(t, svc.inputs, 1)
	in := svc.inputs[0]
	assert.Equal(t, "sess-1", in.SessionID)
	assert.Equal(t, enums.PaymentMethodPix, in.PaymentMethod)
	assert.Equal(t, "Ana Souza", in.Customer.Name)
	assert.Equal(t, 1500, in.ShippingCents)
}

func TestCheckoutReplayAnswersOK(t *testing.T) {
	svc := &stubCheckout{result: sampleResult(true)}
	rec := serve(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", "sess-1", checkoutBody, Checkout(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[checkoutResponse](t, rec.Body)
	assert.True(t, body.Data.Replayed)
}

func TestCheckoutValidatesPayload(t *testing.T) {
	svc := &stubCheckout{result: sampleResult(false)}
	rec := serve(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", "sess-1",
		`{"payment_method":"CASH","customer":{"email":"x","name":"A"},"shipping":{"street":"a","number":"1","city":"c","state":"SPX","cep":"1"}}`,
		Checkout(svc, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[checkoutResponse](t, rec.Body)
	assert.Contains(t, body.Error.Details, "payment_method")
	assert.Contains(t, body.Error.Details, "customer.email")
	assert.Contains(t, body.Error.Details, "shipping.state")
	assert.Empty(t, svc.inputs)
}

func TestCheckoutMapsDomainErrors(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeCartNotFound:     http.StatusNotFound,
		pkgerrors.CodeCartExpired:      http.StatusGone,
		pkgerrors.CodeEmptyCart:        http.StatusBadRequest,
		pkgerrors.CodeReservationStale: http.StatusConflict,
		pkgerrors.CodePaymentProvider:  http.StatusBadGateway,
	}
	for code, status := range cases {
		svc := &stubCheckout{err: pkgerrors.New(code, "checkout failed")}
		rec := serve(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", "sess-1", checkoutBody, Checkout(svc, nil))
		assert.Equal(t, status, rec.Code, "code %s", code)
		assert.Equal(t, string(code), decode[checkoutResponse](t, rec.Body).Error.Code)
	}
}
