package payments

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

const (
	ProviderStub = "stub"

	// StubSignatureHeader carries hex(HMAC-SHA256(secret, body)) when a secret is configured.
	StubSignatureHeader = "X-Stub-Signature"

	stubBaseURL       = "https://stub-provider.local"
	boletoBarcodeSize = 47
	merchantName      = "Nexus Card House"
)

var (
	stubFeeRates = map[enums.PaymentMethod]decimal.Decimal{
		enums.PaymentMethodPix:        decimal.RequireFromString("0.0099"),
		enums.PaymentMethodBoleto:     decimal.RequireFromString("0.0349"),
		enums.PaymentMethodCreditCard: decimal.RequireFromString("0.0399"),
		enums.PaymentMethodDebitCard:  decimal.RequireFromString("0.0299"),
	}
	stubDefaultFeeRate = decimal.RequireFromString("0.03")
)

// StubOptions configures the stub provider. WebhookSecret enables signature checks.
type StubOptions struct {
	WebhookSecret string
	Now           func() time.Time
}

// StubProvider fakes a Brazilian payment gateway. Transaction ids derive from
// the idempotency key, so repeated calls return the same instructions.
type StubProvider struct {
	secret []byte
	now    func() time.Time
}

func NewStubProvider(opts StubOptions) *StubProvider {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var secret []byte
	if s := strings.TrimSpace(opts.WebhookSecret); s != "" {
		secret = []byte(s)
	}
	return &StubProvider{secret: secret, now: now}
}

func (p *StubProvider) Name() string { return ProviderStub }

func (p *StubProvider) CreatePayment(ctx context.Context, req CreatePaymentRequest) (CreatePaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return CreatePaymentResponse{}, err
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return CreatePaymentResponse{}, fmt.Errorf("idempotency key is required")
	}
	if req.AmountCents <= 0 {
		return CreatePaymentResponse{}, fmt.Errorf("amount must be positive")
	}

	now := p.now().UTC()
	txID := StubTransactionID(req.IdempotencyKey)
	resp := CreatePaymentResponse{
		Success:               true,
		ProviderTransactionID: txID,
		Status:                enums.PaymentStatusPending,
		ExpiresAt:             timePtr(now.Add(24 * time.Hour)),
		FeeCents:              p.CalculateFee(req.Method, req.AmountCents),
		Raw: map[string]any{
			"stub": true,
			"request_data": map[string]any{
				"order_id":     req.OrderID.String(),
				"amount_cents": req.AmountCents,
				"method":       string(req.Method),
			},
		},
	}

	switch req.Method {
	case enums.PaymentMethodPix:
		code := pixCode(txID)
		resp.PixQRCode = &code
		resp.PixCopyPaste = strPtr(code)
		resp.ExpiresAt = timePtr(now.Add(2 * time.Hour))
	case enums.PaymentMethodBoleto:
		resp.BoletoURL = strPtr(fmt.Sprintf("%s/boleto/%s.pdf", stubBaseURL, txID))
		resp.BoletoBarcode = strPtr(boletoBarcode(txID))
		resp.ExpiresAt = timePtr(now.Add(3 * 24 * time.Hour))
	case enums.PaymentMethodCreditCard, enums.PaymentMethodDebitCard:
		resp.RedirectURL = strPtr(fmt.Sprintf("%s/card-auth/%s", stubBaseURL, txID))
		resp.Status = enums.PaymentStatusProcessing
	}
	return resp, nil
}

type stubWebhookPayload struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// VerifyWebhook parses {"transaction_id", "status"}; status defaults to COMPLETED.
func (p *StubProvider) VerifyWebhook(_ context.Context, headers http.Header, body []byte) (WebhookVerification, error) {
	if p.secret != nil {
		mac := hmac.New(sha256.New, p.secret)
		mac.Write(body)
		expected := mac.Sum(nil)
		got, err := hex.DecodeString(strings.TrimSpace(headers.Get(StubSignatureHeader)))
		if err != nil || !hmac.Equal(expected, got) {
			return WebhookVerification{IsValid: false, ErrorMessage: "invalid webhook signature"}, nil
		}
	}

	var payload stubWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookVerification{IsValid: false, ErrorMessage: err.Error()}, nil
	}
	if strings.TrimSpace(payload.TransactionID) == "" {
		return WebhookVerification{IsValid: false, ErrorMessage: "transaction_id is required"}, nil
	}

	status := enums.PaymentStatusCompleted
	if payload.Status != "" {
		parsed, err := enums.ParsePaymentStatus(strings.ToUpper(payload.Status))
		if err != nil {
			return WebhookVerification{IsValid: false, ErrorMessage: err.Error()}, nil
		}
		status = parsed
	}

	result := WebhookVerification{
		IsValid:               true,
		ProviderTransactionID: payload.TransactionID,
		Status:                status,
	}
	if status == enums.PaymentStatusCompleted {
		result.PaidAt = timePtr(p.now().UTC())
	}
	return result, nil
}

func (p *StubProvider) Refund(ctx context.Context, _ string, _ int) error {
	return ctx.Err()
}

func (p *StubProvider) GetStatus(ctx context.Context, _ string) (enums.PaymentStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return enums.PaymentStatusPending, nil
}

// CalculateFee applies the method's rate and truncates to whole centavos.
func (p *StubProvider) CalculateFee(method enums.PaymentMethod, amountCents int) int {
	rate, ok := stubFeeRates[method]
	if !ok {
		rate = stubDefaultFeeRate
	}
	return int(decimal.NewFromInt(int64(amountCents)).Mul(rate).Truncate(0).IntPart())
}

// StubTransactionID is "STUB-" plus the first 20 upper-case hex chars of sha256(key).
func StubTransactionID(idempotencyKey string) string {
	sum := sha256.Sum256([]byte(idempotencyKey))
	return "STUB-" + strings.ToUpper(hex.EncodeToString(sum[:])[:20])
}

// SignStubWebhook returns the signature header value for body.
func SignStubWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func pixCode(txID string) string {
	return "00020126580014br.gov.bcb.pix0114" + txID +
		"5204000053039865802BR5924" + merchantName +
		"6009SAO PAULO62070503***6304" + txID[:4]
}

func boletoBarcode(txID string) string {
	sum := md5.Sum([]byte(txID))
	var digits strings.Builder
	for _, r := range hex.EncodeToString(sum[:]) {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	out := digits.String()
	if len(out) > boletoBarcodeSize {
		out = out[:boletoBarcodeSize]
	}
	return out + strings.Repeat("0", boletoBarcodeSize-len(out))
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
