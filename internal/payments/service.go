package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/orders"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service applies provider callbacks to payment transactions and orders.
type Service interface {
	Provider() Provider
	// VerifyWebhook authenticates and parses a callback. Invalid callbacks map to VALIDATION_ERROR.
	VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookVerification, error)
	ApplyWebhook(ctx context.Context, v WebhookVerification) (*models.PaymentTransaction, error)
}

type ServiceParams struct {
	Repo     Repository
	Orders   orders.Repository
	Tx       txRunner
	Provider Provider
	Outbox   outboxEmitter
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	orders   orders.Repository
	tx       txRunner
	provider Provider
	outbox   outboxEmitter
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("payment repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Provider == nil:
		return nil, fmt.Errorf("payment provider required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		tx:       params.Tx,
		provider: params.Provider,
		outbox:   params.Outbox,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Provider() Provider { return s.provider }

func (s *service) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookVerification, error) {
	v, err := s.provider.VerifyWebhook(ctx, headers, body)
	if err != nil {
		return WebhookVerification{}, pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, "verify webhook")
	}
	if !v.IsValid {
		return WebhookVerification{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook").
			WithDetails(map[string]any{"reason": v.ErrorMessage})
	}
	return v, nil
}

func (s *service) ApplyWebhook(ctx context.Context, v WebhookVerification) (*models.PaymentTransaction, error) {
	if !v.IsValid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"provider_transaction_id": v.ProviderTransactionID,
		"status":                  v.Status,
	})

	var result *models.PaymentTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindForUpdate(ctx, s.provider.Name(), v.ProviderTransactionID)
		if err != nil {
			return err
		}
		result = payment
		previous := payment.Status
		if previous == v.Status {
			return nil
		}
		if !canTransition(previous, v.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status transition not allowed").
				WithDetails(map[string]any{"from": previous, "to": v.Status})
		}

		var paidAt *time.Time
		if v.Status == enums.PaymentStatusCompleted {
			at := s.now().UTC()
			if v.PaidAt != nil {
				at = v.PaidAt.UTC()
			}
			paidAt = &at
		}
		if err := repo.UpdateStatus(ctx, payment.ID, v.Status, paidAt); err != nil {
			return err
		}
		payment.Status = v.Status
		if paidAt != nil {
			payment.PaidAt = paidAt
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentStatusChanged,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentStatusChangedEvent{
				PaymentTransactionID:  payment.ID,
				OrderID:               payment.OrderID,
				ProviderTransactionID: payment.ProviderTransactionID,
				PreviousStatus:        previous,
				Status:                v.Status,
			},
		}); err != nil {
			return err
		}

		if paidAt != nil {
			return s.confirmOrder(ctx, tx, payment, *paidAt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "payment webhook applied")
	return result, nil
}

func (s *service) confirmOrder(ctx context.Context, tx *gorm.DB, payment *models.PaymentTransaction, paidAt time.Time) error {
	repo := s.orders.WithTx(tx)
	changed, err := repo.MarkConfirmed(ctx, payment.OrderID, paidAt)
	if err != nil || !changed {
		return err
	}
	order, err := repo.FindByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderPaidEvent{
			OrderID:              order.ID,
			OrderNumber:          order.OrderNumber,
			PaymentTransactionID: payment.ID,
			AmountCents:          payment.AmountCents,
			PaidAt:               paidAt,
		},
	})
}

func canTransition(from, to enums.PaymentStatus) bool {
	switch from {
	case enums.PaymentStatusPending, enums.PaymentStatusProcessing:
		return true
	case enums.PaymentStatusCompleted:
		return to == enums.PaymentStatusRefunded
	default:
		return false
	}
}
