package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/nexus-cards-backend/api/responses"
	"github.com/angelmondragon/nexus-cards-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

const maxWebhookBytes = 64 << 10

type webhookGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Delete(ctx context.Context, deliveryID string) error
}

type webhookResponse struct {
	Status string `json:"status"`
}

// PaymentsWebhook verifies a provider callback through the provider and
// applies it once per transaction and status.
func PaymentsWebhook(svc payments.Service, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			writeUnavailable(w, r, logg, "payments service")
			return
		}
		if guard == nil {
			writeUnavailable(w, r, logg, "idempotency guard")
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		verification, err := svc.VerifyWebhook(ctx, r.Header, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deliveryID := payments.DeliveryID(verification)
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"provider_transaction_id": verification.ProviderTransactionID,
				"payment_status":          verification.Status,
			})
		}

		seen, err := guard.CheckAndMark(ctx, deliveryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency"))
			return
		}
		if seen {
			if logg != nil {
				logg.Info(ctx, "payments.webhook.duplicate")
			}
			responses.WriteSuccess(w, webhookResponse{Status: "duplicate"})
			return
		}

		if _, err := svc.ApplyWebhook(ctx, verification); err != nil {
			if delErr := guard.Delete(context.WithoutCancel(ctx), deliveryID); delErr != nil && logg != nil {
				logg.Error(ctx, "payments.webhook.guard_release_failed", delErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "payments.webhook.applied")
		}
		responses.WriteSuccess(w, webhookResponse{Status: "processed"})
	}
}
