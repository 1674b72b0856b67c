package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/nexus-cards-backend/pkg/redis"
)

// WebhookGuard drops duplicate webhook deliveries using Redis SET NX.
type WebhookGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewWebhookGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*WebhookGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &WebhookGuard{store: store, ttl: ttl, scope: scope}, nil
}

// DeliveryID identifies one status transition reported by the provider.
func DeliveryID(v WebhookVerification) string {
	return v.ProviderTransactionID + ":" + string(v.Status)
}

// CheckAndMark reports whether the delivery was already seen, marking it otherwise.
func (g *WebhookGuard) CheckAndMark(ctx context.Context, deliveryID string) (bool, error) {
	if deliveryID == "" {
		return false, errors.New("delivery id is required")
	}
	key := g.store.IdempotencyKey(g.scope, deliveryID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets a delivery so the provider's retry is processed.
func (g *WebhookGuard) Delete(ctx context.Context, deliveryID string) error {
	if deliveryID == "" {
		return errors.New("delivery id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, deliveryID))
}
