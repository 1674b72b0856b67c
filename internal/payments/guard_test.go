package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "nx:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestWebhookGuardCheckAndMark(t *testing.T) {
	store := newFakeStore()
	guard, err := NewWebhookGuard(store, time.Hour, "payment_webhook")
	require.NoError(t, err)
	ctx := context.Background()

	id := DeliveryID(WebhookVerification{ProviderTransactionID: "STUB-1", Status: enums.PaymentStatusCompleted})
	assert.Equal(t, "STUB-1:COMPLETED", id)

	seen, err := guard.CheckAndMark(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(ctx, id))
	seen, err = guard.CheckAndMark(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestWebhookGuardErrors(t *testing.T) {
	_, err := NewWebhookGuard(nil, time.Hour, "s")
	require.Error(t, err)
	_, err = NewWebhookGuard(newFakeStore(), -time.Second, "s")
	require.Error(t, err)
	_, err = NewWebhookGuard(newFakeStore(), time.Hour, "")
	require.Error(t, err)

	store := newFakeStore()
	store.err = errors.New("redis down")
	guard, err := NewWebhookGuard(store, time.Hour, "s")
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "x")
	require.ErrorContains(t, err, "redis down")
	_, err = guard.CheckAndMark(context.Background(), "")
	require.Error(t, err)
}
