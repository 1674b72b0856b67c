package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	f.setKeys = append(f.setKeys, key)
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "nx:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestTrackerMarksAndReportsDelivery(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tracker, err := NewTracker(store, "kafka", 72*time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	delivered, err := tracker.Delivered(ctx, eventID)
	require.NoError(t, err)
	require.False(t, delivered)
	require.Empty(t, store.setKeys, "Delivered must not write")

	require.NoError(t, tracker.MarkDelivered(ctx, eventID))
	require.NoError(t, tracker.MarkDelivered(ctx, eventID))

	key := "nx:idempotency:outbox:delivered:kafka:" + eventID.String()
	require.Equal(t, 72*time.Hour, store.ttls[key])

	delivered, err = tracker.Delivered(ctx, eventID)
	require.NoError(t, err)
	require.True(t, delivered)
}

func TestTrackerSurfacesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("timeout")
	store.setErr = errors.New("readonly replica")
	tracker, err := NewTracker(store, "kafka", time.Hour)
	require.NoError(t, err)

	_, err = tracker.Delivered(context.Background(), uuid.New())
	require.Error(t, err)
	require.Error(t, tracker.MarkDelivered(context.Background(), uuid.New()))
}

func TestNewTrackerValidates(t *testing.T) {
	_, err := NewTracker(nil, "kafka", time.Hour)
	require.Error(t, err)
	_, err = NewTracker(newFakeStore(), "", time.Hour)
	require.Error(t, err)
	_, err = NewTracker(newFakeStore(), "kafka", 0)
	require.Error(t, err)

	tracker, err := NewTracker(newFakeStore(), "kafka", time.Hour)
	require.NoError(t, err)
	_, err = tracker.Delivered(context.Background(), uuid.Nil)
	require.Error(t, err)
}
