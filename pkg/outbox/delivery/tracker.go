// Package delivery remembers which outbox events a sink has acknowledged.
//
// The publisher marks an event right after the broker accepts it and before
// the row's published_at commits. If that commit is lost the next poll finds
// the mark and settles the row without publishing a second copy.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/nexus-cards-backend/pkg/redis"
)

// Tracker stores one key per delivered event under
// `nx:idempotency:outbox:delivered:<sink>:<event_id>`.
type Tracker struct {
	store redis.IdempotencyStore
	sink  string
	ttl   time.Duration
}

func NewTracker(store redis.IdempotencyStore, sink string, ttl time.Duration) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("delivery store is required")
	}
	if sink == "" {
		return nil, errors.New("sink name is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &Tracker{store: store, sink: sink, ttl: ttl}, nil
}

// Delivered reports whether eventID was already acknowledged by the sink.
func (t *Tracker) Delivered(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := t.key(eventID)
	if err != nil {
		return false, err
	}
	if _, err := t.store.Get(ctx, key); err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkDelivered records the acknowledgement. Marking twice is harmless.
func (t *Tracker) MarkDelivered(ctx context.Context, eventID uuid.UUID) error {
	key, err := t.key(eventID)
	if err != nil {
		return err
	}
	_, err = t.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), t.ttl)
	return err
}

func (t *Tracker) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return t.store.IdempotencyKey(fmt.Sprintf("outbox:delivered:%s", t.sink), eventID.String()), nil
}
