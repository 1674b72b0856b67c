package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

func TestCartSweepSkipsCartsGoneOrRevived(t *testing.T) {
	now := cartSweepNow
	gone := models.Cart{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}
	revived := models.Cart{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}
	expired := models.Cart{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}

	carts := &fakeCartDisposer{
		locked: map[uuid.UUID]*models.Cart{
			revived.ID: {ID: revived.ID, ExpiresAt: now.Add(time.Hour)},
			expired.ID: &expired,
		},
	}
	job := newCartSweepJob(t, &fakeCartReader{rows: []models.Cart{gone, revived, expired}}, carts, 0)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(carts.discarded) != 1 || carts.discarded[0] != expired.ID {
		t.Fatalf("expected only %s discarded, got %v", expired.ID, carts.discarded)
	}
	if carts.disposal != cart.DisposalRelease {
		t.Fatalf("expected release disposal, got %s", carts.disposal)
	}
}

func TestCartSweepContinuesPastFailures(t *testing.T) {
	now := cartSweepNow
	first := models.Cart{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}
	second := models.Cart{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}
	carts := &fakeCartDisposer{
		locked: map[uuid.UUID]*models.Cart{first.ID: &first, second.ID: &second},
		failOn: first.ID,
	}
	job := newCartSweepJob(t, &fakeCartReader{rows: []models.Cart{first, second}}, carts, 0)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if len(carts.discarded) != 1 || carts.discarded[0] != second.ID {
		t.Fatalf("expected second cart discarded, got %v", carts.discarded)
	}
}

func TestCartSweepStopsWhenCanceled(t *testing.T) {
	now := cartSweepNow
	row := models.Cart{ID: uuid.New(), ExpiresAt: now.Add(-time.Hour)}
	carts := &fakeCartDisposer{locked: map[uuid.UUID]*models.Cart{row.ID: &row}}
	job := newCartSweepJob(t, &fakeCartReader{rows: []models.Cart{row}}, carts, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(carts.discarded) != 0 {
		t.Fatalf("expected no carts touched, got %v", carts.discarded)
	}
}

func TestCartSweepListFailure(t *testing.T) {
	job := newCartSweepJob(t, &fakeCartReader{err: errors.New("db down")}, &fakeCartDisposer{}, 0)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCartSweepJobDefaultsBatch(t *testing.T) {
	reader := &fakeCartReader{}
	job := newCartSweepJob(t, reader, &fakeCartDisposer{}, 0)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reader.limits) != 1 || reader.limits[0] != defaultSweepBatchSize {
		t.Fatalf("expected one read with limit %d, got %v", defaultSweepBatchSize, reader.limits)
	}
	if _, err := NewCartSweepJob(CartSweepJobParams{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestCartSweepPagesPastCartsLeftBehind(t *testing.T) {
	var rows []models.Cart
	locked := map[uuid.UUID]*models.Cart{}
	for i := 0; i < 5; i++ {
		row := models.Cart{ID: uuid.New(), ExpiresAt: cartSweepNow.Add(-time.Hour)}
		rows = append(rows, row)
		locked[row.ID] = &row
	}
	// the first two carts fail and remain expired in the store
	carts := &fakeCartDisposer{locked: locked, failOn: rows[0].ID, failAlso: rows[1].ID}
	reader := &fakeCartReader{rows: rows}
	job := newCartSweepJob(t, reader, carts, 2)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected combined error")
	}
	if len(carts.discarded) != 3 {
		t.Fatalf("expected 3 carts discarded, got %d", len(carts.discarded))
	}
	if len(reader.limits) != 3 {
		t.Fatalf("expected 3 paged reads, got %d", len(reader.limits))
	}
}

var cartSweepNow = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

func newCartSweepJob(t *testing.T, reader *fakeCartReader, carts *fakeCartDisposer, batch int) *cartSweepJob {
	t.Helper()
	jobIface, err := NewCartSweepJob(CartSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:        fakeTxRunner{},
		Reader:    reader,
		Carts:     carts,
		BatchSize: batch,
		Now:       func() time.Time { return cartSweepNow },
	})
	if err != nil {
		t.Fatalf("NewCartSweepJob: %v", err)
	}
	return jobIface.(*cartSweepJob)
}

// fakeCartReader keeps its rows in cursor order and never removes them.
type fakeCartReader struct {
	rows   []models.Cart
	limits []int
	err    error
}

func (f *fakeCartReader) ListExpiredCarts(_ context.Context, _ time.Time, after *cart.SweepCursor, limit int) ([]models.Cart, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	start := 0
	if after != nil {
		for i, row := range f.rows {
			if row.ID == after.ID {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(f.rows))
	return f.rows[start:end], nil
}

type fakeCartDisposer struct {
	locked    map[uuid.UUID]*models.Cart
	failOn    uuid.UUID
	failAlso  uuid.UUID
	discarded []uuid.UUID
	disposal  cart.Disposal
}

func (f *fakeCartDisposer) Lock(_ context.Context, _ *gorm.DB, cartID uuid.UUID) (*models.Cart, error) {
	row, ok := f.locked[cartID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
	}
	return row, nil
}

func (f *fakeCartDisposer) Discard(_ context.Context, _ *gorm.DB, cartID uuid.UUID, disposal cart.Disposal) error {
	if cartID == f.failOn || cartID == f.failAlso {
		return errors.New("ledger unavailable")
	}
	f.discarded = append(f.discarded, cartID)
	f.disposal = disposal
	return nil
}
