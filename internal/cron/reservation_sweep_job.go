package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox/payloads"
)

type ReservationSweepJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Reader       expiredItemReader
	Reservations reservationReconciler
	Outbox       outboxEmitter
	BatchSize    int
	Now          func() time.Time
}

// NewReservationSweepJob builds the job that retires lapsed reservation windows.
// Lines of live carts are re-reserved and renewed; the rest are deleted and a
// reservation_released event is written in the same transaction.
func NewReservationSweepJob(params ReservationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("cart item reader required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &reservationSweepJob{
		logg:         params.Logger,
		db:           params.DB,
		reader:       params.Reader,
		reservations: params.Reservations,
		outbox:       params.Outbox,
		batch:        batch,
		now:          now,
	}, nil
}

type reservationSweepJob struct {
	logg         *logger.Logger
	db           txRunner
	reader       expiredItemReader
	reservations reservationReconciler
	outbox       outboxEmitter
	batch        int
	now          func() time.Time
}

func (j *reservationSweepJob) Name() string { return "reservation-sweep" }

// Run pages by (reservation_expires_at, id) so records that fail or are skipped
// are passed over instead of being read again in the same pass.
func (j *reservationSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	var (
		errs       error
		cursor     *cart.SweepCursor
		candidates int
	)
	counts := map[cart.Outcome]int{}
	for {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		batch, err := j.reader.ListExpiredItems(ctx, now, cursor, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list expired reservations: %w", err))
		}
		candidates += len(batch)
		for _, candidate := range batch {
			if err := ctx.Err(); err != nil {
				return multierr.Append(errs, err)
			}
			outcome, err := j.reconcile(ctx, candidate)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("cart item %s: %w", candidate.ID, err))
				continue
			}
			counts[outcome]++
		}
		if len(batch) < j.batch {
			break
		}
		last := batch[len(batch)-1]
		cursor = &cart.SweepCursor{At: last.ReservationExpiresAt, ID: last.ID}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": candidates,
		"renewed":    counts[cart.OutcomeRenewed],
		"removed":    counts[cart.OutcomeRemoved],
		"skipped":    counts[cart.OutcomeSkipped],
	})
	j.logg.Info(logCtx, "reservation sweep pass complete")
	return errs
}

func (j *reservationSweepJob) reconcile(ctx context.Context, candidate models.CartItem) (cart.Outcome, error) {
	itemCtx := j.logg.WithFields(ctx, map[string]any{
		"cart_id":      candidate.CartID.String(),
		"cart_item_id": candidate.ID.String(),
	})
	var result cart.Reconciliation
	err := j.db.WithTx(itemCtx, func(tx *gorm.DB) error {
		var err error
		result, err = j.reservations.ReconcileExpired(itemCtx, tx, candidate.ID)
		if err != nil {
			return err
		}
		if result.Outcome != cart.OutcomeRemoved {
			return nil
		}
		return j.outbox.Emit(itemCtx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationReleased,
			AggregateType: enums.AggregateCartItem,
			AggregateID:   result.Item.ID,
			Data: payloads.ReservationReleasedEvent{
				CartItemID: result.Item.ID,
				CartID:     result.Item.CartID,
				SKUID:      result.Item.SKUID,
				Quantity:   result.Item.Quantity,
				Reason:     result.Reason,
			},
		})
	})
	if err != nil {
		j.logg.Error(itemCtx, "failed to reconcile expired reservation", err)
		return "", err
	}
	return result.Outcome, nil
}
