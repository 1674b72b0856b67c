package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

const defaultSweepBatchSize = 500

// CartSweepJobParams wires the expired-cart sweep.
type CartSweepJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Reader    expiredCartReader
	Carts     cartDisposer
	BatchSize int
	Now       func() time.Time
}

// NewCartSweepJob builds the job that returns the stock of abandoned carts and
// deletes them, one transaction per cart.
func NewCartSweepJob(params CartSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &cartSweepJob{
		logg:   params.Logger,
		db:     params.DB,
		reader: params.Reader,
		carts:  params.Carts,
		batch:  batch,
		now:    now,
	}, nil
}

type cartSweepJob struct {
	logg   *logger.Logger
	db     txRunner
	reader expiredCartReader
	carts  cartDisposer
	batch  int
	now    func() time.Time
}

func (j *cartSweepJob) Name() string { return "cart-sweep" }

// Run pages through every cart expired at the start of the pass. Carts that are
// skipped or fail stay behind the cursor until the next pass.
func (j *cartSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	var (
		errs       error
		cursor     *cart.SweepCursor
		candidates int
		removed    int
		skipped    int
	)
	for {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		batch, err := j.reader.ListExpiredCarts(ctx, now, cursor, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list expired carts: %w", err))
		}
		candidates += len(batch)
		for _, candidate := range batch {
			if err := ctx.Err(); err != nil {
				return multierr.Append(errs, err)
			}
			gone, err := j.sweepCart(ctx, now, candidate)
			switch {
			case pkgerrors.Is(err, pkgerrors.CodeCartNotFound):
				skipped++
			case err != nil:
				errs = multierr.Append(errs, fmt.Errorf("cart %s: %w", candidate.ID, err))
			case gone:
				removed++
			default:
				skipped++
			}
		}
		if len(batch) < j.batch {
			break
		}
		last := batch[len(batch)-1]
		cursor = &cart.SweepCursor{At: last.ExpiresAt, ID: last.ID}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates":    candidates,
		"carts_removed": removed,
		"carts_skipped": skipped,
	})
	j.logg.Info(logCtx, "cart sweep pass complete")
	return errs
}

func (j *cartSweepJob) sweepCart(ctx context.Context, now time.Time, candidate models.Cart) (bool, error) {
	cartCtx := j.logg.WithCartID(ctx, candidate.ID.String())
	gone := false
	err := j.db.WithTx(cartCtx, func(tx *gorm.DB) error {
		locked, err := j.carts.Lock(cartCtx, tx, candidate.ID)
		if err != nil {
			return err
		}
		if !locked.IsExpired(now) {
			return nil
		}
		gone = true
		return j.carts.Discard(cartCtx, tx, locked.ID, cart.DisposalRelease)
	})
	if err != nil && !pkgerrors.Is(err, pkgerrors.CodeCartNotFound) {
		j.logg.Error(cartCtx, "failed to sweep expired cart", err)
	}
	return gone && err == nil, err
}
