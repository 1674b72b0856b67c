package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox/payloads"
)

// Outcome is what a reconciliation pass did to one reservation record.
type Outcome string

const (
	// OutcomeSkipped means the record was gone or no longer expired when locked.
	OutcomeSkipped Outcome = "skipped"
	OutcomeRenewed Outcome = "renewed"
	OutcomeRemoved Outcome = "removed"
)

// Reconciliation reports the result for a single expired record.
type Reconciliation struct {
	Outcome Outcome
	Item    models.CartItem
	// Reason is set when the record was removed.
	Reason string
}

// ReconcileExpired retires the claim of an expired record exactly once. The
// claim is released; when the owning cart is still live the same quantity is
// reserved again and the window renewed, otherwise (or when stock ran out) the
// record is deleted without a second release.
func (s *service) ReconcileExpired(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (Reconciliation, error) {
	if tx == nil {
		var result Reconciliation
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			result, err = s.ReconcileExpired(ctx, tx, itemID)
			return err
		})
		return result, err
	}

	repo := s.repo.WithTx(tx)
	now := s.clock()

	item, err := repo.FindItemByID(ctx, itemID)
	if err != nil {
		return Reconciliation{}, err
	}
	if item == nil || !item.IsReservationExpired(now) {
		return Reconciliation{Outcome: OutcomeSkipped}, nil
	}

	ref := itemReference(item.ID)
	if _, err := s.ledger.Release(ctx, tx, item.SKUID, item.Quantity, ref); err != nil {
		return Reconciliation{}, err
	}

	reason := payloads.ReleaseReasonCartExpired
	cart, err := repo.FindByID(ctx, item.CartID)
	switch {
	case err == nil && !cart.IsExpired(now):
		_, err := s.ledger.Reserve(ctx, tx, item.SKUID, item.Quantity, ref)
		if err == nil {
			item.ReservationExpiresAt = now.Add(s.reservationTTL)
			if err := repo.SaveItem(ctx, item); err != nil {
				return Reconciliation{}, err
			}
			return Reconciliation{Outcome: OutcomeRenewed, Item: *item}, nil
		}
		if !pkgerrors.Is(err, pkgerrors.CodeInsufficientStock) {
			return Reconciliation{}, err
		}
		reason = payloads.ReleaseReasonStockExhausted
	case err != nil && !pkgerrors.Is(err, pkgerrors.CodeCartNotFound):
		return Reconciliation{}, err
	}

	if err := s.DeleteRetired(ctx, tx, *item); err != nil {
		return Reconciliation{}, err
	}
	return Reconciliation{Outcome: OutcomeRemoved, Item: *item, Reason: reason}, nil
}

func (s *service) ReleaseStale(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (bool, error) {
	if tx == nil {
		var removed bool
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			removed, err = s.ReleaseStale(ctx, tx, itemID)
			return err
		})
		return removed, err
	}

	item, err := s.repo.WithTx(tx).FindItemByID(ctx, itemID)
	if err != nil {
		return false, err
	}
	if item == nil || !item.IsReservationExpired(s.clock()) {
		return false, nil
	}
	if err := s.ReleaseAndDelete(ctx, tx, *item); err != nil {
		return false, err
	}
	return true, nil
}
