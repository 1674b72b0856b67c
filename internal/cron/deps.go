package cron

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Candidate listings are read without locks and paged by keyset; each record
// is re-checked once locked.
type expiredCartReader interface {
	ListExpiredCarts(ctx context.Context, now time.Time, after *cart.SweepCursor, limit int) ([]models.Cart, error)
}

type expiredItemReader interface {
	ListExpiredItems(ctx context.Context, now time.Time, after *cart.SweepCursor, limit int) ([]models.CartItem, error)
}

type cartDisposer interface {
	Lock(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error)
	Discard(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, disposal cart.Disposal) error
}

type reservationReconciler interface {
	ReconcileExpired(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (cart.Reconciliation, error)
}
