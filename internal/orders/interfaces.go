package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// CreateOrder inserts the order and its lines.
	CreateOrder(ctx context.Context, order *models.Order) error
	OrderNumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	// FindLatestForSession returns the session's newest order created at or after
	// since, or (nil, nil).
	FindLatestForSession(ctx context.Context, sessionID string, since time.Time) (*models.Order, error)
	// MarkConfirmed moves a PENDING order to CONFIRMED and reports whether it changed.
	MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
