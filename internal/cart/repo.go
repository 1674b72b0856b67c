package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

// Repository persists carts and their reservation records. Item deletion is
// deliberately unexported: callers go through Service.ReleaseAndDelete or
// Service.DeleteRetired.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.SKU").
		Preload("Items.SKU.Product")
}

// FindBySession loads the session's cart with items, SKUs and products.
func (r *Repository) FindBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withItems(ctx).Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
		}
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withItems(ctx).Where("id = ?", id).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
		}
		return nil, err
	}
	return &cart, nil
}

// FindByIDForUpdate loads the cart like FindByID while holding its row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.withItems(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
		}
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit("Items").Create(cart).Error
}

// Touch moves the cart's expiry.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("expires_at", expiresAt).Error
}

func (r *Repository) deleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

func (r *Repository) lockedItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// FindItem returns the item only if it belongs to the cart. Inside a transaction
// the row stays locked until commit, serializing user edits against the sweeper.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.lockedItems(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}
	return &item, nil
}

// FindItemByID loads an item regardless of cart. It returns (nil, nil) when the row is gone.
func (r *Repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.lockedItems(ctx).Where("id = ?", itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemBySKU returns (nil, nil) when the cart holds no line for the SKU.
func (r *Repository) FindItemBySKU(ctx context.Context, cartID, skuID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.lockedItems(ctx).
		Where("cart_id = ? AND sku_id = ?", cartID, skuID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("SKU").Create(item).Error
}

// SaveItem persists quantity and reservation window. The price snapshot is never rewritten.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":               item.Quantity,
			"reservation_expires_at": item.ReservationExpiresAt,
			"updated_at":             time.Now().UTC(),
		}).Error
}

func (r *Repository) deleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// SweepCursor is the keyset position of the last row a sweep pass has read.
type SweepCursor struct {
	At time.Time
	ID uuid.UUID
}

func afterCursor(q *gorm.DB, column string, after *SweepCursor) *gorm.DB {
	if after == nil {
		return q
	}
	at := after.At.UTC()
	return q.Where("("+column+" > ? OR ("+column+" = ? AND id > ?))", at, at, after.ID)
}

// ListExpiredCarts returns carts whose own expiry is before now, ordered by
// (expires_at, id) and starting after the cursor when one is given.
func (r *Repository) ListExpiredCarts(ctx context.Context, now time.Time, after *SweepCursor, limit int) ([]models.Cart, error) {
	var rows []models.Cart
	q := r.db.WithContext(ctx).Where("expires_at < ?", now)
	q = afterCursor(q, "expires_at", after).Order("expires_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// ListExpiredItems returns reservation records whose window lapsed before now,
// ordered by (reservation_expires_at, id).
func (r *Repository) ListExpiredItems(ctx context.Context, now time.Time, after *SweepCursor, limit int) ([]models.CartItem, error) {
	var rows []models.CartItem
	q := r.db.WithContext(ctx).Where("reservation_expires_at < ?", now)
	q = afterCursor(q, "reservation_expires_at", after).Order("reservation_expires_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
