package inventory

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

// MutateFunc edits a locked ledger row. Returning an error discards the edit.
type MutateFunc func(item *models.InventoryItem) error

// Repository persists ledger rows and their movement history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Transaction runs fn atomically. tx is nil when the backend has no SQL handle.
	Transaction(ctx context.Context, fn func(repo Repository, tx *gorm.DB) error) error
	Get(ctx context.Context, skuID uuid.UUID) (*models.InventoryItem, error)
	Ensure(ctx context.Context, item *models.InventoryItem) error
	// Mutate holds an exclusive lock on the SKU's row for the whole read-modify-write.
	Mutate(ctx context.Context, skuID uuid.UUID, fn MutateFunc) (*models.InventoryItem, error)
	AppendMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Transaction(ctx context.Context, fn func(repo Repository, tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx}, tx)
	})
}

func (r *repository) Get(ctx context.Context, skuID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("sku_id = ?", skuID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) Ensure(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sku_id"}}, DoNothing: true}).
		Create(item).Error
}

func (r *repository) Mutate(ctx context.Context, skuID uuid.UUID, fn MutateFunc) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("sku_id = ?", skuID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
			}
			return err
		}
		if err := fn(&item); err != nil {
			return err
		}
		item.UpdatedAt = time.Now().UTC()
		return tx.Model(&models.InventoryItem{}).
			Where("sku_id = ?", skuID).
			Updates(map[string]any{
				"on_hand":         item.OnHand,
				"reserved":        item.Reserved,
				"last_restock_at": item.LastRestockAt,
				"updated_at":      item.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) AppendMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("sku_id = ?", skuID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
