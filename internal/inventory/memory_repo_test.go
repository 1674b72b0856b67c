package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

// MemoryRepository keeps ledger rows in process, serializing mutations with one
// mutex per SKU so unrelated SKUs never contend.
type MemoryRepository struct {
	mu        sync.Mutex
	items     map[uuid.UUID]models.InventoryItem
	locks     map[uuid.UUID]*sync.Mutex
	movements []models.StockMovement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[uuid.UUID]models.InventoryItem),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *MemoryRepository) WithTx(*gorm.DB) Repository {
	return r
}

func (r *MemoryRepository) Transaction(_ context.Context, fn func(repo Repository, tx *gorm.DB) error) error {
	return fn(r, nil)
}

func (r *MemoryRepository) Get(_ context.Context, skuID uuid.UUID) (*models.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[skuID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return &item, nil
}

func (r *MemoryRepository) Ensure(_ context.Context, item *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.SKUID]; ok {
		return nil
	}
	r.items[item.SKUID] = *item
	r.locks[item.SKUID] = &sync.Mutex{}
	return nil
}

func (r *MemoryRepository) Mutate(_ context.Context, skuID uuid.UUID, fn MutateFunc) (*models.InventoryItem, error) {
	r.mu.Lock()
	lock, ok := r.locks[skuID]
	r.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	item := r.items[skuID]
	r.mu.Unlock()

	if err := fn(&item); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	r.items[skuID] = item
	r.mu.Unlock()
	return &item, nil
}

func (r *MemoryRepository) AppendMovement(_ context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *MemoryRepository) ListMovements(_ context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []models.StockMovement
	for _, m := range r.movements {
		if m.SKUID == skuID {
			rows = append(rows, m)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
