package inventory

import (
	"time"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

// The rules below mutate a locked ledger row in place. They never clamp: a
// request the row cannot satisfy fails and leaves the row untouched.

func reserve(item *models.InventoryItem, qty int) error {
	if available := item.Available(); qty > available {
		return insufficientStock(item, qty, available)
	}
	item.Reserved += qty
	return nil
}

func release(item *models.InventoryItem, qty int) error {
	if qty > item.Reserved {
		return pkgerrors.New(pkgerrors.CodeInvariantViolation, "double-release: release exceeds reserved quantity").
			WithDetails(map[string]any{
				"sku_id":    item.SKUID,
				"requested": qty,
				"reserved":  item.Reserved,
			})
	}
	item.Reserved -= qty
	return nil
}

func consume(item *models.InventoryItem, qty int) error {
	if qty > item.Reserved || qty > item.OnHand {
		return insufficientStock(item, qty, item.Reserved)
	}
	item.OnHand -= qty
	item.Reserved -= qty
	return nil
}

func restock(item *models.InventoryItem, qty int, at time.Time) error {
	item.OnHand += qty
	item.LastRestockAt = &at
	return nil
}

func insufficientStock(item *models.InventoryItem, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"sku_id":    item.SKUID,
			"requested": requested,
			"available": available,
		})
}
