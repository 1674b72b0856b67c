package catalog

import "github.com/angelmondragon/nexus-cards-backend/pkg/db/models"

// Snapshot captures the descriptive fields stored on an order line.
// sku.Product should be loaded; a missing product leaves the product fields empty.
func Snapshot(sku models.SKU) models.ProductSnapshot {
	snap := models.ProductSnapshot{
		ProductID: sku.ProductID,
		SKUCode:   sku.SKUCode,
		Condition: sku.Condition,
		Language:  sku.Language,
		IsFoil:    sku.IsFoil,
	}
	if sku.Product != nil {
		snap.ProductName = sku.Product.Name
		snap.SetName = sku.Product.SetName
		snap.Rarity = sku.Product.Rarity
	}
	return snap
}
