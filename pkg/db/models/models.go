package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&SKU{},
		&InventoryItem{},
		&StockMovement{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderLine{},
		&PaymentTransaction{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
