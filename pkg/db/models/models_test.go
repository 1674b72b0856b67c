package models

import (
	"testing"
	"time"
)

func TestSKUEffectivePriceCents(t *testing.T) {
	sku := SKU{PriceCents: 1500}
	if got := sku.EffectivePriceCents(); got != 1500 {
		t.Fatalf("expected list price, got %d", got)
	}
	sale := 1200
	sku.SalePriceCents = &sale
	if got := sku.EffectivePriceCents(); got != 1200 {
		t.Fatalf("expected sale price, got %d", got)
	}
}

func TestInventoryItemDerivedFlags(t *testing.T) {
	item := InventoryItem{OnHand: 10, Reserved: 4, LowStockThreshold: 5}
	if item.Available() != 6 {
		t.Fatalf("expected available 6, got %d", item.Available())
	}
	if item.IsLowStock() {
		t.Fatal("6 available should not be low stock at threshold 5")
	}
	item.Reserved = 5
	if !item.IsLowStock() || !item.IsInStock() {
		t.Fatal("5 available should be low and in stock")
	}
	item.Reserved = 10
	if item.IsInStock() {
		t.Fatal("nothing available should be out of stock")
	}
}

func TestCartTotalsAndExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cart := Cart{
		ExpiresAt: now.Add(time.Hour),
		Items: []CartItem{
			{Quantity: 2, UnitPriceCents: 1000},
			{Quantity: 1, UnitPriceCents: 250},
		},
	}
	if cart.SubtotalCents() != 2250 {
		t.Fatalf("expected subtotal 2250, got %d", cart.SubtotalCents())
	}
	if cart.ItemCount() != 3 {
		t.Fatalf("expected 3 units, got %d", cart.ItemCount())
	}
	if cart.IsExpired(now) {
		t.Fatal("cart should still be live")
	}
	if !cart.IsExpired(now.Add(2 * time.Hour)) {
		t.Fatal("cart should be expired")
	}
	item := CartItem{ReservationExpiresAt: now}
	if item.IsReservationExpired(now) {
		t.Fatal("reservation at its exact deadline is still live")
	}
}
