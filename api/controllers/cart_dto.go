package controllers

import (
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
)

type cartResponse struct {
	ID            uuid.UUID          `json:"id"`
	SessionID     string             `json:"session_id"`
	ExpiresAt     time.Time          `json:"expires_at"`
	Items         []cartItemResponse `json:"items"`
	ItemCount     int                `json:"item_count"`
	SubtotalCents int                `json:"subtotal_cents"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ID                   uuid.UUID                `json:"id"`
	SKUID                uuid.UUID                `json:"sku_id"`
	SKUCode              string                   `json:"sku_code,omitempty"`
	Quantity             int                      `json:"quantity"`
	UnitPriceCents       int                      `json:"unit_price_cents"`
	LineTotalCents       int                      `json:"line_total_cents"`
	ReservationExpiresAt time.Time                `json:"reservation_expires_at"`
	ReservationState     cartsvc.ReservationState `json:"reservation_state"`
}

func newCartResponse(record *models.Cart, now time.Time) cartResponse {
	resp := cartResponse{
		ID:            record.ID,
		SessionID:     record.SessionID,
		ExpiresAt:     record.ExpiresAt,
		Items:         make([]cartItemResponse, 0, len(record.Items)),
		ItemCount:     record.ItemCount(),
		SubtotalCents: record.SubtotalCents(),
		UpdatedAt:     record.UpdatedAt,
	}
	for _, item := range record.Items {
		line := cartItemResponse{
			ID:                   item.ID,
			SKUID:                item.SKUID,
			Quantity:             item.Quantity,
			UnitPriceCents:       item.UnitPriceCents,
			LineTotalCents:       item.LineTotalCents(),
			ReservationExpiresAt: item.ReservationExpiresAt,
			ReservationState:     cartsvc.StateOf(item, now),
		}
		if item.SKU != nil {
			line.SKUCode = item.SKU.SKUCode
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
