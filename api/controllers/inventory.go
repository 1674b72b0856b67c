package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/api/middleware"
	"github.com/angelmondragon/nexus-cards-backend/api/responses"
	"github.com/angelmondragon/nexus-cards-backend/api/validators"
	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

// LedgerService is the read and restock surface of the stock ledger.
type LedgerService interface {
	Get(ctx context.Context, skuID uuid.UUID) (inventory.Level, error)
	Restock(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (inventory.Level, error)
	Movements(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type restockRequest struct {
	Quantity  int    `json:"quantity" validate:"min=1,max=100000"`
	Reference string `json:"reference" validate:"max=128"`
}

type movementResponse struct {
	ID            uuid.UUID               `json:"id"`
	Type          enums.StockMovementType `json:"type"`
	Quantity      int                     `json:"quantity"`
	OnHandAfter   int                     `json:"on_hand_after"`
	ReservedAfter int                     `json:"reserved_after"`
	Reference     string                  `json:"reference,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

func InventoryLevel(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "inventory service")
			return
		}
		skuID, err := validators.ParseUUIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		level, err := svc.Get(r.Context(), skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, level)
	}
}

// InventoryRestock adds received units to on_hand.
func InventoryRestock(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "inventory service")
			return
		}
		skuID, err := validators.ParseUUIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reference := validators.SanitizeString(payload.Reference, 128)
		if reference == "" {
			reference = "restock:manual"
			if subject := middleware.StaffSubjectFromContext(r.Context()); subject != "" {
				reference = validators.SanitizeString("restock:"+subject, 128)
			}
		}
		level, err := svc.Restock(r.Context(), nil, skuID, payload.Quantity, reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, level)
	}
}

func InventoryMovements(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "inventory service")
			return
		}
		skuID, err := validators.ParseUUIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movements, err := svc.Movements(r.Context(), skuID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]movementResponse, 0, len(movements))
		for _, m := range movements {
			out = append(out, movementResponse{
				ID:            m.ID,
				Type:          m.Type,
				Quantity:      m.Quantity,
				OnHandAfter:   m.OnHandAfter,
				ReservedAfter: m.ReservedAfter,
				Reference:     m.Reference,
				CreatedAt:     m.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
