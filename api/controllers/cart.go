package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/api/middleware"
	"github.com/angelmondragon/nexus-cards-backend/api/responses"
	"github.com/angelmondragon/nexus-cards-backend/api/validators"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

// CartService is the slice of the cart state machine the HTTP layer drives.
type CartService interface {
	GetOrCreate(ctx context.Context, sessionID string) (*models.Cart, error)
	AddItem(ctx context.Context, sessionID string, skuID uuid.UUID, qty int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, qty int) (*models.Cart, error)
	Renew(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error)
	ClearSession(ctx context.Context, sessionID string) (*models.Cart, error)
}

type addCartItemRequest struct {
	SKUID    uuid.UUID `json:"sku_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"min=1,max=99"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=99"`
}

// CartFetch returns the session's cart, creating it on first use.
func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "cart service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		record, err := svc.GetOrCreate(r.Context(), sessionID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "cart service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		record, err := svc.ClearSession(r.Context(), sessionID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

// CartAddItem reserves stock for a new or existing line.
func CartAddItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "cart service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.AddItem(r.Context(), sessionID, payload.SKUID, payload.Quantity)
		writeCart(w, r, logg, http.StatusCreated, record, err)
	}
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "cart service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.UpdateQuantity(r.Context(), sessionID, itemID, *payload.Quantity)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "cart service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.RemoveItem(r.Context(), sessionID, itemID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

// CartRenewItem extends a line's reservation window without touching stock.
func CartRenewItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "cart service")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Renew(r.Context(), sessionID, itemID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

func writeUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}

func requireSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session context missing"))
		return "", false
	}
	return sessionID, true
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, record *models.Cart, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, newCartResponse(record, time.Now().UTC()))
}
