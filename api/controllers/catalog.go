package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-cards-backend/api/responses"
	"github.com/angelmondragon/nexus-cards-backend/api/validators"
	"github.com/angelmondragon/nexus-cards-backend/internal/catalog"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

type createProductRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	SetName string `json:"set_name" validate:"max=255"`
	Rarity  string `json:"rarity" validate:"max=64"`
}

type createSKURequest struct {
	ProductID         uuid.UUID `json:"product_id" validate:"required"`
	SKUCode           string    `json:"sku_code" validate:"required,max=64"`
	Condition         string    `json:"condition" validate:"required,oneof=NM LP MP HP DMG"`
	Language          string    `json:"language" validate:"omitempty,max=8"`
	IsFoil            bool      `json:"is_foil"`
	PriceCents        int       `json:"price_cents" validate:"min=1"`
	SalePriceCents    *int      `json:"sale_price_cents" validate:"omitempty,min=1"`
	LowStockThreshold int       `json:"low_stock_threshold" validate:"min=0"`
}

type updatePricesRequest struct {
	PriceCents     int  `json:"price_cents" validate:"min=1"`
	SalePriceCents *int `json:"sale_price_cents" validate:"omitempty,min=1"`
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SetName   string    `json:"set_name,omitempty"`
	Rarity    string    `json:"rarity,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type skuResponse struct {
	ID                  uuid.UUID           `json:"id"`
	ProductID           uuid.UUID           `json:"product_id"`
	SKUCode             string              `json:"sku_code"`
	Condition           enums.CardCondition `json:"condition"`
	Language            string              `json:"language"`
	IsFoil              bool                `json:"is_foil"`
	PriceCents          int                 `json:"price_cents"`
	SalePriceCents      *int                `json:"sale_price_cents,omitempty"`
	EffectivePriceCents int                 `json:"effective_price_cents"`
	IsActive            bool                `json:"is_active"`
}

func newSKUResponse(sku *models.SKU) skuResponse {
	return skuResponse{
		ID:                  sku.ID,
		ProductID:           sku.ProductID,
		SKUCode:             sku.SKUCode,
		Condition:           sku.Condition,
		Language:            sku.Language,
		IsFoil:              sku.IsFoil,
		PriceCents:          sku.PriceCents,
		SalePriceCents:      sku.SalePriceCents,
		EffectivePriceCents: sku.EffectivePriceCents(),
		IsActive:            sku.IsActive,
	}
}

func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "catalog service")
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:    validators.SanitizeString(payload.Name, 255),
			SetName: validators.SanitizeString(payload.SetName, 255),
			Rarity:  validators.SanitizeString(payload.Rarity, 64),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, productResponse{
			ID:        product.ID,
			Name:      product.Name,
			SetName:   product.SetName,
			Rarity:    product.Rarity,
			IsActive:  product.IsActive,
			CreatedAt: product.CreatedAt,
		})
	}
}

// SKUCreate registers a sellable variant and provisions its empty ledger row.
func SKUCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "catalog service")
			return
		}
		var payload createSKURequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sku, err := svc.CreateSKU(r.Context(), catalog.CreateSKUInput{
			ProductID:         payload.ProductID,
			SKUCode:           strings.TrimSpace(payload.SKUCode),
			Condition:         enums.CardCondition(payload.Condition),
			Language:          strings.ToUpper(strings.TrimSpace(payload.Language)),
			IsFoil:            payload.IsFoil,
			PriceCents:        payload.PriceCents,
			SalePriceCents:    payload.SalePriceCents,
			LowStockThreshold: payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSKUResponse(sku))
	}
}

func SKUDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "catalog service")
			return
		}
		skuID, err := validators.ParseUUIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sku, err := svc.GetSKU(r.Context(), skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSKUResponse(sku))
	}
}

// SKUUpdatePrices changes list and sale price. Existing cart lines keep their snapshot.
func SKUUpdatePrices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg, "catalog service")
			return
		}
		skuID, err := validators.ParseUUIDParam(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePricesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sku, err := svc.UpdatePrices(r.Context(), skuID, payload.PriceCents, payload.SalePriceCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSKUResponse(sku))
	}
}
