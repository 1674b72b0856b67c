package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/pkg/config"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

type stubLedger struct {
	level     inventory.Level
	err       error
	reference string
	qty       int
	limit     int
}

func (s *stubLedger) Get(context.Context, uuid.UUID) (inventory.Level, error) {
	return s.level, s.err
}

func (s *stubLedger) Restock(_ context.Context, _ *gorm.DB, _ uuid.UUID, qty int, reference string) (inventory.Level, error) {
	s.qty, s.reference = qty, reference
	return s.level, s.err
}

func (s *stubLedger) Movements(_ context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	s.limit = limit
	return []models.StockMovement{{ID: uuid.New(), SKUID: skuID, Type: enums.StockMovementTypeRestock, Quantity: 5, OnHandAfter: 5}}, s.err
}

func TestInventoryLevel(t *testing.T) {
	skuID := uuid.New()
	svc := &stubLedger{level: inventory.Level{SKUID: skuID, OnHand: 10, Reserved: 3, Available: 7, IsInStock: true}}
	rec := serve(http.MethodGet, "/api/v1/inventory/{skuId}", "/api/v1/inventory/"+skuID.String(), "", "", InventoryLevel(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[inventory.Level](t, rec.Body)
	assert.Equal(t, 7, body.Data.Available)
	assert.True(t, body.Data.IsInStock)
}

func TestInventoryLevelUnknownSKU(t *testing.T) {
	svc := &stubLedger{err: pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")}
	rec := serve(http.MethodGet, "/api/v1/inventory/{skuId}", "/api/v1/inventory/"+uuid.NewString(), "", "", InventoryLevel(svc, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInventoryRestockDefaultsReference(t *testing.T) {
	svc := &stubLedger{}
	rec := serve(http.MethodPost, "/api/v1/inventory/{skuId}/restock", "/api/v1/inventory/"+uuid.NewString()+"/restock", "",
		`{"quantity":12}`, InventoryRestock(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12, svc.qty)
	assert.Equal(t, "restock:manual", svc.reference)
}

func TestInventoryRestockRejectsNonPositive(t *testing.T) {
	svc := &stubLedger{}
	rec := serve(http.MethodPost, "/api/v1/inventory/{skuId}/restock", "/api/v1/inventory/"+uuid.NewString()+"/restock", "",
		`{"quantity":0}`, InventoryRestock(svc, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.qty)
}

func TestInventoryMovementsLimit(t *testing.T) {
	svc := &stubLedger{}
	rec := serve(http.MethodGet, "/api/v1/inventory/{skuId}/movements", "/api/v1/inventory/"+uuid.NewString()+"/movements?limit=5", "", "", InventoryMovements(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.limit)
	body := decode[[]movementResponse](t, rec.Body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, enums.StockMovementTypeRestock, body.Data[0].Type)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := serve(http.MethodGet, "/health/ready", "/health/ready", "", "",
		HealthReady(cfg, nil, ReadinessCheck{Name: "db", Dep: stubPinger{}}, ReadinessCheck{Name: "redis", Dep: stubPinger{}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))

	rec = serve(http.MethodGet, "/health/ready", "/health/ready", "", "",
		HealthReady(cfg, nil, ReadinessCheck{Name: "db", Dep: stubPinger{}}, ReadinessCheck{Name: "redis", Dep: stubPinger{err: errors.New("timeout")}}))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec.Body).Error.Details, "redis")
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	rec := serve(http.MethodGet, "/health/live", "/health/live", "", "", HealthLive(cfg))
	assert.Equal(t, http.StatusOK, rec.Code)
}
