package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestOrder(number string) *models.Order {
	return &models.Order{
		OrderNumber:   number,
		SessionID:     "sess-1",
		CartID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodPix,
		CustomerEmail: "ana@example.com",
		CustomerName:  "Ana Souza",
		Shipping: models.ShippingAddress{
			Street: "Rua Augusta", Number: "1500", City: "São Paulo", State: "SP", CEP: "01304-001",
		},
		SubtotalCents: 5000,
		TotalCents:    5000,
		Currency:      enums.CurrencyBRL,
		Lines: []models.OrderLine{{
			SKUID:          uuid.New(),
			Quantity:       2,
			UnitPriceCents: 2500,
			TotalCents:     5000,
			ProductSnapshot: models.ProductSnapshot{
				ProductName: "Tarmogoyf",
				SKUCode:     "FUT-153-NM",
				Condition:   enums.CardConditionNearMint,
				Language:    "EN",
			},
		}},
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder("NCH-20260314-00042")
	require.NoError(t, repo.CreateOrder(ctx, order))

	exists, err := repo.OrderNumberExists(ctx, "NCH-20260314-00042")
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := repo.FindByNumber(ctx, "NCH-20260314-00042")
	require.NoError(t, err)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "Tarmogoyf", found.Lines[0].ProductSnapshot.ProductName)
	assert.Equal(t, "Rua Augusta", found.Shipping.Street)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestFindLatestForSession(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	older := newTestOrder("NCH-20260314-00010")
	require.NoError(t, repo.CreateOrder(ctx, older))
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)
	newer := newTestOrder("NCH-20260314-00011")
	require.NoError(t, repo.CreateOrder(ctx, newer))

	found, err := repo.FindLatestForSession(ctx, "sess-1", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, newer.ID, found.ID)

	found, err = repo.FindLatestForSession(ctx, "sess-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindLatestForSession(ctx, "sess-other", time.Time{})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMarkConfirmedOnlyFromPending(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder("NCH-20260314-00001")
	require.NoError(t, repo.CreateOrder(ctx, order))

	at := time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC)
	changed, err := repo.MarkConfirmed(ctx, order.ID, at)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkConfirmed(ctx, order.ID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)
	require.NotNil(t, found.ConfirmedAt)
	assert.True(t, found.ConfirmedAt.Equal(at))
}

func TestNumberGeneratorRedrawsOnCollision(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("NCH-20260314-00007")))

	draws := []int{7, 7, 123}
	gen := NewNumberGenerator(func(int) int {
		v := draws[0]
		draws = draws[1:]
		return v
	})

	number, err := gen.Next(ctx, repo, time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "NCH-20260314-00123", number)
}

func TestNumberGeneratorGivesUp(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("NCH-20260314-00007")))

	gen := NewNumberGenerator(func(int) int { return 7 })
	_, err := gen.Next(ctx, repo, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestServiceGetByNumberMapsDTO(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder("NCH-20260314-00900")
	require.NoError(t, repo.CreateOrder(ctx, order))
	pix := "000201pix"
	require.NoError(t, db.Create(&models.PaymentTransaction{
		OrderID:               order.ID,
		IdempotencyKey:        "cart_x_PIX",
		Provider:              "stub",
		ProviderTransactionID: "STUB-ABC",
		Method:                enums.PaymentMethodPix,
		Status:                enums.PaymentStatusPending,
		AmountCents:           5000,
		FeeCents:              49,
		NetAmountCents:        4951,
		PixCopyPaste:          &pix,
	}).Error)

	svc, err := NewService(repo)
	require.NoError(t, err)

	dto, err := svc.GetByNumber(ctx, " nch-20260314-00900 ")
	require.NoError(t, err)
	assert.Equal(t, 2, dto.ItemCount)
	require.NotNil(t, dto.Payment)
	assert.Equal(t, "STUB-ABC", dto.Payment.ProviderTransactionID)
	assert.Equal(t, &pix, dto.Payment.PixCopyPaste)

	_, err = svc.GetByNumber(ctx, "")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
