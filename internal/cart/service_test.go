package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/catalog"
	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox/payloads"
)

const (
	testReservationTTL = 15 * time.Minute
	testCartTTL        = 30 * 24 * time.Hour
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// hookLedger lets a test interleave work between the ledger calls of the code under test.
type hookLedger struct {
	inventory.Service
	afterRelease func(ctx context.Context, tx *gorm.DB, skuID uuid.UUID)
}

func (h *hookLedger) Release(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (inventory.Level, error) {
	level, err := h.Service.Release(ctx, tx, skuID, qty, reference)
	if err == nil && h.afterRelease != nil {
		h.afterRelease(ctx, tx, skuID)
	}
	return level, err
}

type fixture struct {
	svc     Service
	ledger  *hookLedger
	catalog catalog.Service
	conn    *gorm.DB
	clock   *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	clock := &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}

	ledgerSvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:   inventory.NewRepository(conn),
		Logger: logg,
		Now:    clock.Now,
	})
	require.NoError(t, err)
	ledger := &hookLedger{Service: ledgerSvc}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), db.Wrap(conn), ledgerSvc)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		Tx:             db.Wrap(conn),
		Ledger:         ledger,
		Catalog:        catalogSvc,
		Logger:         logg,
		ReservationTTL: testReservationTTL,
		CartTTL:        testCartTTL,
		Now:            clock.Now,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, ledger: ledger, catalog: catalogSvc, conn: conn, clock: clock}
}

func (f *fixture) seedSKU(t *testing.T, code string, onHand, priceCents int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	product, err := f.catalog.CreateProduct(ctx, catalog.CreateProductInput{Name: "Card " + code})
	require.NoError(t, err)
	sku, err := f.catalog.CreateSKU(ctx, catalog.CreateSKUInput{ProductID: product.ID, SKUCode: code, PriceCents: priceCents})
	require.NoError(t, err)
	if onHand > 0 {
		_, err = f.ledger.Restock(ctx, nil, sku.ID, onHand, "seed")
		require.NoError(t, err)
	}
	return sku.ID
}

func (f *fixture) level(t *testing.T, skuID uuid.UUID) inventory.Level {
	t.Helper()
	level, err := f.ledger.Get(context.Background(), skuID)
	require.NoError(t, err)
	return level
}

func (f *fixture) itemCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&n).Error)
	return n
}

func TestAddItemReservesAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-001", 10, 2500)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 2500, item.UnitPriceCents)
	assert.True(t, item.ReservationExpiresAt.Equal(f.clock.now.Add(testReservationTTL)))
	assert.True(t, cart.ExpiresAt.Equal(f.clock.now.Add(testCartTTL)))
	assert.Equal(t, 3, f.level(t, skuID).Reserved)

	sale := 1999
	_, err = f.catalog.UpdatePrices(ctx, skuID, 2500, &sale)
	require.NoError(t, err)

	cart, err = f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 2500, cart.Items[0].UnitPriceCents)
	assert.Equal(t, 5*2500, cart.SubtotalCents())
	assert.Equal(t, 5, cart.ItemCount())
	assert.Equal(t, 5, f.level(t, skuID).Reserved)
}

func TestAddItemQuantityBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-002", 200, 100)

	for _, qty := range []int{0, -1, 100} {
		_, err := f.svc.AddItem(ctx, "sess-a", skuID, qty)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "qty %d: %v", qty, err)
	}

	_, err := f.svc.AddItem(ctx, "sess-a", skuID, 90)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "sess-a", skuID, 10)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, 90, f.level(t, skuID).Reserved)
}

func TestAddItemInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-003", 2, 100)

	_, err := f.svc.AddItem(ctx, "sess-a", skuID, 3)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock), "got %v", err)

	assert.Zero(t, f.level(t, skuID).Reserved)
	assert.Zero(t, f.itemCount(t))
	_, err = f.svc.Get(ctx, "sess-a")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCartNotFound))
}

func TestTwoCartsCompeteForTenUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "LEA-232", 10, 100)

	_, err := f.svc.AddItem(ctx, "cart-a", skuID, 6)
	require.NoError(t, err)
	level := f.level(t, skuID)
	assert.Equal(t, 6, level.Reserved)
	assert.Equal(t, 4, level.Available)

	_, err = f.svc.AddItem(ctx, "cart-b", skuID, 6)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	_, err = f.svc.AddItem(ctx, "cart-b", skuID, 4)
	require.NoError(t, err)
	level = f.level(t, skuID)
	assert.Equal(t, 10, level.Reserved)
	assert.Equal(t, 0, level.Available)
}

func TestUpdateQuantityMovesOnlyTheDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-004", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 3)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, f.level(t, skuID).Reserved)

	_, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.level(t, skuID).Reserved)

	_, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 1)
	require.NoError(t, err)
	movements, err := f.ledger.Movements(ctx, skuID, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 4) // restock, reserve, reserve, release

	cart, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, f.level(t, skuID).Reserved)

	_, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 100)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestUpdateQuantityReclaimsLapsedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-005", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	f.clock.Advance(testReservationTTL + time.Minute)
	cart, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, f.level(t, skuID).Reserved)
	assert.True(t, cart.Items[0].ReservationExpiresAt.Equal(f.clock.now.Add(testReservationTTL)))
	assert.Equal(t, ReservationActive, StateOf(cart.Items[0], f.clock.now))
}

func TestUpdateQuantityReclaimCanFailOnStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-006", 4, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID
	_, err = f.svc.AddItem(ctx, "sess-b", skuID, 2)
	require.NoError(t, err)

	f.clock.Advance(testReservationTTL + time.Minute)
	_, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 3)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 4, f.level(t, skuID).Reserved)
}

func TestMutationsOnExpiredCartFail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-007", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	f.clock.Advance(testCartTTL + time.Hour)
	_, err = f.svc.UpdateQuantity(ctx, "sess-a", itemID, 3)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCartExpired))
	_, err = f.svc.Renew(ctx, "sess-a", itemID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCartExpired))

	// removal still releases
	_, err = f.svc.RemoveItem(ctx, "sess-a", itemID)
	require.NoError(t, err)
	assert.Zero(t, f.level(t, skuID).Reserved)
}

func TestRenewExtendsWindowOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-008", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	f.clock.Advance(10 * time.Minute)
	cart, err = f.svc.Renew(ctx, "sess-a", itemID)
	require.NoError(t, err)
	assert.True(t, cart.Items[0].ReservationExpiresAt.Equal(f.clock.now.Add(testReservationTTL)))
	assert.True(t, cart.ExpiresAt.Equal(f.clock.now.Add(testCartTTL)))
	assert.Equal(t, 2, f.level(t, skuID).Reserved)

	_, err = f.svc.Renew(ctx, "sess-a", uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestRemoveItemReleasesClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-009", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 4)
	require.NoError(t, err)

	cart, err = f.svc.RemoveItem(ctx, "sess-a", cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, f.level(t, skuID).Reserved)

	_, err = f.svc.RemoveItem(ctx, "sess-b", uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCartNotFound))
}

func TestClearWithReleaseZeroesClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.seedSKU(t, "MH2-010", 10, 100)
	second := f.seedSKU(t, "MH2-011", 10, 100)

	_, err := f.svc.AddItem(ctx, "sess-a", first, 2)
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, "sess-a", second, 3)
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, nil, cart.ID, DisposalRelease))
	assert.Zero(t, f.level(t, first).Reserved)
	assert.Zero(t, f.level(t, second).Reserved)
	assert.Zero(t, f.itemCount(t))
}

func TestClearAlreadyRetiredLeavesClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-012", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, nil, cart.ID, DisposalAlreadyRetired))
	assert.Equal(t, 2, f.level(t, skuID).Reserved)
	assert.Zero(t, f.itemCount(t))
}

func TestClearRequiresExplicitDisposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-013", 10, 100)
	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)

	var zero Disposal
	err = f.svc.Clear(ctx, nil, cart.ID, zero)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvariantViolation))
	assert.Equal(t, int64(1), f.itemCount(t))
}

func TestClearWithReleaseAfterConsumeIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-014", 10, 100)
	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)

	_, err = f.ledger.Consume(ctx, nil, skuID, 2, "order:test")
	require.NoError(t, err)

	err = f.svc.Clear(ctx, nil, cart.ID, DisposalRelease)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvariantViolation))
	level := f.level(t, skuID)
	assert.Equal(t, 8, level.OnHand)
	assert.Zero(t, level.Reserved)
	assert.Equal(t, int64(1), f.itemCount(t))
}

func TestGetOrCreateReplacesExpiredCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-015", 10, 100)

	old, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)

	same, err := f.svc.GetOrCreate(ctx, "sess-a")
	require.NoError(t, err)
	assert.Equal(t, old.ID, same.ID)

	f.clock.Advance(testCartTTL + time.Hour)
	fresh, err := f.svc.GetOrCreate(ctx, "sess-a")
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Empty(t, fresh.Items)
	assert.Zero(t, f.level(t, skuID).Reserved)

	_, err = f.svc.GetOrCreate(ctx, "  ")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestReconcileRenewsWhenStockRemains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-016", 5, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	f.clock.Advance(testReservationTTL + time.Minute)
	result, err := f.svc.ReconcileExpired(ctx, nil, itemID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRenewed, result.Outcome)

	cart, err = f.svc.Get(ctx, "sess-a")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].ReservationExpiresAt.Equal(f.clock.now.Add(testReservationTTL)))
	assert.Equal(t, 2, f.level(t, skuID).Reserved)

	// a second pass finds nothing to do
	result, err = f.svc.ReconcileExpired(ctx, nil, itemID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
}

func TestReconcileDeletesWithoutSecondReleaseWhenStockTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-017", 2, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	f.ledger.afterRelease = func(ctx context.Context, tx *gorm.DB, skuID uuid.UUID) {
		f.ledger.afterRelease = nil
		_, err := f.ledger.Reserve(ctx, tx, skuID, 2, "cart_item:competitor")
		require.NoError(t, err)
	}

	f.clock.Advance(testReservationTTL + time.Minute)
	result, err := f.svc.ReconcileExpired(ctx, nil, itemID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, result.Outcome)
	assert.Equal(t, payloads.ReleaseReasonStockExhausted, result.Reason)
	assert.Equal(t, 2, result.Item.Quantity)

	assert.Zero(t, f.itemCount(t))
	level := f.level(t, skuID)
	assert.Equal(t, 2, level.Reserved) // held by the competitor only
	assert.Equal(t, 2, level.OnHand)
}

func TestReconcileRemovesLineOfExpiredCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-018", 10, 100)

	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 3)
	require.NoError(t, err)

	f.clock.Advance(testCartTTL + time.Hour)
	result, err := f.svc.ReconcileExpired(ctx, nil, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, result.Outcome)
	assert.Equal(t, payloads.ReleaseReasonCartExpired, result.Reason)
	assert.Zero(t, f.level(t, skuID).Reserved)
}

func TestReconcileSkipsLiveAndMissingItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-019", 10, 100)
	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 1)
	require.NoError(t, err)

	result, err := f.svc.ReconcileExpired(ctx, nil, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)

	result, err = f.svc.ReconcileExpired(ctx, nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.Equal(t, 1, f.level(t, skuID).Reserved)
}

func TestReleaseStaleOnlyTouchesLapsedRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-021", 10, 100)
	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	removed, err := f.svc.ReleaseStale(ctx, nil, itemID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 2, f.level(t, skuID).Reserved)

	f.clock.Advance(testReservationTTL + time.Second)
	removed, err = f.svc.ReleaseStale(ctx, nil, itemID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, f.level(t, skuID).Reserved)
	assert.Zero(t, f.itemCount(t))

	removed, err = f.svc.ReleaseStale(ctx, nil, itemID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLockRequiresTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-022", 10, 100)
	cart, err := f.svc.AddItem(ctx, "sess-a", skuID, 1)
	require.NoError(t, err)

	_, err = f.svc.Lock(ctx, nil, cart.ID)
	require.Error(t, err)

	err = db.Wrap(f.conn).WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := f.svc.Lock(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		assert.Len(t, locked.Items, 1)
		require.NotNil(t, locked.Items[0].SKU)
		_, err = f.svc.Lock(ctx, tx, uuid.New())
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCartNotFound))
		return nil
	})
	require.NoError(t, err)
}

func TestRepositoryListsExpiredRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-020", 10, 100)
	_, err := f.svc.AddItem(ctx, "sess-a", skuID, 1)
	require.NoError(t, err)

	repo := NewRepository(f.conn)
	items, err := repo.ListExpiredItems(ctx, f.clock.now, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	later := f.clock.now.Add(testReservationTTL + time.Minute)
	items, err = repo.ListExpiredItems(ctx, later, nil, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	carts, err := repo.ListExpiredCarts(ctx, later, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, carts)
	carts, err = repo.ListExpiredCarts(ctx, f.clock.now.Add(testCartTTL+time.Hour), nil, 10)
	require.NoError(t, err)
	assert.Len(t, carts, 1)
}

func TestListExpiredCartsPagesByCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	skuID := f.seedSKU(t, "MH2-021", 10, 100)
	for _, session := range []string{"sess-a", "sess-b", "sess-c"} {
		_, err := f.svc.AddItem(ctx, session, skuID, 1)
		require.NoError(t, err)
	}

	repo := NewRepository(f.conn)
	later := f.clock.now.Add(testCartTTL + time.Hour)
	first, err := repo.ListExpiredCarts(ctx, later, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	last := first[len(first)-1]
	rest, err := repo.ListExpiredCarts(ctx, later, &SweepCursor{At: last.ExpiresAt, ID: last.ID}, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.NotEqual(t, first[0].ID, rest[0].ID)
	assert.NotEqual(t, first[1].ID, rest[0].ID)
}

func TestDisposalString(t *testing.T) {
	assert.Equal(t, "release", DisposalRelease.String())
	assert.Equal(t, "already_retired", DisposalAlreadyRetired.String())
	assert.Equal(t, "invalid", Disposal(0).String())
}
