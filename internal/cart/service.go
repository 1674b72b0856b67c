package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

const (
	MinAddQuantity = 1
	MaxQuantity    = 99

	sessionConstraint = "ux_carts_session_id"
	sessionColumn     = "carts.session_id"
	lineConstraint    = "ux_cart_items_cart_sku"
	lineColumn        = "cart_items.cart_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (inventory.Level, error)
	Release(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (inventory.Level, error)
}

type skuCatalog interface {
	SellableSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error)
}

// Service drives the reservation-record state machine of a session's cart.
type Service interface {
	GetOrCreate(ctx context.Context, sessionID string) (*models.Cart, error)
	Get(ctx context.Context, sessionID string) (*models.Cart, error)
	AddItem(ctx context.Context, sessionID string, skuID uuid.UUID, qty int) (*models.Cart, error)
	// UpdateQuantity sets the line to qty; zero removes it.
	UpdateQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, qty int) (*models.Cart, error)
	Renew(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error)
	ClearSession(ctx context.Context, sessionID string) (*models.Cart, error)

	Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, disposal Disposal) error
	// Discard clears the cart with the given disposal and deletes it.
	Discard(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, disposal Disposal) error
	ReleaseAndDelete(ctx context.Context, tx *gorm.DB, item models.CartItem) error
	DeleteRetired(ctx context.Context, tx *gorm.DB, item models.CartItem) error
	ReconcileExpired(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (Reconciliation, error)
	// ReleaseStale releases and deletes the record if its window is still lapsed
	// once locked. It reports whether the record was removed.
	ReleaseStale(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (bool, error)
	// Lock reloads the cart with its items and holds the cart row until tx ends.
	Lock(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error)
}

// ServiceParams wires the cart service. Now defaults to time.Now.
type ServiceParams struct {
	Repo           *Repository
	Tx             txRunner
	Ledger         stockLedger
	Catalog        skuCatalog
	Logger         *logger.Logger
	ReservationTTL time.Duration
	CartTTL        time.Duration
	Now            func() time.Time
}

type service struct {
	repo           *Repository
	tx             txRunner
	ledger         stockLedger
	catalog        skuCatalog
	logg           *logger.Logger
	reservationTTL time.Duration
	cartTTL        time.Duration
	now            func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ReservationTTL <= 0 || params.CartTTL <= 0 {
		return nil, fmt.Errorf("reservation and cart ttl must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:           params.Repo,
		tx:             params.Tx,
		ledger:         params.Ledger,
		catalog:        params.Catalog,
		logg:           params.Logger,
		reservationTTL: params.ReservationTTL,
		cartTTL:        params.CartTTL,
		now:            now,
	}, nil
}

func (s *service) clock() time.Time {
	return s.now().UTC()
}

// GetOrCreate returns the session's live cart. An expired cart is cleared with
// release, deleted and replaced by a fresh one.
func (s *service) GetOrCreate(ctx context.Context, sessionID string) (*models.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return nil, err
	}

	var cartID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.liveCartTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		return nil
	})
	if db.IsUniqueViolation(err, sessionConstraint) || db.IsUniqueViolation(err, sessionColumn) {
		// another request created the cart first
		return s.repo.FindBySession(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, cartID)
}

func (s *service) Get(ctx context.Context, sessionID string) (*models.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindBySession(ctx, sessionID)
}

func (s *service) AddItem(ctx context.Context, sessionID string, skuID uuid.UUID, qty int) (*models.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if skuID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if err := validateQuantity(qty, MinAddQuantity); err != nil {
		return nil, err
	}
	sku, err := s.catalog.SellableSKU(ctx, skuID)
	if err != nil {
		return nil, err
	}

	var cartID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock()

		cart, err := s.liveCartTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		existing, err := repo.FindItemBySKU(ctx, cart.ID, skuID)
		if err != nil {
			return err
		}
		if existing != nil {
			merged := existing.Quantity + qty
			if err := validateQuantity(merged, MinAddQuantity); err != nil {
				return err
			}
			if err := s.setQuantityTx(ctx, tx, existing, merged, now); err != nil {
				return err
			}
			return repo.Touch(ctx, cart.ID, now.Add(s.cartTTL))
		}

		item := &models.CartItem{
			ID:                   uuid.New(),
			CartID:               cart.ID,
			SKUID:                skuID,
			Quantity:             qty,
			UnitPriceCents:       sku.EffectivePriceCents(),
			ReservationExpiresAt: now.Add(s.reservationTTL),
		}
		if _, err := s.ledger.Reserve(ctx, tx, skuID, qty, itemReference(item.ID)); err != nil {
			return err
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, lineConstraint) || db.IsUniqueViolation(err, lineColumn) {
				return pkgerrors.New(pkgerrors.CodeConflict, "item was added concurrently; retry the request")
			}
			return err
		}
		return repo.Touch(ctx, cart.ID, now.Add(s.cartTTL))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, cartID)
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if err := validateQuantity(qty, 0); err != nil {
		return nil, err
	}
	return s.mutateItem(ctx, sessionID, itemID, true, func(tx *gorm.DB, item *models.CartItem, now time.Time) error {
		if qty == 0 {
			return s.ReleaseAndDelete(ctx, tx, *item)
		}
		return s.setQuantityTx(ctx, tx, item, qty, now)
	})
}

// Renew extends the reservation window without touching the ledger.
func (s *service) Renew(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error) {
	return s.mutateItem(ctx, sessionID, itemID, true, func(tx *gorm.DB, item *models.CartItem, now time.Time) error {
		item.ReservationExpiresAt = now.Add(s.reservationTTL)
		return s.repo.WithTx(tx).SaveItem(ctx, item)
	})
}

// RemoveItem is the user-facing removal path; the claim is always released.
func (s *service) RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error) {
	return s.mutateItem(ctx, sessionID, itemID, false, func(tx *gorm.DB, item *models.CartItem, _ time.Time) error {
		return s.ReleaseAndDelete(ctx, tx, *item)
	})
}

// ClearSession empties the session's cart, releasing every claim.
func (s *service) ClearSession(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.Clear(ctx, tx, cart.ID, DisposalRelease); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Touch(ctx, cart.ID, s.clock().Add(s.cartTTL))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, cart.ID)
}

// Clear deletes every line of the cart, retiring claims according to disposal.
// A nil tx runs the clear in its own transaction.
func (s *service) Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, disposal Disposal) error {
	if !disposal.valid() {
		return pkgerrors.New(pkgerrors.CodeInvariantViolation, "cart clear requires an explicit disposal")
	}
	if tx == nil {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.Clear(ctx, tx, cartID, disposal)
		})
	}

	items, err := s.repo.WithTx(tx).ListItems(ctx, cartID)
	if err != nil {
		return err
	}
	for _, item := range items {
		switch disposal {
		case DisposalRelease:
			err = s.ReleaseAndDelete(ctx, tx, item)
		case DisposalAlreadyRetired:
			err = s.DeleteRetired(ctx, tx, item)
		}
		if err != nil {
			return err
		}
	}

	logCtx := s.logg.WithFields(s.logg.WithCartID(ctx, cartID.String()), map[string]any{
		"disposal": disposal.String(),
		"lines":    len(items),
	})
	s.logg.Debug(logCtx, "cart cleared")
	return nil
}

func (s *service) Discard(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, disposal Disposal) error {
	if tx == nil {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.Discard(ctx, tx, cartID, disposal)
		})
	}
	if err := s.Clear(ctx, tx, cartID, disposal); err != nil {
		return err
	}
	return s.repo.WithTx(tx).deleteCart(ctx, cartID)
}

// ReleaseAndDelete returns the line's claim to the ledger, then deletes the record.
func (s *service) ReleaseAndDelete(ctx context.Context, tx *gorm.DB, item models.CartItem) error {
	if _, err := s.ledger.Release(ctx, tx, item.SKUID, item.Quantity, itemReference(item.ID)); err != nil {
		return err
	}
	return s.repo.WithTx(tx).deleteItem(ctx, item.ID)
}

// DeleteRetired deletes a record whose claim the caller has already consumed or
// released. It never touches the ledger.
func (s *service) DeleteRetired(ctx context.Context, tx *gorm.DB, item models.CartItem) error {
	return s.repo.WithTx(tx).deleteItem(ctx, item.ID)
}

func (s *service) Lock(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	return s.repo.WithTx(tx).FindByIDForUpdate(ctx, cartID)
}

// liveCartTx loads the session cart inside tx, replacing it when expired.
func (s *service) liveCartTx(ctx context.Context, tx *gorm.DB, sessionID string) (*models.Cart, error) {
	repo := s.repo.WithTx(tx)
	now := s.clock()

	cart, err := repo.FindBySession(ctx, sessionID)
	switch {
	case err == nil && !cart.IsExpired(now):
		return cart, nil
	case err == nil:
		s.logg.Info(s.logg.WithCartID(ctx, cart.ID.String()), "replacing expired cart")
		if err := s.Discard(ctx, tx, cart.ID, DisposalRelease); err != nil {
			return nil, err
		}
	case !pkgerrors.Is(err, pkgerrors.CodeCartNotFound):
		return nil, err
	}

	fresh := &models.Cart{SessionID: sessionID, ExpiresAt: now.Add(s.cartTTL)}
	if err := repo.Create(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// mutateItem runs fn against a locked line of the session's cart and extends
// the cart expiry. requireLive rejects expired carts with CART_EXPIRED.
func (s *service) mutateItem(ctx context.Context, sessionID string, itemID uuid.UUID, requireLive bool, fn func(tx *gorm.DB, item *models.CartItem, now time.Time) error) (*models.Cart, error) {
	sessionID, err := normalizeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	cart, err := s.repo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if requireLive && cart.IsExpired(s.clock()) {
		return nil, pkgerrors.New(pkgerrors.CodeCartExpired, "cart has expired")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock()
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if err := fn(tx, item, now); err != nil {
			return err
		}
		return repo.Touch(ctx, cart.ID, now.Add(s.cartTTL))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, cart.ID)
}

// setQuantityTx moves the claim to qty. A lapsed window is re-claimed from
// scratch; a live one only reserves or releases the difference.
func (s *service) setQuantityTx(ctx context.Context, tx *gorm.DB, item *models.CartItem, qty int, now time.Time) error {
	ref := itemReference(item.ID)

	if item.IsReservationExpired(now) {
		if _, err := s.ledger.Release(ctx, tx, item.SKUID, item.Quantity, ref); err != nil {
			return err
		}
		if _, err := s.ledger.Reserve(ctx, tx, item.SKUID, qty, ref); err != nil {
			return err
		}
		item.ReservationExpiresAt = now.Add(s.reservationTTL)
	} else {
		diff := qty - item.Quantity
		switch {
		case diff > 0:
			if _, err := s.ledger.Reserve(ctx, tx, item.SKUID, diff, ref); err != nil {
				return err
			}
		case diff < 0:
			if _, err := s.ledger.Release(ctx, tx, item.SKUID, -diff, ref); err != nil {
				return err
			}
		default:
			return nil
		}
	}

	item.Quantity = qty
	return s.repo.WithTx(tx).SaveItem(ctx, item)
}

func normalizeSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return sessionID, nil
}

func validateQuantity(qty, floor int) error {
	if qty < floor || qty > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between %d and %d", floor, MaxQuantity)).
			WithDetails(map[string]any{"quantity": qty})
	}
	return nil
}

func itemReference(id uuid.UUID) string {
	return "cart_item:" + id.String()
}
