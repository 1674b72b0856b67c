package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/internal/catalog"
	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/internal/orders"
	"github.com/angelmondragon/nexus-cards-backend/internal/payments"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/metrics"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox/payloads"
)

const (
	paymentKeyConstraint = "ux_payment_transactions_idempotency_key"
	paymentKeyColumn     = "payment_transactions.idempotency_key"
)

var (
	// errConverted signals that a concurrent attempt committed the same checkout.
	errConverted = errors.New("checkout already committed")
	// errLapsed signals a reservation window that closed between the stale-line
	// pass and the locked conversion.
	errLapsed = errors.New("reservation lapsed under lock")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartLifecycle interface {
	Get(ctx context.Context, sessionID string) (*models.Cart, error)
	Lock(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error)
	ReleaseStale(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (bool, error)
	Discard(ctx context.Context, tx *gorm.DB, cartID uuid.UUID, disposal cart.Disposal) error
}

type stockConsumer interface {
	Consume(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (inventory.Level, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Result is the order and payment of a checkout. Replayed is set when an
// earlier attempt with the same idempotency key produced them.
type Result struct {
	Order    *models.Order
	Payment  *models.PaymentTransaction
	Replayed bool
}

// Service converts a session's cart into an order exactly once per cart and
// payment method.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

type ServiceParams struct {
	Tx       txRunner
	Carts    cartLifecycle
	Ledger   stockConsumer
	Orders   orders.Repository
	Numbers  *orders.NumberGenerator
	Payments payments.Repository
	Provider payments.Provider
	Outbox   outboxPublisher
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
	// ReplayWindow bounds how old a converted cart's order may be and still be
	// replayed once the cart itself is gone.
	ReplayWindow time.Duration
	Now          func() time.Time
}

type service struct {
	tx           txRunner
	carts        cartLifecycle
	ledger       stockConsumer
	orders       orders.Repository
	numbers      *orders.NumberGenerator
	payments     payments.Repository
	provider     payments.Provider
	outbox       outboxPublisher
	logg         *logger.Logger
	metrics      *metrics.CheckoutMetrics
	replayWindow time.Duration
	now          func() time.Time
}

// NewService builds the checkout coordinator.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart service required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("stock ledger required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payments repository required")
	case params.Provider == nil:
		return nil, fmt.Errorf("payment provider required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	numbers := params.Numbers
	if numbers == nil {
		numbers = orders.NewNumberGenerator(nil)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:           params.Tx,
		carts:        params.Carts,
		ledger:       params.Ledger,
		orders:       params.Orders,
		numbers:      numbers,
		payments:     params.Payments,
		provider:     params.Provider,
		outbox:       params.Outbox,
		logg:         params.Logger,
		metrics:      params.Metrics,
		replayWindow: params.ReplayWindow,
		now:          now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (result *Result, err error) {
	started := time.Now()
	defer func() {
		s.observe(result, err, time.Since(started))
	}()

	if err := input.normalize(); err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(s.logg.WithSessionID(ctx, input.SessionID), map[string]any{
		"payment_method": input.PaymentMethod,
	})

	record, err := s.carts.Get(ctx, input.SessionID)
	if pkgerrors.Is(err, pkgerrors.CodeCartNotFound) {
		return s.replayConverted(ctx, input, err)
	}
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCartID(ctx, record.ID.String())

	now := s.now().UTC()
	if record.IsExpired(now) {
		return nil, pkgerrors.New(pkgerrors.CodeCartExpired, "cart has expired")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if err := s.dropStaleLines(ctx, record, now); err != nil {
		return nil, err
	}

	key := IdempotencyKey(record.ID, input.PaymentMethod)
	if replay, err := s.replay(ctx, key); replay != nil || err != nil {
		return replay, err
	}

	result, err = s.convert(ctx, record.ID, key, input)
	if errors.Is(err, errConverted) {
		s.logg.Info(ctx, "checkout committed concurrently; replaying")
		replay, err := s.replay(ctx, key)
		if err == nil && replay == nil {
			err = pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
		}
		return replay, err
	}
	if errors.Is(err, errLapsed) {
		s.logg.Info(ctx, "reservation lapsed during checkout; releasing stale lines")
		return nil, s.releaseLapsed(ctx, input.SessionID)
	}
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_number": result.Order.OrderNumber,
		"total_cents":  result.Order.TotalCents,
	})
	s.logg.Info(logCtx, "checkout completed")
	return result, nil
}

// dropStaleLines releases and deletes every line whose window lapsed and
// fails the attempt so the shopper reviews the corrected cart. Lines already
// released stay released when a later one fails.
func (s *service) dropStaleLines(ctx context.Context, record *models.Cart, now time.Time) error {
	var stale []uuid.UUID
	for _, item := range record.Items {
		if item.IsReservationExpired(now) {
			stale = append(stale, item.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	removed := make([]string, 0, len(stale))
	for _, id := range stale {
		ok, err := s.carts.ReleaseStale(ctx, nil, id)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "cart_item_id", id.String()), "release stale line failed", err)
			return err
		}
		if ok {
			removed = append(removed, id.String())
		}
	}
	return staleError(removed)
}

// releaseLapsed runs the stale-line pass again after a conversion rolled back
// on a window that closed while it waited for the cart lock.
func (s *service) releaseLapsed(ctx context.Context, sessionID string) error {
	record, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.dropStaleLines(ctx, record, s.now().UTC()); err != nil {
		return err
	}
	return staleError(nil)
}

func staleError(removed []string) error {
	if removed == nil {
		removed = []string{}
	}
	return pkgerrors.New(pkgerrors.CodeReservationStale,
		"some reservations expired and were removed; review your cart and try again").
		WithDetails(map[string]any{"removed_items": removed})
}

// convert runs the all-or-nothing unit: order, lines, consumption, payment
// and cart disposal commit together or not at all.
func (s *service) convert(ctx context.Context, cartID uuid.UUID, key string, input Input) (*Result, error) {
	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.carts.Lock(ctx, tx, cartID)
		if pkgerrors.Is(err, pkgerrors.CodeCartNotFound) {
			return errConverted
		}
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if len(locked.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		for _, item := range locked.Items {
			if item.IsReservationExpired(now) {
				return errLapsed
			}
		}

		ordersRepo := s.orders.WithTx(tx)
		number, err := s.numbers.Next(ctx, ordersRepo, now)
		if err != nil {
			return err
		}
		order, err := buildOrder(locked, number, input, now)
		if err != nil {
			return err
		}
		if err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return err
		}

		ref := "order:" + number
		for _, item := range locked.Items {
			if _, err := s.ledger.Consume(ctx, tx, item.SKUID, item.Quantity, ref); err != nil {
				return err
			}
		}

		payment, err := s.createPayment(ctx, order, key, input)
		if err != nil {
			return err
		}
		if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
			if db.IsUniqueViolation(err, paymentKeyConstraint) || db.IsUniqueViolation(err, paymentKeyColumn) {
				return errConverted
			}
			return err
		}

		if err := s.carts.Discard(ctx, tx, locked.ID, cart.DisposalAlreadyRetired); err != nil {
			return err
		}
		if err := s.emitOrderCreated(ctx, tx, order, payment); err != nil {
			return err
		}

		order.Payments = []models.PaymentTransaction{*payment}
		result = &Result{Order: order, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) createPayment(ctx context.Context, order *models.Order, key string, input Input) (*models.PaymentTransaction, error) {
	resp, err := s.provider.CreatePayment(ctx, payments.CreatePaymentRequest{
		IdempotencyKey: key,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		AmountCents:    order.TotalCents,
		Method:         input.PaymentMethod,
		Currency:       order.Currency,
		CustomerEmail:  order.CustomerEmail,
		CustomerName:   order.CustomerName,
		CustomerCPF:    order.CustomerCPF,
		CustomerPhone:  order.CustomerPhone,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, "payment provider failed")
	}
	if !resp.Success {
		msg := resp.ErrorMessage
		if msg == "" {
			msg = "payment creation failed"
		}
		return nil, pkgerrors.New(pkgerrors.CodePaymentProvider, msg)
	}

	raw, err := json.Marshal(resp.Raw)
	if err != nil {
		return nil, fmt.Errorf("encode provider response: %w", err)
	}
	return &models.PaymentTransaction{
		OrderID:               order.ID,
		IdempotencyKey:        key,
		Provider:              s.provider.Name(),
		ProviderTransactionID: resp.ProviderTransactionID,
		Method:                input.PaymentMethod,
		Status:                resp.Status,
		AmountCents:           order.TotalCents,
		FeeCents:              resp.FeeCents,
		NetAmountCents:        order.TotalCents - resp.FeeCents,
		PixQRCode:             resp.PixQRCode,
		PixCopyPaste:          resp.PixCopyPaste,
		BoletoURL:             resp.BoletoURL,
		BoletoBarcode:         resp.BoletoBarcode,
		RedirectURL:           resp.RedirectURL,
		ExpiresAt:             resp.ExpiresAt,
		RawResponse:           raw,
	}, nil
}

// replay returns the committed result for key, or nil when there is none.
// It never touches the ledger.
func (s *service) replay(ctx context.Context, key string) (*Result, error) {
	payment, err := s.payments.FindByIdempotencyKey(ctx, key)
	if err != nil || payment == nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber), "checkout replayed")
	return &Result{Order: order, Payment: payment, Replayed: true}, nil
}

// replayConverted answers a retry that arrives after its cart was converted
// and deleted. Only the session's latest order inside the replay window is
// considered; anything else keeps the original cart-not-found error.
func (s *service) replayConverted(ctx context.Context, input Input, notFound error) (*Result, error) {
	if s.replayWindow <= 0 {
		return nil, notFound
	}
	since := s.now().UTC().Add(-s.replayWindow)
	order, err := s.orders.FindLatestForSession(ctx, input.SessionID, since)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, notFound
	}
	replay, err := s.replay(ctx, IdempotencyKey(order.CartID, input.PaymentMethod))
	if err != nil {
		return nil, err
	}
	if replay == nil {
		return nil, notFound
	}
	return replay, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, payment *models.PaymentTransaction) error {
	units := 0
	for _, line := range order.Lines {
		units += line.Quantity
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:              order.ID,
			OrderNumber:          order.OrderNumber,
			PaymentTransactionID: payment.ID,
			PaymentMethod:        payment.Method,
			TotalCents:           order.TotalCents,
			Currency:             order.Currency,
			LineCount:            len(order.Lines),
			UnitCount:            units,
		},
	})
}

func (s *service) observe(result *Result, err error, elapsed time.Duration) {
	switch {
	case err != nil:
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.Observe(metrics.CheckoutFailed, code, elapsed)
	case result != nil && result.Replayed:
		s.metrics.Observe(metrics.CheckoutReplayed, "", elapsed)
	default:
		s.metrics.Observe(metrics.ResultOK, "", elapsed)
	}
}

func buildOrder(record *models.Cart, number string, input Input, now time.Time) (*models.Order, error) {
	subtotal := record.SubtotalCents()
	total := subtotal + input.ShippingCents - input.DiscountCents
	if total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order value")
	}

	lines := make([]models.OrderLine, 0, len(record.Items))
	for _, item := range record.Items {
		var snapshot models.ProductSnapshot
		if item.SKU != nil {
			snapshot = catalog.Snapshot(*item.SKU)
		}
		lines = append(lines, models.OrderLine{
			SKUID:           item.SKUID,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalCents:      item.LineTotalCents(),
			ProductSnapshot: snapshot,
		})
	}

	var notes *string
	if input.Notes != "" {
		notes = &input.Notes
	}
	return &models.Order{
		OrderNumber:   number,
		SessionID:     record.SessionID,
		CartID:        record.ID,
		UserID:        record.UserID,
		Status:        enums.OrderStatusPending,
		PaymentMethod: input.PaymentMethod,
		CustomerEmail: input.Customer.Email,
		CustomerName:  input.Customer.Name,
		CustomerCPF:   input.Customer.CPF,
		CustomerPhone: input.Customer.Phone,
		Shipping:      input.Shipping,
		SubtotalCents: subtotal,
		ShippingCents: input.ShippingCents,
		DiscountCents: input.DiscountCents,
		TotalCents:    total,
		Currency:      enums.CurrencyBRL,
		Lines:         lines,
		Notes:         notes,
		CreatedAt:     now,
	}, nil
}
