package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/metrics"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox/payloads"
)

// Service is the stock ledger. Every mutation takes the caller's transaction
// (nil starts a fresh one) so ledger changes commit or roll back with it.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error)
	Release(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error)
	Consume(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error)
	Restock(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error)
	Get(ctx context.Context, skuID uuid.UUID) (Level, error)
	EnsureItem(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, threshold int) error
	Movements(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the ledger. Outbox and Metrics are optional.
type ServiceParams struct {
	Repo             Repository
	Logger           *logger.Logger
	Outbox           outboxEmitter
	Metrics          *metrics.LedgerMetrics
	DefaultThreshold int
	Now              func() time.Time
}

type service struct {
	repo             Repository
	logg             *logger.Logger
	outbox           outboxEmitter
	metrics          *metrics.LedgerMetrics
	defaultThreshold int
	now              func() time.Time
}

type rule func(item *models.InventoryItem, qty int, now time.Time) error

// NewService wires a ledger service with the provided repository.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	threshold := params.DefaultThreshold
	if threshold <= 0 {
		threshold = models.DefaultLowStockThreshold
	}
	return &service{
		repo:             params.Repo,
		logg:             params.Logger,
		outbox:           params.Outbox,
		metrics:          params.Metrics,
		defaultThreshold: threshold,
		now:              now,
	}, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error) {
	return s.apply(ctx, tx, skuID, qty, reference, enums.StockMovementTypeReserve,
		func(item *models.InventoryItem, qty int, _ time.Time) error { return reserve(item, qty) })
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error) {
	return s.apply(ctx, tx, skuID, qty, reference, enums.StockMovementTypeRelease,
		func(item *models.InventoryItem, qty int, _ time.Time) error { return release(item, qty) })
}

func (s *service) Consume(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error) {
	return s.apply(ctx, tx, skuID, qty, reference, enums.StockMovementTypeConsume,
		func(item *models.InventoryItem, qty int, _ time.Time) error { return consume(item, qty) })
}

func (s *service) Restock(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string) (Level, error) {
	return s.apply(ctx, tx, skuID, qty, reference, enums.StockMovementTypeRestock, restock)
}

func (s *service) Get(ctx context.Context, skuID uuid.UUID) (Level, error) {
	item, err := s.repo.Get(ctx, skuID)
	if err != nil {
		return Level{}, err
	}
	return levelOf(*item), nil
}

// EnsureItem provisions an empty ledger row for a new SKU. Existing rows are left alone.
func (s *service) EnsureItem(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, threshold int) error {
	if skuID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	return s.repo.WithTx(tx).Ensure(ctx, &models.InventoryItem{
		SKUID:             skuID,
		LowStockThreshold: threshold,
	})
}

func (s *service) Movements(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	return s.repo.ListMovements(ctx, skuID, limit)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int, reference string, op enums.StockMovementType, fn rule) (Level, error) {
	if qty <= 0 {
		return Level{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": qty, "op": op})
	}
	ctx = s.logg.WithSKU(ctx, skuID.String())

	var (
		level      Level
		crossedLow bool
	)
	err := s.repo.WithTx(tx).Transaction(ctx, func(repo Repository, tx *gorm.DB) error {
		var wasLow bool
		item, err := repo.Mutate(ctx, skuID, func(item *models.InventoryItem) error {
			wasLow = item.IsLowStock()
			return fn(item, qty, s.now().UTC())
		})
		if err != nil {
			return err
		}
		level = levelOf(*item)
		crossedLow = !wasLow && item.IsLowStock()

		if err := repo.AppendMovement(ctx, &models.StockMovement{
			SKUID:         skuID,
			Type:          op,
			Quantity:      qty,
			OnHandAfter:   item.OnHand,
			ReservedAfter: item.Reserved,
			Reference:     reference,
		}); err != nil {
			return err
		}

		if crossedLow && s.outbox != nil && tx != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockLow,
				AggregateType: enums.AggregateInventoryItem,
				AggregateID:   skuID,
				Data: payloads.StockLowEvent{
					SKUID:     skuID,
					OnHand:    item.OnHand,
					Reserved:  item.Reserved,
					Available: item.Available(),
					Threshold: item.LowStockThreshold,
				},
			})
		}
		return nil
	})
	if err != nil {
		s.observeFailure(ctx, op, qty, reference, err)
		return Level{}, err
	}

	s.metrics.ObserveMutation(string(op), metrics.ResultOK, qty)
	if crossedLow {
		s.metrics.IncLowStock()
	}
	return level, nil
}

func (s *service) observeFailure(ctx context.Context, op enums.StockMovementType, qty int, reference string, err error) {
	result := "error"
	if typed := pkgerrors.As(err); typed != nil {
		result = string(typed.Code())
	}
	s.metrics.ObserveMutation(string(op), result, qty)

	if pkgerrors.Is(err, pkgerrors.CodeInvariantViolation) {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"op":        op,
			"quantity":  qty,
			"reference": reference,
		})
		s.logg.Error(logCtx, "stock ledger invariant violation", err)
	}
}
