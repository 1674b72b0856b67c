package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
)

const (
	skuCodeConstraint = "ux_skus_sku_code"
	skuCodeColumn     = "skus.sku_code"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledgerProvisioner creates the stock ledger row for a new SKU.
type ledgerProvisioner interface {
	EnsureItem(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, threshold int) error
}

// Service is the catalog collaborator the cart and checkout read prices and
// snapshots from.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	CreateSKU(ctx context.Context, input CreateSKUInput) (*models.SKU, error)
	GetSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error)
	// SellableSKU is GetSKU restricted to active SKUs of active products.
	SellableSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error)
	UpdatePrices(ctx context.Context, id uuid.UUID, priceCents int, salePriceCents *int) (*models.SKU, error)
}

type CreateProductInput struct {
	Name    string
	SetName string
	Rarity  string
}

type CreateSKUInput struct {
	ProductID         uuid.UUID
	SKUCode           string
	Condition         enums.CardCondition
	Language          string
	IsFoil            bool
	PriceCents        int
	SalePriceCents    *int
	LowStockThreshold int
}

type service struct {
	repo   *Repository
	tx     txRunner
	ledger ledgerProvisioner
}

// NewService wires the catalog service.
func NewService(repo *Repository, tx txRunner, ledger ledgerProvisioner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	product := &models.Product{
		Name:     name,
		SetName:  strings.TrimSpace(input.SetName),
		Rarity:   strings.TrimSpace(input.Rarity),
		IsActive: true,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

// CreateSKU inserts the SKU and its empty ledger row in one transaction.
func (s *service) CreateSKU(ctx context.Context, input CreateSKUInput) (*models.SKU, error) {
	if err := validateSKUInput(&input); err != nil {
		return nil, err
	}

	var created *models.SKU
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindProduct(ctx, input.ProductID); err != nil {
			return err
		}
		sku := &models.SKU{
			ProductID:      input.ProductID,
			SKUCode:        input.SKUCode,
			Condition:      input.Condition,
			Language:       input.Language,
			IsFoil:         input.IsFoil,
			PriceCents:     input.PriceCents,
			SalePriceCents: input.SalePriceCents,
			IsActive:       true,
		}
		if err := repo.CreateSKU(ctx, sku); err != nil {
			if db.IsUniqueViolation(err, skuCodeConstraint) || db.IsUniqueViolation(err, skuCodeColumn) {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku code already exists").
					WithDetails(map[string]any{"sku_code": input.SKUCode})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sku")
		}
		if err := s.ledger.EnsureItem(ctx, tx, sku.ID, input.LowStockThreshold); err != nil {
			return err
		}
		created = sku
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindSKU(ctx, created.ID)
}

func (s *service) GetSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	return s.repo.FindSKU(ctx, id)
}

func (s *service) SellableSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error) {
	sku, err := s.GetSKU(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sku.IsActive || (sku.Product != nil && !sku.Product.IsActive) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku is not available for sale")
	}
	return sku, nil
}

func (s *service) UpdatePrices(ctx context.Context, id uuid.UUID, priceCents int, salePriceCents *int) (*models.SKU, error) {
	if err := validatePrices(priceCents, salePriceCents); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePrices(ctx, id, priceCents, salePriceCents); err != nil {
		return nil, err
	}
	return s.repo.FindSKU(ctx, id)
}

func validateSKUInput(input *CreateSKUInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	input.SKUCode = strings.ToUpper(strings.TrimSpace(input.SKUCode))
	if input.SKUCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku code is required")
	}
	if input.Condition == "" {
		input.Condition = enums.CardConditionNearMint
	}
	if !input.Condition.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid card condition").
			WithDetails(map[string]any{"condition": input.Condition})
	}
	input.Language = strings.ToUpper(strings.TrimSpace(input.Language))
	if input.Language == "" {
		input.Language = "EN"
	}
	if input.LowStockThreshold < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must not be negative")
	}
	return validatePrices(input.PriceCents, input.SalePriceCents)
}

func validatePrices(priceCents int, salePriceCents *int) error {
	if priceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if salePriceCents != nil && (*salePriceCents <= 0 || *salePriceCents > priceCents) {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive and not above the list price")
	}
	return nil
}
