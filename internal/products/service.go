// Package products serves the catalog: public browsing and admin
// management. Stock movements go through the stock ledger, never through
// direct product updates.
package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/internal/stock"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

// CreateInput carries a new catalog listing.
type CreateInput struct {
	Name         string
	Description  *string
	Price        decimal.Decimal
	CostPrice    decimal.Decimal
	SaleType     enums.SaleType
	InitialStock decimal.Decimal
	ImageURL     *string
}

// UpdateInput mutates listing fields. Nil fields are left untouched.
// Stock is deliberately absent; adjustments go through AdjustStock.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CostPrice   *decimal.Decimal
	ImageURL    *string
}

// Service defines catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetAny(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, change decimal.Decimal) (*models.Product, error)
	StockHistory(ctx context.Context, id uuid.UUID) ([]models.StockTransaction, error)
}

type service struct {
	repo  Repository
	stock stock.Service
}

// NewService wires a products service with its repository and the stock ledger.
func NewService(repo Repository, stockSvc stock.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	return &service{repo: repo, stock: stockSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.SaleType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sale type %q", input.SaleType))
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}
	if input.InitialStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}

	product := &models.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price.Round(2),
		CostPrice:     input.CostPrice.Round(2),
		SaleType:      input.SaleType,
		StockQuantity: input.InitialStock,
		ImageURL:      input.ImageURL,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = input.Price.Round(2)
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
		}
		product.CostPrice = input.CostPrice.Round(2)
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

// Deactivate hides the product from the catalog. Products are never
// deleted; order item snapshots keep referencing them.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *service) Activate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate product")
	}
	return nil
}

// Get serves the public catalog; deactivated products read as missing.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// GetAny serves admin reads regardless of active state.
func (s *service) GetAny(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error) {
	products, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, change decimal.Decimal) (*models.Product, error) {
	return s.stock.AdminAdjust(ctx, id, change)
}

func (s *service) StockHistory(ctx context.Context, id uuid.UUID) ([]models.StockTransaction, error) {
	return s.stock.History(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
