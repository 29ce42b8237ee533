// Package stock implements the stock ledger: guarded decrements, unbounded
// restores, and the append-only transaction log behind both.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// Service exposes ledger operations. Reserve and Restore must run inside the
// caller's transaction via WithTx so stock movements commit together with
// their order-side effects.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Reserve(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, orderID uuid.UUID) error
	Restore(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, orderID uuid.UUID) error
	AdminAdjust(ctx context.Context, productID uuid.UUID, change decimal.Decimal) (*models.Product, error)
	History(ctx context.Context, productID uuid.UUID) ([]models.StockTransaction, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a stock ledger service with the provided repository and
// transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("stock transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), tx: s.tx}
}

// Reserve decrements stock with the conditional guard and appends the
// purchase transaction. Zero affected rows is resolved into either a
// not-found or an insufficient-stock failure by re-reading the product.
func (s *service) Reserve(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, orderID uuid.UUID) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	affected, err := s.repo.DecrementIfAvailable(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if affected == 0 {
		return s.reserveFailure(ctx, productID, qty)
	}

	txn := &models.StockTransaction{
		ProductID:      productID,
		QuantityChange: qty.Neg(),
		Reason:         enums.StockReasonPurchase,
		RelatedOrderID: &orderID,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record purchase transaction")
	}
	return nil
}

func (s *service) reserveFailure(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) error {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is unavailable")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
		"product_id": productID,
		"requested":  qty.String(),
		"available":  product.StockQuantity.String(),
	})
}

func (s *service) adjustFailure(ctx context.Context, repo Repository, productID uuid.UUID, qty decimal.Decimal) error {
	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
		"product_id": productID,
		"requested":  qty.String(),
		"available":  product.StockQuantity.String(),
	})
}

// Restore increments stock back after a cancellation and logs the reversal.
func (s *service) Restore(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, orderID uuid.UUID) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if err := s.repo.Increment(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}

	txn := &models.StockTransaction{
		ProductID:      productID,
		QuantityChange: qty,
		Reason:         enums.StockReasonCancellation,
		RelatedOrderID: &orderID,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record cancellation transaction")
	}
	return nil
}

// AdminAdjust moves stock up or down on behalf of an operator. Negative
// adjustments reuse the conditional guard so stock never goes below zero.
// The movement and its ledger row commit in a single transaction.
func (s *service) AdminAdjust(ctx context.Context, productID uuid.UUID, change decimal.Decimal) (*models.Product, error) {
	if change.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment cannot be zero")
	}

	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reason := enums.StockReasonAdminAdd
		if change.IsNegative() {
			reason = enums.StockReasonAdminRemove
			affected, err := repo.DecrementIfEnough(ctx, productID, change.Neg())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if affected == 0 {
				return s.adjustFailure(ctx, repo, productID, change.Neg())
			}
		} else {
			if err := repo.Increment(ctx, productID, change); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
			}
		}

		txn := &models.StockTransaction{
			ProductID:      productID,
			QuantityChange: change,
			Reason:         reason,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record adjustment transaction")
		}

		loaded, err := repo.FindProduct(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		product = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) History(ctx context.Context, productID uuid.UUID) ([]models.StockTransaction, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	txns, err := s.repo.ListTransactions(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock transactions")
	}
	return txns, nil
}
