package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
)

// Repository persists stock movements and the product quantities they touch.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DecrementIfAvailable(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) (int64, error)
	DecrementIfEnough(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) (int64, error)
	Increment(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) error
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	CreateTransaction(ctx context.Context, txn *models.StockTransaction) error
	ListTransactions(ctx context.Context, productID uuid.UUID) ([]models.StockTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// DecrementIfAvailable applies the guarded decrement. Zero affected rows
// means the product is inactive, missing, or short on stock; the caller
// decides which.
func (r *repository) DecrementIfAvailable(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_active = ? AND stock_quantity >= ?
	`, qty, productID, true, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DecrementIfEnough is the admin variant of the guard. It ignores the
// active flag so deactivated products can still have their stock corrected.
func (r *repository) DecrementIfEnough(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Increment adds stock back without an upper bound.
func (r *repository) Increment(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID).Error
}

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.StockTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, productID uuid.UUID) ([]models.StockTransaction, error) {
	var txns []models.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
