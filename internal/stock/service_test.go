package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:stocksvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  cost_price NUMERIC NOT NULL,
  sale_type TEXT NOT NULL,
  stock_quantity NUMERIC NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	stockTransactions := `
CREATE TABLE IF NOT EXISTS stock_transactions (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  quantity_change NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  related_order_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(stockTransactions).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM stock_transactions")
		db.Exec("DELETE FROM products")
	})
	return db
}

func newProduct(t *testing.T, db *gorm.DB, stock string, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Cucumbers",
		Price:         decimal.RequireFromString("4.50"),
		CostPrice:     decimal.RequireFromString("3.00"),
		SaleType:      enums.SaleTypeKg,
		StockQuantity: decimal.RequireFromString(stock),
		IsActive:      active,
	}
	require.NoError(t, db.Create(product).Error)
	require.NoError(t, db.Model(product).Update("is_active", active).Error)
	return product
}

func newStockService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func currentStock(t *testing.T, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var product models.Product
	require.NoError(t, db.Where("id = ?", id).First(&product).Error)
	return product.StockQuantity
}

func TestReserveDecrementsAndLogsPurchase(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "5", true)
	orderID := uuid.New()

	err := svc.Reserve(context.Background(), product.ID, decimal.RequireFromString("3"), orderID)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("2").Equal(currentStock(t, db, product.ID)))

	txns, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, enums.StockReasonPurchase, txns[0].Reason)
	assert.True(t, decimal.RequireFromString("-3").Equal(txns[0].QuantityChange))
	require.NotNil(t, txns[0].RelatedOrderID)
	assert.Equal(t, orderID, *txns[0].RelatedOrderID)
}

func TestReserveFailsWhenStockShort(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "2", true)

	err := svc.Reserve(context.Background(), product.ID, decimal.RequireFromString("3"), uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2", details["available"])
	assert.Equal(t, "3", details["requested"])

	// stock and audit log untouched
	assert.True(t, decimal.RequireFromString("2").Equal(currentStock(t, db, product.ID)))
	txns, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestReserveFailsForInactiveProduct(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "10", false)

	err := svc.Reserve(context.Background(), product.ID, decimal.RequireFromString("1"), uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestReserveFailsForMissingProduct(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)

	err := svc.Reserve(context.Background(), uuid.New(), decimal.RequireFromString("1"), uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRestoreIncrementsAndLogsCancellation(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "2", true)
	orderID := uuid.New()

	require.NoError(t, svc.Restore(context.Background(), product.ID, decimal.RequireFromString("3"), orderID))

	assert.True(t, decimal.RequireFromString("5").Equal(currentStock(t, db, product.ID)))

	txns, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, enums.StockReasonCancellation, txns[0].Reason)
	assert.True(t, decimal.RequireFromString("3").Equal(txns[0].QuantityChange))
}

func TestAdminAdjustAddAndRemove(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "10", true)

	updated, err := svc.AdminAdjust(context.Background(), product.ID, decimal.RequireFromString("5"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15").Equal(updated.StockQuantity))

	updated, err = svc.AdminAdjust(context.Background(), product.ID, decimal.RequireFromString("-4"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("11").Equal(updated.StockQuantity))

	txns, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, enums.StockReasonAdminAdd, txns[0].Reason)
	assert.Equal(t, enums.StockReasonAdminRemove, txns[1].Reason)
	assert.Nil(t, txns[0].RelatedOrderID)
}

func TestAdminAdjustCannotDriveStockNegative(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "3", true)

	_, err := svc.AdminAdjust(context.Background(), product.ID, decimal.RequireFromString("-5"))
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.True(t, decimal.RequireFromString("3").Equal(currentStock(t, db, product.ID)))
}

func TestAdminAdjustRejectsZero(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "3", true)

	_, err := svc.AdminAdjust(context.Background(), product.ID, decimal.Zero)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestAdminAdjustRollsBackWhenLedgerWriteFails(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "10", true)

	require.NoError(t, db.Exec("ALTER TABLE stock_transactions RENAME TO stock_transactions_hidden").Error)
	t.Cleanup(func() {
		db.Exec("ALTER TABLE stock_transactions_hidden RENAME TO stock_transactions")
	})

	_, err := svc.AdminAdjust(context.Background(), product.ID, decimal.RequireFromString("-4"))
	require.Error(t, err)

	// the guarded decrement must not survive the failed ledger append
	assert.True(t, decimal.RequireFromString("10").Equal(currentStock(t, db, product.ID)))

	require.NoError(t, db.Exec("ALTER TABLE stock_transactions_hidden RENAME TO stock_transactions").Error)
	txns, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

// The signed transaction log plus current stock must reconstruct the
// starting stock after any sequence of movements.
func TestAuditTrailReconcilesWithStock(t *testing.T) {
	db := setupStockTestDB(t)
	svc := newStockService(t, db)
	product := newProduct(t, db, "20", true)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, product.ID, decimal.RequireFromString("3"), uuid.New()))
	_, err := svc.AdminAdjust(ctx, product.ID, decimal.RequireFromString("7"))
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, product.ID, decimal.RequireFromString("10"), uuid.New()))
	require.NoError(t, svc.Restore(ctx, product.ID, decimal.RequireFromString("10"), uuid.New()))
	_, err = svc.AdminAdjust(ctx, product.ID, decimal.RequireFromString("-2"))
	require.NoError(t, err)

	txns, err := svc.History(ctx, product.ID)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.QuantityChange)
	}
	final := currentStock(t, db, product.ID)
	assert.True(t, decimal.RequireFromString("20").Equal(final.Sub(sum)),
		"initial stock must equal current stock minus signed changes")
}
