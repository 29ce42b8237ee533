package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/internal/identity"
	"github.com/baladyapp/balady-backend/internal/shipping"
	"github.com/baladyapp/balady-backend/internal/stock"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	"github.com/baladyapp/balady-backend/pkg/pagination"
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

var orderTestDDL = []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS stock_transactions (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  quantity_change NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  related_order_id TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT NOT NULL UNIQUE,
  phone_verified INTEGER NOT NULL DEFAULT 0,
  password_hash TEXT NOT NULL,
  role_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS guests (
  id TEXT PRIMARY KEY,
  phone TEXT,
  name TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  guest_id TEXT,
  status TEXT NOT NULL DEFAULT 'created',
  total_products_price NUMERIC NOT NULL,
  shipping_fees NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  final_total NUMERIC NOT NULL,
  shipping_first_name TEXT NOT NULL,
  shipping_last_name TEXT NOT NULL,
  shipping_city TEXT NOT NULL,
  shipping_region TEXT NOT NULL,
  shipping_street TEXT NOT NULL,
  shipping_phone TEXT NOT NULL,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  sale_type TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  price_at_purchase NUMERIC NOT NULL,
  cost_price_at_purchase NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  method TEXT NOT NULL DEFAULT 'cash_on_delivery',
  status TEXT NOT NULL DEFAULT 'pending',
  amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_status_histories (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  old_status TEXT,
  new_status TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  city TEXT NOT NULL,
  region TEXT NOT NULL,
  street TEXT NOT NULL,
  phone TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`}

var orderTestTables = []string{
	"cart_items", "carts", "addresses", "order_status_histories",
	"payments", "order_items", "orders", "guests", "users",
	"stock_transactions", "products",
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:orderssvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range orderTestDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}
	t.Cleanup(func() {
		for _, table := range orderTestTables {
			db.Exec("DELETE FROM " + table)
		}
	})
	return db
}

func newOrdersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	stockSvc, err := stock.NewService(stock.NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)
	identitySvc, err := identity.NewService(identity.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(db),
		testTxRunner{db: db},
		stockSvc,
		identitySvc,
		shipping.DefaultTable(),
		0,
	)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name, price, stockQty string) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		CostPrice:     decimal.RequireFromString(price),
		SaleType:      enums.SaleTypePiece,
		StockQuantity: decimal.RequireFromString(stockQty),
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedUser(t *testing.T, db *gorm.DB, phone string, verified bool) *models.User {
	t.Helper()

	user := &models.User{
		ID:            uuid.New(),
		FirstName:     "Lina",
		LastName:      "Khalil",
		Phone:         phone,
		PhoneVerified: verified,
		PasswordHash:  "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedGuest(t *testing.T, db *gorm.DB) *models.Guest {
	t.Helper()

	guest := &models.Guest{ID: uuid.New()}
	require.NoError(t, db.Create(guest).Error)
	return guest
}

func explicitAddress() *ShippingAddressInput {
	return &ShippingAddressInput{
		FirstName: "Lina",
		LastName:  "Khalil",
		City:      "طولكرم",
		Region:    "عتيل - عتيل",
		Street:    "Main St 4",
		Phone:     "0599000001",
	}
}

func paginationParams(limit int) pagination.Params {
	return pagination.Params{Limit: limit}
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()

	var product models.Product
	require.NoError(t, db.Where("id = ?", id).First(&product).Error)
	return product.StockQuantity
}
