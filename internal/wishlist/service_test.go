package wishlist

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

func setupWishlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:wishlistsvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
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
CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE(user_id, product_id)
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM wishlist_items")
		db.Exec("DELETE FROM products")
	})
	return db
}

func newWishlistService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), db)
	require.NoError(t, err)
	return svc
}

func seedWishlistProduct(t *testing.T, db *gorm.DB, name string, active bool) uuid.UUID {
	t.Helper()

	product := models.Product{
		Name:      name,
		Price:     decimal.RequireFromString("15.00"),
		CostPrice: decimal.RequireFromString("11.00"),
		SaleType:  enums.SaleTypePiece,
		IsActive:  active,
	}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Model(&product).Update("is_active", active).Error)
	return product.ID
}

func TestAddIsIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc := newWishlistService(t, db)
	userID := uuid.New()
	productID := seedWishlistProduct(t, db, "Carob Molasses", true)

	require.NoError(t, svc.Add(context.Background(), userID, productID))
	require.NoError(t, svc.Add(context.Background(), userID, productID))

	entries, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Carob Molasses", entries[0].Product.Name)
}

func TestAddRejectsUnknownOrInactive(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc := newWishlistService(t, db)
	userID := uuid.New()

	err := svc.Add(context.Background(), userID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	inactiveID := seedWishlistProduct(t, db, "Discontinued", false)
	err = svc.Add(context.Background(), userID, inactiveID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRemove(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc := newWishlistService(t, db)
	userID := uuid.New()
	productID := seedWishlistProduct(t, db, "Sumac", true)

	require.NoError(t, svc.Add(context.Background(), userID, productID))
	require.NoError(t, svc.Remove(context.Background(), userID, productID))

	err := svc.Remove(context.Background(), userID, productID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListIsPerUser(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc := newWishlistService(t, db)
	alice := uuid.New()
	basim := uuid.New()
	sharedID := seedWishlistProduct(t, db, "Shared Pick", true)
	aliceOnlyID := seedWishlistProduct(t, db, "Alice Only", true)

	require.NoError(t, svc.Add(context.Background(), alice, sharedID))
	require.NoError(t, svc.Add(context.Background(), alice, aliceOnlyID))
	require.NoError(t, svc.Add(context.Background(), basim, sharedID))

	aliceList, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, aliceList, 2)

	basimList, err := svc.List(context.Background(), basim)
	require.NoError(t, err)
	require.Len(t, basimList, 1)
	assert.Equal(t, sharedID, basimList[0].Item.ProductID)
}
