package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/internal/identity"
	pkgauth "github.com/baladyapp/balady-backend/pkg/auth"
	"github.com/baladyapp/balady-backend/pkg/config"
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

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:userssvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
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
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM guests")
		db.Exec("DELETE FROM users")
	})
	return db
}

func fastPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newUsersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	identitySvc, err := identity.NewService(identity.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(db),
		testTxRunner{db: db},
		identitySvc,
		config.JWTConfig{Secret: "test-secret", Issuer: "balady-test", ExpirationMinutes: 15},
		fastPasswordConfig(),
	)
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FirstName: "Lina",
		LastName:  "Khalil",
		Phone:     "0599000001",
		Password:  "a-strong-password",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "a-strong-password", user.PasswordHash)
	assert.False(t, user.PhoneVerified)

	result, err := svc.Login(ctx, "0599000001", "a-strong-password")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	claims, err := pkgauth.ParseAccessToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "balady-test", ExpirationMinutes: 15},
		result.Token,
	)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = svc.Login(ctx, "0599000001", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		FirstName: "Lina", LastName: "Khalil", Phone: "0599000002", Password: "a-strong-password",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{
		FirstName: "Rana", LastName: "Odeh", Phone: "0599000002", Password: "another-password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterValidation(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "Lina", LastName: "Khalil", Phone: "0599000003", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Register(ctx, RegisterInput{Phone: "0599000003", Password: "a-strong-password"})
	require.Error(t, err)
}

// Scenario: a guest orders with a phone, then a user registers and
// verifies the same phone. The prior order must move to the user.
func TestVerifyPhoneAdoptsGuestOrders(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	phone := "0599000001"
	guest := &models.Guest{ID: uuid.New(), Phone: &phone}
	require.NoError(t, db.Create(guest).Error)

	order := &models.Order{
		ID:                 uuid.New(),
		GuestID:            &guest.ID,
		Status:             enums.OrderStatusCreated,
		TotalProductsPrice: decimal.RequireFromString("42.00"),
		ShippingFees:       decimal.RequireFromString("20.00"),
		FinalTotal:         decimal.RequireFromString("62.00"),
		ShippingFirstName:  "Huda",
		ShippingLastName:   "Odeh",
		ShippingCity:       "طولكرم",
		ShippingRegion:     "عتيل - عتيل",
		ShippingStreet:     "Main St 4",
		ShippingPhone:      phone,
	}
	require.NoError(t, db.Create(order).Error)

	user, err := svc.Register(ctx, RegisterInput{
		FirstName: "Huda", LastName: "Odeh", Phone: phone, Password: "a-strong-password",
	})
	require.NoError(t, err)

	result, err := svc.VerifyPhone(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, result.User.PhoneVerified)
	assert.EqualValues(t, 1, result.AdoptedOrders)

	var reloaded models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&reloaded).Error)
	require.NotNil(t, reloaded.UserID)
	assert.Equal(t, user.ID, *reloaded.UserID)
	assert.Nil(t, reloaded.GuestID)
}

func TestVerifyPhoneUnknownUser(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)

	_, err := svc.VerifyPhone(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
