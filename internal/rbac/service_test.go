package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	pkgredis "github.com/baladyapp/balady-backend/pkg/redis"
)

// fakeCache is an in-memory stand-in for the redis permission cache.
type fakeCache struct {
	values map[string]string
	sets   int
	gets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.gets++
	value, ok := c.values[key]
	if !ok {
		return "", pkgredis.ErrCacheMiss
	}
	return value, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	c.values[key] = value.(string)
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *fakeCache) PermissionCacheKey(userID string) string {
	return "balady:permissions:" + userID
}

func setupRBACTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:rbacsvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS roles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  permissions TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
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
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM users")
		db.Exec("DELETE FROM roles")
	})
	return db
}

func seedAdmin(t *testing.T, db *gorm.DB, roleID *uuid.UUID) uuid.UUID {
	t.Helper()

	user := models.User{
		FirstName:    "Omar",
		LastName:     "Admin",
		Phone:        "05990" + uuid.NewString()[:5],
		PasswordHash: "x",
		RoleID:       roleID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestRoleLifecycle(t *testing.T) {
	db := setupRBACTestDB(t)
	svc, err := NewService(NewRepository(db), nil, 0)
	require.NoError(t, err)

	role, err := svc.CreateRole(context.Background(), RoleInput{
		Name:        "fulfilment",
		Permissions: []enums.Permission{enums.PermissionManageOrders, enums.PermissionManageStock},
	})
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), RoleInput{Name: "fulfilment"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	updated, err := svc.UpdateRole(context.Background(), role.ID, RoleInput{
		Name:        "fulfilment",
		Permissions: []enums.Permission{enums.PermissionManageOrders},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Permissions, 1)

	list, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteRole(context.Background(), role.ID))
	err = svc.DeleteRole(context.Background(), role.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteRoleStillAssigned(t *testing.T) {
	db := setupRBACTestDB(t)
	svc, err := NewService(NewRepository(db), nil, 0)
	require.NoError(t, err)

	role, err := svc.CreateRole(context.Background(), RoleInput{
		Name:        "catalog",
		Permissions: []enums.Permission{enums.PermissionManageProducts},
	})
	require.NoError(t, err)
	seedAdmin(t, db, &role.ID)

	err = svc.DeleteRole(context.Background(), role.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCheckAllowsAndDenies(t *testing.T) {
	db := setupRBACTestDB(t)
	svc, err := NewService(NewRepository(db), nil, 0)
	require.NoError(t, err)

	role, err := svc.CreateRole(context.Background(), RoleInput{
		Name:        "moderator",
		Permissions: []enums.Permission{enums.PermissionManageReviews},
	})
	require.NoError(t, err)
	adminID := seedAdmin(t, db, &role.ID)
	customerID := seedAdmin(t, db, nil)

	require.NoError(t, svc.Check(context.Background(), adminID, enums.PermissionManageReviews))

	err = svc.Check(context.Background(), adminID, enums.PermissionManageRoles)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = svc.Check(context.Background(), customerID, enums.PermissionManageReviews)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestPermissionsAreCached(t *testing.T) {
	db := setupRBACTestDB(t)
	cache := newFakeCache()
	svc, err := NewService(NewRepository(db), cache, time.Minute)
	require.NoError(t, err)

	role, err := svc.CreateRole(context.Background(), RoleInput{
		Name:        "ops",
		Permissions: []enums.Permission{enums.PermissionManageOrders},
	})
	require.NoError(t, err)
	adminID := seedAdmin(t, db, &role.ID)

	require.NoError(t, svc.Check(context.Background(), adminID, enums.PermissionManageOrders))
	assert.Equal(t, 1, cache.sets)

	// Second check is served from the cache even if the row disappears.
	require.NoError(t, db.Exec("UPDATE users SET role_id = NULL WHERE id = ?", adminID).Error)
	require.NoError(t, svc.Check(context.Background(), adminID, enums.PermissionManageOrders))
	assert.Equal(t, 1, cache.sets)
}

func TestAssignRoleInvalidatesCache(t *testing.T) {
	db := setupRBACTestDB(t)
	cache := newFakeCache()
	svc, err := NewService(NewRepository(db), cache, time.Minute)
	require.NoError(t, err)

	ordersRole, err := svc.CreateRole(context.Background(), RoleInput{
		Name:        "orders-desk",
		Permissions: []enums.Permission{enums.PermissionManageOrders},
	})
	require.NoError(t, err)
	stockRole, err := svc.CreateRole(context.Background(), RoleInput{
		Name:        "stock-desk",
		Permissions: []enums.Permission{enums.PermissionManageStock},
	})
	require.NoError(t, err)
	adminID := seedAdmin(t, db, &ordersRole.ID)

	require.NoError(t, svc.Check(context.Background(), adminID, enums.PermissionManageOrders))

	require.NoError(t, svc.AssignRole(context.Background(), adminID, &stockRole.ID))

	require.NoError(t, svc.Check(context.Background(), adminID, enums.PermissionManageStock))
	err = svc.Check(context.Background(), adminID, enums.PermissionManageOrders)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = svc.AssignRole(context.Background(), adminID, func() *uuid.UUID { id := uuid.New(); return &id }())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
