package rbac

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/baladyapp/balady-backend/pkg/db"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// permissionCache is the slice of the redis client the permission check
// depends on. Cache failures degrade to a database read, never to a denial.
type permissionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PermissionCacheKey(userID string) string
}

// RoleInput carries the writable role fields.
type RoleInput struct {
	Name        string
	Permissions []enums.Permission
}

// Service manages roles and answers permission checks for admin routes.
type Service interface {
	PermissionsFor(ctx context.Context, userID uuid.UUID) ([]enums.Permission, error)
	Check(ctx context.Context, userID uuid.UUID, required enums.Permission) error
	Invalidate(ctx context.Context, userID uuid.UUID)

	CreateRole(ctx context.Context, in RoleInput) (*models.Role, error)
	UpdateRole(ctx context.Context, roleID uuid.UUID, in RoleInput) (*models.Role, error)
	DeleteRole(ctx context.Context, roleID uuid.UUID) error
	GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleID *uuid.UUID) error
}

type service struct {
	repo     Repository
	cache    permissionCache
	cacheTTL time.Duration
}

// NewService builds the RBAC service. The cache may be nil, in which case
// every check reads the database.
func NewService(repo Repository, cache permissionCache, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rbac repository required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &service{repo: repo, cache: cache, cacheTTL: cacheTTL}, nil
}

func (s *service) PermissionsFor(ctx context.Context, userID uuid.UUID) ([]enums.Permission, error) {
	if cached, ok := s.cachedPermissions(ctx, userID); ok {
		return cached, nil
	}

	role, err := s.repo.FindUserRole(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user role")
	}

	perms := make([]enums.Permission, 0)
	if role != nil {
		for _, raw := range role.Permissions {
			perm, err := enums.ParsePermission(raw)
			if err != nil {
				continue
			}
			perms = append(perms, perm)
		}
	}
	s.storePermissions(ctx, userID, perms)
	return perms, nil
}

func (s *service) Check(ctx context.Context, userID uuid.UUID, required enums.Permission) error {
	perms, err := s.PermissionsFor(ctx, userID)
	if err != nil {
		return err
	}
	for _, perm := range perms {
		if perm == required {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "missing required permission")
}

func (s *service) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cache.PermissionCacheKey(userID.String()))
}

func (s *service) cachedPermissions(ctx context.Context, userID uuid.UUID) ([]enums.Permission, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, s.cache.PermissionCacheKey(userID.String()))
	if err != nil {
		// A miss and a cache outage both fall through to the database read.
		return nil, false
	}
	if value == "" {
		return []enums.Permission{}, true
	}
	parts := strings.Split(value, ",")
	perms := make([]enums.Permission, 0, len(parts))
	for _, part := range parts {
		perm, err := enums.ParsePermission(part)
		if err != nil {
			continue
		}
		perms = append(perms, perm)
	}
	return perms, true
}

func (s *service) storePermissions(ctx context.Context, userID uuid.UUID, perms []enums.Permission) {
	if s.cache == nil {
		return
	}
	parts := make([]string, 0, len(perms))
	for _, perm := range perms {
		parts = append(parts, perm.String())
	}
	_ = s.cache.Set(ctx, s.cache.PermissionCacheKey(userID.String()), strings.Join(parts, ","), s.cacheTTL)
}

func validateRoleInput(in RoleInput) (pq.StringArray, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name is required")
	}
	perms := make(pq.StringArray, 0, len(in.Permissions))
	for _, perm := range in.Permissions {
		if !perm.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown permission %q", perm))
		}
		perms = append(perms, perm.String())
	}
	return perms, nil
}

func (s *service) CreateRole(ctx context.Context, in RoleInput) (*models.Role, error) {
	perms, err := validateRoleInput(in)
	if err != nil {
		return nil, err
	}
	role := &models.Role{Name: strings.TrimSpace(in.Name), Permissions: perms}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create role")
	}
	return role, nil
}

func (s *service) UpdateRole(ctx context.Context, roleID uuid.UUID, in RoleInput) (*models.Role, error) {
	perms, err := validateRoleInput(in)
	if err != nil {
		return nil, err
	}
	role, err := s.repo.FindRole(ctx, roleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
	}
	if role == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
	}
	role.Name = strings.TrimSpace(in.Name)
	role.Permissions = perms
	if err := s.repo.SaveRole(ctx, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save role")
	}
	// Changed permissions take effect for affected admins once their
	// cache entries expire or are invalidated on next assignment.
	return role, nil
}

func (s *service) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	assigned, err := s.repo.CountUsersWithRole(ctx, roleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count role assignments")
	}
	if assigned > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "role is still assigned to users")
	}
	deleted, err := s.repo.DeleteRole(ctx, roleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete role")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
	}
	return nil
}

func (s *service) GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	role, err := s.repo.FindRole(ctx, roleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
	}
	if role == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
	}
	return role, nil
}

func (s *service) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list roles")
	}
	return roles, nil
}

func (s *service) AssignRole(ctx context.Context, userID uuid.UUID, roleID *uuid.UUID) error {
	if roleID != nil {
		role, err := s.repo.FindRole(ctx, *roleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
		}
		if role == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
		}
	}
	updated, err := s.repo.AssignRole(ctx, userID, roleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign role")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.Invalidate(ctx, userID)
	return nil
}
