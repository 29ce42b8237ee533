package enums

import "fmt"

// Permission names an admin capability attached to a role.
type Permission string

const (
	PermissionManageProducts Permission = "manage_products"
	PermissionManageStock    Permission = "manage_stock"
	PermissionManageOrders   Permission = "manage_orders"
	PermissionManageReviews  Permission = "manage_reviews"
	PermissionManageRoles    Permission = "manage_roles"
	PermissionManageAdmins   Permission = "manage_admins"
)

var validPermissions = []Permission{
	PermissionManageProducts,
	PermissionManageStock,
	PermissionManageOrders,
	PermissionManageReviews,
	PermissionManageRoles,
	PermissionManageAdmins,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}

// AllPermissions returns every known permission, for role seeding.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}
