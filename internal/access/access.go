package access

import (
	"slices"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Allow reports whether role may use a protected route declared for
// allowed. Guests are always refused. Admins are admitted to every
// protected route whatever it declares. An empty allowed list admits any
// signed-in role.
func Allow(role domain.Role, allowed ...domain.Role) bool {
	switch role {
	case domain.RoleGuest:
		return false
	case domain.RoleAdmin:
		return true
	case domain.RoleUser, domain.RoleSuperAdmin:
		return len(allowed) == 0 || slices.Contains(allowed, role)
	default:
		return false
	}
}

// CanManageCatalog reports whether role may create, edit or delete products.
func CanManageCatalog(role domain.Role) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return true
	case domain.RoleGuest, domain.RoleUser:
		return false
	default:
		return false
	}
}

// Links are the account pages offered to a role.
type Links struct {
	Profile   string `json:"profile,omitempty"`
	Dashboard string `json:"dashboard,omitempty"`
}

func Home(role domain.Role) Links {
	switch role {
	case domain.RoleUser:
		return Links{Profile: "/user/profile"}
	case domain.RoleAdmin:
		return Links{Profile: "/admin/profile", Dashboard: "/admin/dashboard"}
	case domain.RoleSuperAdmin:
		return Links{Profile: "/superadmin/profile", Dashboard: "/superadmin/dashboard"}
	case domain.RoleGuest:
		return Links{}
	default:
		return Links{}
	}
}
