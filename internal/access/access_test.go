package access

import (
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	const (
		guest = domain.RoleGuest
		user  = domain.RoleUser
		admin = domain.RoleAdmin
		super = domain.RoleSuperAdmin
	)
	tests := []struct {
		name    string
		role    domain.Role
		allowed []domain.Role
		want    bool
	}{
		{"guest never", guest, nil, false},
		{"guest even if listed", guest, []domain.Role{guest}, false},
		{"user on user route", user, []domain.Role{user}, true},
		{"user on superadmin route", user, []domain.Role{super}, false},
		{"superadmin on own route", super, []domain.Role{super}, true},
		{"superadmin on admin route", super, []domain.Role{admin}, false},
		{"admin on superadmin route", admin, []domain.Role{super}, true},
		{"admin on user route", admin, []domain.Role{user}, true},
		{"any signed in", user, nil, true},
		{"unknown role value", domain.Role(42), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allow(tt.role, tt.allowed...))
		})
	}
}

func TestCanManageCatalog(t *testing.T) {
	assert.False(t, CanManageCatalog(domain.RoleGuest))
	assert.False(t, CanManageCatalog(domain.RoleUser))
	assert.True(t, CanManageCatalog(domain.RoleAdmin))
	assert.True(t, CanManageCatalog(domain.RoleSuperAdmin))
}

func TestHome(t *testing.T) {
	assert.Equal(t, Links{}, Home(domain.RoleGuest))
	assert.Equal(t, "/user/profile", Home(domain.RoleUser).Profile)
	assert.Empty(t, Home(domain.RoleUser).Dashboard)
	assert.Equal(t, "/admin/dashboard", Home(domain.RoleAdmin).Dashboard)
	assert.Equal(t, "/superadmin/dashboard", Home(domain.RoleSuperAdmin).Dashboard)
}
