package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func principalWith(roles ...Role) Principal {
	return Principal{
		ID:     "user-1",
		Email:  "user@example.com",
		Status: StatusEnabled,
		Roles:  roles,
	}
}

func TestPrincipal_Permissions_FlattensRoles(t *testing.T) {
	p := principalWith(
		Role{Name: "User", Permissions: []Permission{{Name: "user:read"}, {Name: "user:update"}}},
		Role{Name: "Auditor", Permissions: []Permission{{Name: "user:read"}}},
	)

	perms := p.Permissions()

	assert.Len(t, perms, 2)
	assert.Contains(t, perms, "user:read")
	assert.Contains(t, perms, "user:update")
}

func TestPrincipal_HasPermissions(t *testing.T) {
	p := principalWith(
		Role{Name: "User", Permissions: []Permission{{Name: "user:read"}, {Name: "user:update"}}},
	)

	assert.True(t, p.HasPermissions("user:read"))
	assert.True(t, p.HasPermissions("user:read", "user:update"))
	assert.False(t, p.HasPermissions("user:delete"))
	assert.False(t, p.HasPermissions("user:read", "user:delete"))
	assert.True(t, p.HasPermissions())
}

func TestPrincipal_HasPermissions_NoRoles(t *testing.T) {
	p := principalWith()

	assert.Empty(t, p.Permissions())
	assert.False(t, p.HasPermissions("user:read"))
}

func TestPrincipal_IsEnabled(t *testing.T) {
	assert.True(t, Principal{Status: StatusEnabled}.IsEnabled())
	assert.False(t, Principal{Status: StatusLocked}.IsEnabled())
	assert.False(t, Principal{Status: StatusDisabled}.IsEnabled())
}
