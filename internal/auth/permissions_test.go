package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func TestPermissions_DefaultTable(t *testing.T) {
	perms, err := NewPermissions()
	require.NoError(t, err)

	tests := []struct {
		role domain.UserRole
		perm Permission
		want bool
	}{
		{domain.RoleAdmin, PermCloseTickets, true},
		{domain.RoleAdmin, PermManageUsers, true},
		{domain.RoleSubDirector, PermViewAllTickets, true},
		{domain.RoleSubDirector, PermUpdateTickets, false},
		{domain.RoleSubDirector, PermBlockProperties, true},
		{domain.RoleMaintenance, PermViewAllTickets, false},
		{domain.RoleMaintenance, PermUpdateTickets, true},
		{domain.RoleHousekeeper, PermViewAllTickets, true},
		{domain.RoleHousekeeper, PermCloseTickets, false},
		{domain.RoleReporter, PermCreateTickets, true},
		{domain.RoleReporter, PermManageUsers, false},
		{"stranger", PermCreateTickets, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, perms.Has(tt.role, tt.perm))
		})
	}
}

func TestPermissions_For(t *testing.T) {
	perms, err := NewPermissions()
	require.NoError(t, err)

	assert.Equal(t, []Permission{PermCreateTickets, PermUpdateTickets}, perms.For(domain.RoleMaintenance))
	assert.Len(t, perms.For(domain.RoleAdmin), 9)
}

func TestLoadPermissions_RejectsUnknownRole(t *testing.T) {
	_, err := LoadPermissions([]byte("roles:\n  janitor: [create_tickets]\n"))
	assert.Error(t, err)
}

func TestLoadPermissions_RejectsMalformedYAML(t *testing.T) {
	_, err := LoadPermissions([]byte("roles: ["))
	assert.Error(t, err)
}
