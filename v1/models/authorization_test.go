package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_HasPermission(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		permission Permission
		want       bool
	}{
		{
			name:       "Admin has DecideRequest",
			role:       RoleAdmin,
			permission: PermissionDecideRequest,
			want:       true,
		},
		{
			name:       "Member has CreateRequest",
			role:       RoleMember,
			permission: PermissionCreateRequest,
			want:       true,
		},
		{
			name:       "System has ReadAnalytics",
			role:       RoleSystem,
			permission: PermissionReadAnalytics,
			want:       true,
		},
		{
			name:       "Member does not have SendMessage",
			role:       RoleMember,
			permission: PermissionSendMessage,
			want:       false,
		},
		{
			name:       "System does not have DecideSignup",
			role:       RoleSystem,
			permission: PermissionDecideSignup,
			want:       false,
		},
		{
			name:       "Invalid role has no permissions",
			role:       Role("invalid"),
			permission: PermissionReadBusiness,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.HasPermission(tt.permission))
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{"Admin", RoleAdmin, true},
		{"Member", RoleMember, true},
		{"System", RoleSystem, true},
		{"Invalid", Role("invalid"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.IsValid())
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "HBA_Admin", RoleAdmin.String())
	assert.Equal(t, "HBA_Member", RoleMember.String())
}
