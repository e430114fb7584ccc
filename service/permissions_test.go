package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIsAdmin_GuildOwnerAlwaysAllowed(t *testing.T) {
	svc, _, _ := newTestService()

	actor := AdminActor{UserID: 5, GuildOwnerID: 5}
	assert.True(t, svc.IsAdmin(1, actor))
}

func TestIsAdmin_ElevatedPermissionBits(t *testing.T) {
	svc, _, _ := newTestService()

	assert.True(t, svc.IsAdmin(1, AdminActor{UserID: 5, Permissions: discordgo.PermissionAdministrator}))
	assert.True(t, svc.IsAdmin(1, AdminActor{UserID: 5, Permissions: discordgo.PermissionManageGuild}))
	assert.False(t, svc.IsAdmin(1, AdminActor{UserID: 5, Permissions: discordgo.PermissionSendMessages, RoleIDs: []int64{1, 2}}))
}

func TestIsAdmin_GuildRoleMatch(t *testing.T) {
	svc, store, _ := newTestService()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	added, err := svc.AddAdminRole(context.Background(), 1, 42)
	require.NoError(t, err)
	require.True(t, added)

	assert.True(t, svc.IsAdmin(1, AdminActor{UserID: 5, RoleIDs: []int64{7, 42}}))
	assert.False(t, svc.IsAdmin(1, AdminActor{UserID: 5, RoleIDs: []int64{7}}))
}

func TestIsAdmin_FallsBackToConfiguredDefaultRoles(t *testing.T) {
	svc, _, _ := newTestService()

	// No guild state yet; role 900 comes from configuration
	assert.True(t, svc.IsAdmin(1, AdminActor{UserID: 5, RoleIDs: []int64{900}}))
	assert.False(t, svc.IsAdmin(1, AdminActor{UserID: 5, RoleIDs: []int64{901}}))
}
