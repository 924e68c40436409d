package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroup(t *testing.T) *Group {
	t.Helper()
	g, err := New("Design Team", VisibilityPrivate, "creator")
	require.NoError(t, err)
	return g
}

func TestNewGroupCreatorIsAdmin(t *testing.T) {
	g := newTestGroup(t)

	assert.NotEmpty(t, g.ID)
	assert.True(t, g.IsMember("creator"))
	assert.True(t, g.IsAdmin("creator"))
	assert.Equal(t, 1, g.MemberCount())
	assert.Equal(t, []string{"creator"}, g.Admins())
}

func TestNewGroupValidation(t *testing.T) {
	_, err := New("", VisibilityPublic, "creator")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = New("Team", VisibilityPublic, "")
	assert.Error(t, err)
}

func TestNonMemberHasNoPermissions(t *testing.T) {
	g := newTestGroup(t)

	for _, action := range []Action{
		ActionSendMessage, ActionSendMedia, ActionAddMember,
		ActionRemoveMember, ActionChangeSettings, ActionDeleteGroup,
	} {
		assert.False(t, g.CanPerform("stranger", action), "action %d", action)
	}
}

func TestDefaultSettingsEveryoneCanPost(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))

	assert.True(t, g.CanPerform("member", ActionSendMessage))
	assert.True(t, g.CanPerform("member", ActionSendMedia))
	assert.False(t, g.CanPerform("member", ActionRemoveMember))
	assert.False(t, g.CanPerform("member", ActionChangeSettings))
	assert.False(t, g.CanPerform("member", ActionDeleteGroup))
}

func TestAdminsOnlyMessaging(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))
	require.NoError(t, g.UpdateSettings("creator", Settings{
		MessagingPermissions: ScopeAdmins,
		MediaPermissions:     ScopeAdmins,
	}))

	assert.False(t, g.CanPerform("member", ActionSendMessage))
	assert.False(t, g.CanPerform("member", ActionSendMedia))
	assert.True(t, g.CanPerform("creator", ActionSendMessage))
	assert.True(t, g.CanPerform("creator", ActionSendMedia))

	// Promotion flips the answer without touching settings.
	require.NoError(t, g.PromoteToAdmin("creator", "member"))
	assert.True(t, g.CanPerform("member", ActionSendMessage))
}

func TestMemberInvitesFlag(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))

	assert.False(t, g.CanPerform("member", ActionAddMember))
	assert.ErrorIs(t, g.AddMember("member", "friend"), ErrPermissionDenied)

	require.NoError(t, g.UpdateSettings("creator", Settings{AllowMemberInvites: true}))
	assert.True(t, g.CanPerform("member", ActionAddMember))
	require.NoError(t, g.AddMember("member", "friend"))

	rec, ok := g.Member("friend")
	require.True(t, ok)
	assert.Equal(t, "member", rec.InvitedBy)
	assert.Equal(t, RoleMember, rec.Role)
}

func TestAddMemberDuplicate(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))
	assert.ErrorIs(t, g.AddMember("creator", "member"), ErrAlreadyMember)
}

func TestRemoveMember(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))

	// Regular members cannot remove anyone.
	assert.ErrorIs(t, g.RemoveMember("member", "creator"), ErrPermissionDenied)

	require.NoError(t, g.RemoveMember("creator", "member"))
	assert.False(t, g.IsMember("member"))

	assert.ErrorIs(t, g.RemoveMember("creator", "member"), ErrNotMember)
	assert.ErrorIs(t, g.RemoveMember("creator", "creator"), ErrSelfRemoval)
}

func TestRemoveAdminShrinksAdminSet(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "other"))
	require.NoError(t, g.PromoteToAdmin("creator", "other"))
	require.Len(t, g.Admins(), 2)

	require.NoError(t, g.RemoveMember("creator", "other"))
	assert.Equal(t, []string{"creator"}, g.Admins(), "admin set is derived from membership")
}

func TestLeave(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))

	require.NoError(t, g.Leave("member"))
	assert.False(t, g.IsMember("member"))
	assert.ErrorIs(t, g.Leave("member"), ErrNotMember)
}

func TestDemoteAdmin(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "other"))
	require.NoError(t, g.PromoteToAdmin("creator", "other"))

	require.NoError(t, g.DemoteAdmin("creator", "other"))
	assert.False(t, g.IsAdmin("other"))
	assert.True(t, g.IsMember("other"))

	// The creator keeps the admin role.
	assert.ErrorIs(t, g.DemoteAdmin("other", "creator"), ErrPermissionDenied)
	require.NoError(t, g.PromoteToAdmin("creator", "other"))
	assert.ErrorIs(t, g.DemoteAdmin("other", "creator"), ErrPermissionDenied)
}

func TestPromoteNonMember(t *testing.T) {
	g := newTestGroup(t)
	assert.ErrorIs(t, g.PromoteToAdmin("creator", "stranger"), ErrNotMember)
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "member"))

	err := g.UpdateSettings("member", Settings{MessagingPermissions: ScopeAdmins})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, ScopeEveryone, g.Settings().MessagingPermissions, "denied update must not mutate state")
}

func TestMembersSortedByJoinTime(t *testing.T) {
	g := newTestGroup(t)
	require.NoError(t, g.AddMember("creator", "b"))
	require.NoError(t, g.AddMember("creator", "a"))

	members := g.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "creator", members[0].UserID)
}
