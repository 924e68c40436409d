package group

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrPermissionDenied indicates the acting user may not perform the
	// requested action. It is returned before any state mutation occurs.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotMember indicates the target user has no membership record.
	ErrNotMember = errors.New("user is not a group member")

	// ErrAlreadyMember indicates an add for an existing member.
	ErrAlreadyMember = errors.New("user is already a group member")

	// ErrEmptyName indicates group creation with an empty name.
	ErrEmptyName = errors.New("group name cannot be empty")

	// ErrSelfRemoval indicates an admin removing themselves through
	// RemoveMember; leaving is a separate operation.
	ErrSelfRemoval = errors.New("use Leave to remove yourself")
)

// Visibility controls who can discover and join a group.
type Visibility uint8

const (
	// VisibilityPublic means anyone with the group ID can join.
	VisibilityPublic Visibility = iota
	// VisibilityPrivate means joining requires an invite.
	VisibilityPrivate
)

// Role is a member's role within a group.
type Role uint8

const (
	// RoleMember is a regular group member.
	RoleMember Role = iota
	// RoleAdmin has full control over the group.
	RoleAdmin
)

// Scope restricts an activity to a subset of the membership.
type Scope uint8

const (
	// ScopeEveryone allows all members.
	ScopeEveryone Scope = iota
	// ScopeAdmins restricts the activity to admins.
	ScopeAdmins
)

// Action is a group operation subject to permission evaluation.
type Action uint8

const (
	// ActionSendMessage posts a text message to the group.
	ActionSendMessage Action = iota
	// ActionSendMedia posts image/voice/file content to the group.
	ActionSendMedia
	// ActionAddMember invites a user into the group.
	ActionAddMember
	// ActionRemoveMember removes another member from the group.
	ActionRemoveMember
	// ActionChangeSettings edits group settings.
	ActionChangeSettings
	// ActionDeleteGroup deletes the group.
	ActionDeleteGroup
)

// Settings are the per-group permission switches.
type Settings struct {
	MessagingPermissions Scope
	MediaPermissions     Scope
	AllowMemberInvites   bool
	RequireApproval      bool
}

// Member is a single membership record.
type Member struct {
	UserID    string
	Role      Role
	JoinedAt  time.Time
	InvitedBy string
}

// Group is a named multi-party chat with membership roles and settings.
// The admin set is derived from member roles, so it is always a subset of
// the membership: removing a member necessarily removes their admin role.
type Group struct {
	ID         string
	Name       string
	Visibility Visibility
	CreatorID  string
	Created    time.Time

	mu       sync.RWMutex
	members  map[string]*Member
	settings Settings
}

// New creates a group. The creator becomes the initial member and admin.
func New(name string, visibility Visibility, creatorID string) (*Group, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if creatorID == "" {
		return nil, errors.New("creator ID cannot be empty")
	}

	g := &Group{
		ID:         uuid.New().String(),
		Name:       name,
		Visibility: visibility,
		CreatorID:  creatorID,
		Created:    time.Now(),
		members:    make(map[string]*Member),
	}
	g.members[creatorID] = &Member{
		UserID:   creatorID,
		Role:     RoleAdmin,
		JoinedAt: g.Created,
	}

	logrus.WithFields(logrus.Fields{
		"function":   "New",
		"group_id":   g.ID,
		"name":       name,
		"visibility": visibility,
		"creator_id": creatorID,
	}).Info("Group created")

	return g, nil
}

// Member returns the membership record for a user.
func (g *Group) Member(userID string) (Member, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.members[userID]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// IsMember reports whether the user has a membership record.
func (g *Group) IsMember(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.members[userID]
	return ok
}

// IsAdmin reports whether the user is a member with the admin role.
func (g *Group) IsAdmin(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.members[userID]
	return ok && m.Role == RoleAdmin
}

// Members returns all membership records, sorted by join time.
func (g *Group) Members() []Member {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Member, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// Admins returns the user IDs holding the admin role. The set is derived
// from the membership, never stored separately.
func (g *Group) Admins() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0)
	for id, m := range g.members {
		if m.Role == RoleAdmin {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// MemberCount returns the number of members.
func (g *Group) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// Settings returns a copy of the group settings.
func (g *Group) Settings() Settings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// CanPerform evaluates whether the user may perform the action given their
// membership, role, and the group settings. A user with no membership record
// has no permissions at all.
func (g *Group) CanPerform(userID string, action Action) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canPerformLocked(userID, action)
}

func (g *Group) canPerformLocked(userID string, action Action) bool {
	m, ok := g.members[userID]
	if !ok {
		return false
	}
	isAdmin := m.Role == RoleAdmin

	switch action {
	case ActionSendMessage:
		return g.settings.MessagingPermissions == ScopeEveryone || isAdmin
	case ActionSendMedia:
		return g.settings.MediaPermissions == ScopeEveryone || isAdmin
	case ActionAddMember:
		// Admins may always invite regardless of the flag.
		return isAdmin || g.settings.AllowMemberInvites
	case ActionRemoveMember, ActionChangeSettings, ActionDeleteGroup:
		return isAdmin
	default:
		return false
	}
}

// AddMember adds a user as a regular member on behalf of the acting user.
func (g *Group) AddMember(actorID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPerformLocked(actorID, ActionAddMember) {
		return ErrPermissionDenied
	}
	if _, exists := g.members[userID]; exists {
		return ErrAlreadyMember
	}

	g.members[userID] = &Member{
		UserID:    userID,
		Role:      RoleMember,
		JoinedAt:  time.Now(),
		InvitedBy: actorID,
	}

	logrus.WithFields(logrus.Fields{
		"function": "AddMember",
		"group_id": g.ID,
		"user_id":  userID,
		"actor_id": actorID,
	}).Info("Member added to group")

	return nil
}

// RemoveMember removes another member on behalf of the acting admin.
// Removing a member also removes them from the derived admin set, since
// roles live on the membership record.
func (g *Group) RemoveMember(actorID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPerformLocked(actorID, ActionRemoveMember) {
		return ErrPermissionDenied
	}
	if actorID == userID {
		return ErrSelfRemoval
	}
	if _, exists := g.members[userID]; !exists {
		return ErrNotMember
	}

	delete(g.members, userID)

	logrus.WithFields(logrus.Fields{
		"function": "RemoveMember",
		"group_id": g.ID,
		"user_id":  userID,
		"actor_id": actorID,
	}).Info("Member removed from group")

	return nil
}

// Leave removes the calling user's own membership.
func (g *Group) Leave(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.members[userID]; !exists {
		return ErrNotMember
	}
	delete(g.members, userID)
	return nil
}

// PromoteToAdmin grants the admin role to an existing member.
func (g *Group) PromoteToAdmin(actorID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPerformLocked(actorID, ActionChangeSettings) {
		return ErrPermissionDenied
	}
	m, exists := g.members[userID]
	if !exists {
		return ErrNotMember
	}
	m.Role = RoleAdmin
	return nil
}

// DemoteAdmin revokes the admin role from a member. The creator cannot be
// demoted.
func (g *Group) DemoteAdmin(actorID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPerformLocked(actorID, ActionChangeSettings) {
		return ErrPermissionDenied
	}
	if userID == g.CreatorID {
		return ErrPermissionDenied
	}
	m, exists := g.members[userID]
	if !exists {
		return ErrNotMember
	}
	m.Role = RoleMember
	return nil
}

// UpdateSettings replaces the group settings on behalf of an admin.
func (g *Group) UpdateSettings(actorID string, settings Settings) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPerformLocked(actorID, ActionChangeSettings) {
		return ErrPermissionDenied
	}
	g.settings = settings

	logrus.WithFields(logrus.Fields{
		"function": "UpdateSettings",
		"group_id": g.ID,
		"actor_id": actorID,
	}).Info("Group settings updated")

	return nil
}
