package authz

import "github.com/purepath/recovery-backend/internal/models"

// Scope describes where an action takes place. The zero value means the
// public room.
type Scope struct {
	// GroupRole is the caller's membership role inside a group
	// ("owner", "supervisor", "member" or "" when not a member).
	// Leave empty outside group context.
	GroupRole string
	InGroup   bool
}

func PublicScope() Scope {
	return Scope{}
}

func GroupScope(role string) Scope {
	return Scope{InGroup: true, GroupRole: role}
}

// Capabilities is the full set of elevated actions a user may take in a
// scope. Every handler consults this instead of re-deriving role checks.
type Capabilities struct {
	CanPin           bool `json:"can_pin"`
	CanDeleteAny     bool `json:"can_delete_any"`
	CanKick          bool `json:"can_kick"`
	CanPromote       bool `json:"can_promote"`
	CanMute          bool `json:"can_mute"`
	CanManageContent bool `json:"can_manage_content"`
	CanBroadcast     bool `json:"can_broadcast"`
}

// Resolve maps a user's global role and group role onto concrete
// capabilities. Admins hold every capability everywhere; global supervisors
// moderate the public room; group owners and supervisors moderate their
// group, with member management reserved to owners.
func Resolve(user *models.User, scope Scope) Capabilities {
	if user == nil {
		return Capabilities{}
	}

	if user.IsAdmin() {
		return Capabilities{
			CanPin:           true,
			CanDeleteAny:     true,
			CanKick:          true,
			CanPromote:       true,
			CanMute:          true,
			CanManageContent: true,
			CanBroadcast:     true,
		}
	}

	var caps Capabilities

	if scope.InGroup {
		switch scope.GroupRole {
		case "owner":
			caps.CanPin = true
			caps.CanDeleteAny = true
			caps.CanKick = true
			caps.CanPromote = true
		case "supervisor":
			caps.CanPin = true
			caps.CanDeleteAny = true
		}
		return caps
	}

	if user.IsSupervisor() {
		caps.CanPin = true
		caps.CanDeleteAny = true
	}
	return caps
}
