package authz_test

import (
	"testing"

	"github.com/purepath/recovery-backend/internal/authz"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		user  *models.User
		scope authz.Scope
		want  authz.Capabilities
	}{
		{
			name:  "nil user has nothing",
			user:  nil,
			scope: authz.PublicScope(),
			want:  authz.Capabilities{},
		},
		{
			name:  "plain user in public room",
			user:  &models.User{Role: "user"},
			scope: authz.PublicScope(),
			want:  authz.Capabilities{},
		},
		{
			name:  "global supervisor moderates the public room",
			user:  &models.User{Role: "supervisor"},
			scope: authz.PublicScope(),
			want:  authz.Capabilities{CanPin: true, CanDeleteAny: true},
		},
		{
			name:  "global supervisor has no group power as plain member",
			user:  &models.User{Role: "supervisor"},
			scope: authz.GroupScope("member"),
			want:  authz.Capabilities{},
		},
		{
			name:  "group supervisor moderates messages but cannot manage members",
			user:  &models.User{Role: "user"},
			scope: authz.GroupScope("supervisor"),
			want:  authz.Capabilities{CanPin: true, CanDeleteAny: true},
		},
		{
			name:  "group owner also manages members",
			user:  &models.User{Role: "user"},
			scope: authz.GroupScope("owner"),
			want:  authz.Capabilities{CanPin: true, CanDeleteAny: true, CanKick: true, CanPromote: true},
		},
		{
			name:  "non-member in group scope",
			user:  &models.User{Role: "user"},
			scope: authz.GroupScope(""),
			want:  authz.Capabilities{},
		},
		{
			name:  "admin holds everything everywhere",
			user:  &models.User{Role: "admin"},
			scope: authz.GroupScope(""),
			want: authz.Capabilities{
				CanPin: true, CanDeleteAny: true, CanKick: true,
				CanPromote: true, CanMute: true, CanManageContent: true,
				CanBroadcast: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authz.Resolve(tt.user, tt.scope))
		})
	}
}
