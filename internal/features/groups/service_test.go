package groups_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/features/groups"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/purepath/recovery-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.Block{},
		&groups.Group{}, &groups.Member{}, &groups.Message{}, &groups.Reaction{},
	)
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T) (*groups.Service, *gorm.DB) {
	db := setupTestDB(t)
	moderation := services.NewModerationService(db, cache.NewMemoryStore())
	return groups.NewService(db, moderation, 50), db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	user := &models.User{ID: uuid.New(), DisplayName: name, Role: "user"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateMakesCallerOwner(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Night Owls"})
	require.NoError(t, err)
	assert.Equal(t, groups.TypePublic, group.Type)
	assert.Equal(t, owner.ID, group.OwnerID)

	var member groups.Member
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, owner.ID).First(&member).Error)
	assert.Equal(t, groups.RoleOwner, member.Role)
	assert.Equal(t, groups.StatusActive, member.Status)
}

func TestJoinPublicIsImmediate(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	joiner := createUser(t, db, "Joiner")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Open Circle"})
	require.NoError(t, err)

	member, err := svc.Join(joiner.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, groups.StatusActive, member.Status)

	_, err = svc.Join(joiner.ID, group.ID)
	assert.ErrorIs(t, err, groups.ErrAlreadyMember)
}

func TestPrivateJoinRequestFlow(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	alice := createUser(t, db, "Alice")
	bob := createUser(t, db, "Bob")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{
		Name: "Closed Circle", Type: groups.TypePrivate,
	})
	require.NoError(t, err)

	request, err := svc.Join(alice.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, groups.StatusPending, request.Status)

	// Pending members cannot read messages.
	_, err = svc.ListMessages(alice.ID, group.ID)
	assert.ErrorIs(t, err, groups.ErrNotMember)

	// A plain member cannot resolve requests.
	_, err = svc.Join(bob.ID, group.ID)
	require.NoError(t, err)
	err = svc.AcceptRequest(bob.ID, group.ID, alice.ID)
	assert.ErrorIs(t, err, groups.ErrForbidden)

	require.NoError(t, svc.AcceptRequest(owner.ID, group.ID, alice.ID))
	_, err = svc.ListMessages(alice.ID, group.ID)
	require.NoError(t, err)

	// Declining drops the request row.
	require.NoError(t, svc.DeclineRequest(owner.ID, group.ID, bob.ID))
	var count int64
	db.Model(&groups.Member{}).Where("group_id = ? AND user_id = ?", group.ID, bob.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestKickRemovesMembership(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	troublemaker := createUser(t, db, "Trouble")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	_, err = svc.Join(troublemaker.ID, group.ID)
	require.NoError(t, err)

	// Members cannot kick, and nobody kicks the owner.
	assert.ErrorIs(t, svc.Kick(troublemaker.ID, group.ID, owner.ID), groups.ErrForbidden)

	// Supervisors moderate messages only; kicking stays with the owner.
	helper := createUser(t, db, "Helper")
	_, err = svc.Join(helper.ID, group.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SetSupervisor(owner.ID, group.ID, helper.ID, true))
	assert.ErrorIs(t, svc.Kick(helper.ID, group.ID, troublemaker.ID), groups.ErrForbidden)

	require.NoError(t, svc.Kick(owner.ID, group.ID, troublemaker.ID))

	// The kicked user no longer satisfies the membership gate.
	_, err = svc.ListMessages(troublemaker.ID, group.ID)
	assert.ErrorIs(t, err, groups.ErrNotMember)
	_, err = svc.SendMessage(troublemaker.ID, group.ID, &groups.SendMessageRequest{Text: "hi"})
	assert.ErrorIs(t, err, groups.ErrNotMember)
}

func TestSupervisorPromotionGrantsModeration(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	helper := createUser(t, db, "Helper")
	member := createUser(t, db, "Member")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	_, err = svc.Join(helper.ID, group.ID)
	require.NoError(t, err)
	_, err = svc.Join(member.ID, group.ID)
	require.NoError(t, err)

	msg, err := svc.SendMessage(member.ID, group.ID, &groups.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)

	// Not yet a supervisor: cannot delete someone else's message.
	assert.ErrorIs(t, svc.DeleteMessage(helper.ID, group.ID, msg.ID), groups.ErrForbidden)

	require.NoError(t, svc.SetSupervisor(owner.ID, group.ID, helper.ID, true))
	require.NoError(t, svc.DeleteMessage(helper.ID, group.ID, msg.ID))

	// Demote back to member.
	require.NoError(t, svc.SetSupervisor(owner.ID, group.ID, helper.ID, false))
	var row groups.Member
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, helper.ID).First(&row).Error)
	assert.Equal(t, groups.RoleMember, row.Role)
}

func TestSendFlagsOtherMembersUnread(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	alice := createUser(t, db, "Alice")
	bob := createUser(t, db, "Bob")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	_, err = svc.Join(alice.ID, group.ID)
	require.NoError(t, err)
	_, err = svc.Join(bob.ID, group.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(alice.ID, group.ID, &groups.SendMessageRequest{Text: "made it to day 30"})
	require.NoError(t, err)

	var rows []groups.Member
	require.NoError(t, db.Where("group_id = ?", group.ID).Find(&rows).Error)
	for _, row := range rows {
		if row.UserID == alice.ID {
			assert.False(t, row.HasUnread, "sender must not be flagged")
		} else {
			assert.True(t, row.HasUnread)
		}
	}

	// The group summary was rewritten in the same transaction.
	var fresh groups.Group
	require.NoError(t, db.First(&fresh, "id = ?", group.ID).Error)
	assert.Equal(t, "made it to day 30", fresh.LastMessageText)
	assert.Equal(t, "Alice", fresh.LastMessageName)
	require.NotNil(t, fresh.LastMessageAt)

	// Opening clears only the viewer's flag, idempotently.
	require.NoError(t, svc.Open(bob.ID, group.ID))
	require.NoError(t, svc.Open(bob.ID, group.ID))
	var bobRow, ownerRow groups.Member
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, bob.ID).First(&bobRow).Error)
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, owner.ID).First(&ownerRow).Error)
	assert.False(t, bobRow.HasUnread)
	assert.True(t, ownerRow.HasUnread)
}

func TestGroupPinEmbeddedSlot(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	member := createUser(t, db, "Member")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	_, err = svc.Join(member.ID, group.ID)
	require.NoError(t, err)

	msg, err := svc.SendMessage(member.ID, group.ID, &groups.SendMessageRequest{Text: "welcome everyone"})
	require.NoError(t, err)

	_, err = svc.PinMessage(member.ID, group.ID, msg.ID)
	assert.ErrorIs(t, err, groups.ErrForbidden)

	pinned, err := svc.PinMessage(owner.ID, group.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, *pinned.PinnedMessageID)
	assert.Equal(t, "welcome everyone", pinned.PinnedText)

	// Deleting the pinned message clears the slot.
	require.NoError(t, svc.DeleteMessage(owner.ID, group.ID, msg.ID))
	var fresh groups.Group
	require.NoError(t, db.First(&fresh, "id = ?", group.ID).Error)
	assert.Nil(t, fresh.PinnedMessageID)
	assert.Empty(t, fresh.PinnedText)
}

func TestDeleteCascades(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	member := createUser(t, db, "Member")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	_, err = svc.Join(member.ID, group.ID)
	require.NoError(t, err)
	msg, err := svc.SendMessage(member.ID, group.ID, &groups.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	_, err = svc.ToggleReaction(owner.ID, group.ID, msg.ID, "👍")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(member.ID, group.ID), groups.ErrForbidden)
	require.NoError(t, svc.Delete(owner.ID, group.ID))

	for _, check := range []struct {
		name  string
		model interface{}
	}{
		{"members", &groups.Member{}},
		{"reactions", &groups.Reaction{}},
	} {
		var count int64
		db.Model(check.model).Count(&count)
		assert.EqualValues(t, 0, count, check.name)
	}

	var msgCount int64
	db.Model(&groups.Message{}).Count(&msgCount)
	assert.EqualValues(t, 0, msgCount)
}

func TestOwnerCannotLeave(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")
	member := createUser(t, db, "Member")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	_, err = svc.Join(member.ID, group.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Leave(owner.ID, group.ID), groups.ErrOwnerLeave)
	require.NoError(t, svc.Leave(member.ID, group.ID))
}

func TestEditEnforcesSendGate(t *testing.T) {
	svc, db := newTestService(t)
	owner := createUser(t, db, "Owner")

	group, err := svc.Create(owner.ID, &groups.CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)
	msg, err := svc.SendMessage(owner.ID, group.ID, &groups.SendMessageRequest{Text: "clean text"})
	require.NoError(t, err)

	// A link cannot be smuggled in through an edit.
	_, err = svc.EditMessage(owner.ID, group.ID, msg.ID, "visit https://scam.example")
	assert.ErrorIs(t, err, groups.ErrRejected)

	// Muted users cannot rewrite their old messages either.
	require.NoError(t, db.Model(owner).Update("is_muted", true).Error)
	_, err = svc.EditMessage(owner.ID, group.ID, msg.ID, "still here")
	assert.ErrorIs(t, err, services.ErrMutedUser)

	var reloaded groups.Message
	require.NoError(t, db.First(&reloaded, "id = ?", msg.ID).Error)
	assert.Equal(t, "clean text", reloaded.Text)
}
