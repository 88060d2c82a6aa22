package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/dto"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/purepath/recovery-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newModerationService(t *testing.T) (*services.ModerationService, *gorm.DB, cache.Store) {
	db := setupTestDB(t)
	store := cache.NewMemoryStore()
	return services.NewModerationService(db, store), db, store
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	email := name + "@example.com"
	user := &models.User{
		ID:          uuid.New(),
		Email:       &email,
		DisplayName: name,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestFilterContent(t *testing.T) {
	svc, _, _ := newModerationService(t)

	tests := []struct {
		name   string
		text   string
		ok     bool
		reason string
	}{
		{"clean text", "day 30, feeling strong", true, ""},
		{"empty text", "", true, ""},
		{"banned word", "this is spam honestly", false, "inappropriate_language"},
		{"banned word is case insensitive", "SPAM", false, "inappropriate_language"},
		{"substring does not match", "grass and classic", true, ""},
		{"http link", "check http://evil.example/x", false, "url_not_allowed"},
		{"bare www link", "visit www.evil.example right now", false, "url_not_allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := svc.FilterContent(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestGetRejectionMessage(t *testing.T) {
	svc, _, _ := newModerationService(t)

	assert.Contains(t, svc.GetRejectionMessage("inappropriate_language"), "inappropriate language")
	assert.Contains(t, svc.GetRejectionMessage("url_not_allowed"), "not allowed")
	// Unknown reasons fall back to a generic message.
	assert.Contains(t, svc.GetRejectionMessage("something_else"), "content guidelines")
}

func TestBlockUnblockFlow(t *testing.T) {
	svc, db, _ := newModerationService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	err := svc.BlockUser(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, services.ErrSelfBlock)

	require.NoError(t, svc.BlockUser(ctx, alice.ID, bob.ID))

	err = svc.BlockUser(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyBlocked)

	ids, err := svc.GetBlockedIDs(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, bob.ID, ids[0])

	// Blocking is one-directional.
	ids, err = svc.GetBlockedIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, svc.UnblockUser(ctx, alice.ID, bob.ID))
	ids, err = svc.GetBlockedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetBlockedIDsServesFromCache(t *testing.T) {
	svc, db, _ := newModerationService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, svc.BlockUser(ctx, alice.ID, bob.ID))

	// First read warms the cache from the database.
	ids, err := svc.GetBlockedIDs(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	// Remove the row behind the service's back; the cached set still serves.
	require.NoError(t, db.Where("blocker_id = ?", alice.ID).Delete(&models.Block{}).Error)
	ids, err = svc.GetBlockedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestGetBlockedIDsCachesEmptySet(t *testing.T) {
	svc, db, store := newModerationService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	ids, err := svc.GetBlockedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// The sentinel member keeps the empty set cached, and never leaks out.
	members, err := store.SMembers(ctx, "blocked:"+alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"-"}, members)

	ids, err = svc.GetBlockedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListBlockedUsers(t *testing.T) {
	svc, db, _ := newModerationService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	require.NoError(t, svc.BlockUser(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.BlockUser(ctx, alice.ID, carol.ID))

	users, err := svc.ListBlockedUsers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = svc.ListBlockedUsers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestReportLifecycle(t *testing.T) {
	svc, db, _ := newModerationService(t)
	alice := seedUser(t, db, "alice")

	_, err := svc.CreateReport(alice.ID, &dto.CreateReportRequest{
		ContentType: "post",
		ContentID:   uuid.New().String(),
		Reason:      "off topic",
	})
	assert.Error(t, err)

	_, err = svc.CreateReport(alice.ID, &dto.CreateReportRequest{
		ContentType: "message",
		ContentID:   uuid.New().String(),
		Reason:      "   ",
	})
	assert.Error(t, err)

	report, err := svc.CreateReport(alice.ID, &dto.CreateReportRequest{
		ContentType: "message",
		ContentID:   uuid.New().String(),
		Reason:      "harassment",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", report.Status)

	reports, total, err := svc.ListReports("pending", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, reports, 1)

	err = svc.ActionReport(report.ID, &dto.ActionReportRequest{Status: "archived"})
	assert.Error(t, err)

	err = svc.ActionReport(uuid.New(), &dto.ActionReportRequest{Status: "dismissed"})
	assert.ErrorIs(t, err, services.ErrReportNotFound)

	require.NoError(t, svc.ActionReport(report.ID, &dto.ActionReportRequest{
		Status:    "actioned",
		AdminNote: "user muted",
	}))

	reports, total, err = svc.ListReports("pending", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, reports)
}

func TestSetMuted(t *testing.T) {
	svc, db, _ := newModerationService(t)
	alice := seedUser(t, db, "alice")

	require.NoError(t, svc.SetMuted(alice.ID, true))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", alice.ID).Error)
	assert.True(t, reloaded.IsMuted)

	require.NoError(t, svc.SetMuted(alice.ID, false))
	require.NoError(t, db.First(&reloaded, "id = ?", alice.ID).Error)
	assert.False(t, reloaded.IsMuted)

	err := svc.SetMuted(uuid.New(), true)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
