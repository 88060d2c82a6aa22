package counter_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/features/counter"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*counter.Service, *gorm.DB, cache.Store) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AppSetting{}, &counter.RotationEntry{}))

	store := cache.NewMemoryStore()
	return counter.NewService(db, store), db, store
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	user := &models.User{ID: uuid.New(), DisplayName: name, Role: "user"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestStatusUsesThirtyDayMonths(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")

	// 95 days ago: 3 "months" of 30 days plus 5 days.
	start := time.Now().Add(-95 * 24 * time.Hour)
	require.NoError(t, db.Model(user).Update("start_date", start).Error)

	status, err := svc.Status(user.ID)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, 95, status.TotalDays)
	assert.Equal(t, 3, status.Months)
	assert.Equal(t, 5, status.Days)
}

func TestStatusWithoutStartDate(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")

	status, err := svc.Status(user.ID)
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Zero(t, status.TotalDays)
}

func TestResetClearsCelebratedBadges(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")
	ctx := context.Background()

	start := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, db.Model(user).Update("start_date", start).Error)

	require.NoError(t, svc.Celebrate(ctx, user.ID, "week_1"))

	badges, err := svc.Badges(ctx, user.ID)
	require.NoError(t, err)
	byKey := map[string]counter.BadgeStatus{}
	for _, b := range badges {
		byKey[b.Key] = b
	}
	assert.True(t, byKey["week_1"].Unlocked)
	assert.True(t, byKey["week_1"].Celebrated)
	assert.False(t, byKey["month_1"].Unlocked)

	status, err := svc.Reset(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, status.TotalDays)

	badges, err = svc.Badges(ctx, user.ID)
	require.NoError(t, err)
	for _, b := range badges {
		assert.False(t, b.Celebrated, b.Key)
		assert.False(t, b.Unlocked, b.Key)
	}
}

func TestCelebrateRejectsUnknownBadge(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")

	err := svc.Celebrate(context.Background(), user.ID, "decade_1")
	assert.ErrorIs(t, err, counter.ErrUnknownBadge)
}

func TestRotationAdvancesAndWraps(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")

	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		entry := counter.RotationEntry{ID: uuid.New(), Kind: counter.KindUrge, Position: i, Text: text}
		require.NoError(t, db.Create(&entry).Error)
	}

	// Five reads walk the list round-robin: 0,1,2,0,1.
	want := []string{"first", "second", "third", "first", "second"}
	for i, expected := range want {
		got, err := svc.Next(user.ID, counter.KindUrge)
		require.NoError(t, err)
		assert.Equal(t, expected, got.Text, "read %d", i)
		assert.Equal(t, i%len(texts), got.Index)
	}

	// Cursor is persisted and stays non-negative.
	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.Equal(t, 5, fresh.UrgeIndex)
	assert.GreaterOrEqual(t, fresh.EmergencyIndex, 0)
	assert.GreaterOrEqual(t, fresh.StoryIndex, 0)
}

func TestRotationFallbackWithoutContent(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")

	got, err := svc.Next(user.ID, counter.KindStory)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Text)

	// The cursor must not advance on fallback.
	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.Zero(t, fresh.StoryIndex)
}

func TestRotationRejectsUnknownKind(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, "Alice")

	_, err := svc.Next(user.ID, "mystery")
	assert.ErrorIs(t, err, counter.ErrInvalidKind)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	_, db, _ := newTestService(t)

	require.NoError(t, counter.SeedDefaults(db))
	var first int64
	db.Model(&counter.RotationEntry{}).Count(&first)
	assert.Positive(t, first)

	require.NoError(t, counter.SeedDefaults(db))
	var second int64
	db.Model(&counter.RotationEntry{}).Count(&second)
	assert.Equal(t, first, second)
}

func TestLeaderboardOrdersByLongestRun(t *testing.T) {
	svc, db, _ := newTestService(t)
	veteran := createUser(t, db, "Veteran")
	rookie := createUser(t, db, "Rookie")
	createUser(t, db, "NotStarted")

	require.NoError(t, db.Model(veteran).Update("start_date", time.Now().Add(-100*24*time.Hour)).Error)
	require.NoError(t, db.Model(rookie).Update("start_date", time.Now().Add(-2*24*time.Hour)).Error)

	entries, err := svc.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, veteran.ID, entries[0].UserID)
	assert.Equal(t, 100, entries[0].TotalDays)
	assert.Equal(t, rookie.ID, entries[1].UserID)
}
