package followup_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/features/counter"
	"github.com/purepath/recovery-backend/internal/features/followup"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func newTestService(t *testing.T) (*followup.Service, *gorm.DB, cache.Store) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &followup.Log{}))

	store := cache.NewMemoryStore()
	return followup.NewService(db, store), db, store
}

func createUser(t *testing.T, db *gorm.DB, startDaysAgo int) *models.User {
	user := &models.User{ID: uuid.New(), DisplayName: "Alice", Role: "user"}
	require.NoError(t, db.Create(user).Error)
	if startDaysAgo >= 0 {
		start := time.Now().Add(-time.Duration(startDaysAgo) * 24 * time.Hour)
		require.NoError(t, db.Model(user).Update("start_date", start).Error)
	}
	return user
}

func day(daysAgo int) string {
	return time.Now().AddDate(0, 0, -daysAgo).Format(dateLayout)
}

func TestRecordUpsertsByDate(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, 10)
	ctx := context.Background()

	resp, err := svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(1), Status: followup.StatusSuccess})
	require.NoError(t, err)
	assert.False(t, resp.ResetRequired)
	assert.False(t, resp.CounterReset)

	// Same date again overwrites instead of duplicating.
	resp, err = svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(1), Status: followup.StatusSlipUp})
	require.NoError(t, err)
	assert.Equal(t, followup.StatusSlipUp, resp.Log.Status)

	var count int64
	db.Model(&followup.Log{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRecordValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, 10)
	ctx := context.Background()

	_, err := svc.Record(ctx, user.ID, &followup.LogRequest{Status: "partying"})
	assert.ErrorIs(t, err, followup.ErrInvalidStatus)

	_, err = svc.Record(ctx, user.ID, &followup.LogRequest{Date: "01/02/2026", Status: followup.StatusSuccess})
	assert.ErrorIs(t, err, followup.ErrInvalidDate)

	future := time.Now().AddDate(0, 0, 2).Format(dateLayout)
	_, err = svc.Record(ctx, user.ID, &followup.LogRequest{Date: future, Status: followup.StatusSuccess})
	assert.ErrorIs(t, err, followup.ErrFutureDate)
}

func TestRelapseResetsImmediately(t *testing.T) {
	svc, db, store := newTestService(t)
	user := createUser(t, db, 30)
	ctx := context.Background()

	require.NoError(t, store.SAdd(ctx, "badges:"+user.ID.String(), "week_1"))

	resp, err := svc.Record(ctx, user.ID, &followup.LogRequest{Status: followup.StatusRelapse})
	require.NoError(t, err)
	assert.True(t, resp.CounterReset)

	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	require.NotNil(t, fresh.StartDate)
	assert.WithinDuration(t, time.Now(), *fresh.StartDate, 5*time.Second)

	members, err := store.SMembers(ctx, "badges:"+user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestSecondSlipUpRequiresConfirmation(t *testing.T) {
	svc, db, store := newTestService(t)
	user := createUser(t, db, 30)
	ctx := context.Background()

	resp, err := svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(3), Status: followup.StatusSlipUp})
	require.NoError(t, err)
	assert.False(t, resp.ResetRequired, "first slip-up passes without a reset")

	resp, err = svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(1), Status: followup.StatusSlipUp})
	require.NoError(t, err)
	assert.True(t, resp.ResetRequired)
	assert.False(t, resp.CounterReset, "reset waits for confirmation")

	// The counter is untouched until the user confirms.
	var before models.User
	require.NoError(t, db.First(&before, "id = ?", user.ID).Error)
	assert.True(t, time.Since(*before.StartDate) > 29*24*time.Hour)

	require.NoError(t, store.SAdd(ctx, "badges:"+user.ID.String(), "week_1"))
	require.NoError(t, svc.ConfirmReset(ctx, user.ID))

	var after models.User
	require.NoError(t, db.First(&after, "id = ?", user.ID).Error)
	assert.WithinDuration(t, time.Now(), *after.StartDate, 5*time.Second)

	members, err := store.SMembers(ctx, "badges:"+user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestSlipUpBeforeCounterPeriodDoesNotCount(t *testing.T) {
	svc, db, _ := newTestService(t)
	// Counter restarted two days ago; an old slip-up predates the period.
	user := createUser(t, db, 2)
	ctx := context.Background()

	old := followup.Log{ID: uuid.New(), UserID: user.ID, Date: day(10), Status: followup.StatusSlipUp}
	require.NoError(t, db.Create(&old).Error)

	resp, err := svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(1), Status: followup.StatusSlipUp})
	require.NoError(t, err)
	assert.False(t, resp.ResetRequired)
}

func TestRangeInfersAbsentDays(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, 10)
	ctx := context.Background()

	_, err := svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(5), Status: followup.StatusSuccess})
	require.NoError(t, err)
	_, err = svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(2), Status: followup.StatusSlipUp})
	require.NoError(t, err)

	days, err := svc.Range(user.ID, day(6), day(0))
	require.NoError(t, err)

	byDate := map[string]string{}
	for _, d := range days {
		byDate[d.Date] = d.Status
	}

	assert.Equal(t, followup.StatusSuccess, byDate[day(5)])
	assert.Equal(t, followup.StatusSlipUp, byDate[day(2)])
	// Gaps after the first log are absent; days before it are omitted.
	assert.Equal(t, followup.StatusAbsent, byDate[day(4)])
	assert.Equal(t, followup.StatusAbsent, byDate[day(3)])
	assert.Equal(t, followup.StatusAbsent, byDate[day(1)])
	_, hasEarlier := byDate[day(6)]
	assert.False(t, hasEarlier)
	// Today is never marked absent.
	_, hasToday := byDate[day(0)]
	assert.False(t, hasToday)
}

func TestRangeWithNoLogs(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, -1)

	days, err := svc.Range(user.ID, day(7), day(0))
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestStatsSplitPeriodAndAllTime(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := createUser(t, db, 4)
	ctx := context.Background()

	// Before the current period.
	old := followup.Log{ID: uuid.New(), UserID: user.ID, Date: day(20), Status: followup.StatusRelapse}
	require.NoError(t, db.Create(&old).Error)

	_, err := svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(2), Status: followup.StatusSuccess})
	require.NoError(t, err)
	_, err = svc.Record(ctx, user.ID, &followup.LogRequest{Date: day(1), Status: followup.StatusSuccess})
	require.NoError(t, err)

	stats, err := svc.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Period[followup.StatusSuccess])
	assert.Equal(t, 0, stats.Period[followup.StatusRelapse])
	assert.Equal(t, 2, stats.AllTime[followup.StatusSuccess])
	assert.Equal(t, 1, stats.AllTime[followup.StatusRelapse])
}

// Shared reset path used by both the counter and the follow-up flow.
func TestResetProgressSharedHelper(t *testing.T) {
	_, db, store := newTestService(t)
	user := createUser(t, db, 30)
	ctx := context.Background()

	require.NoError(t, store.SAdd(ctx, "badges:"+user.ID.String(), "month_1"))
	require.NoError(t, counter.ResetProgress(ctx, db, store, user.ID))

	members, err := store.SMembers(ctx, "badges:"+user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, members)
}
