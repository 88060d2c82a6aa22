package habits_test

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/features/habits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func newTestService(t *testing.T) (*habits.Service, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&habits.Habit{}))
	return habits.NewService(db), uuid.New()
}

func TestCreateAndList(t *testing.T) {
	svc, userID := newTestService(t)

	_, err := svc.Create(userID, &habits.CreateHabitRequest{Name: "  "})
	assert.Error(t, err)

	created, err := svc.Create(userID, &habits.CreateHabitRequest{Name: "Morning walk", Icon: "🚶"})
	require.NoError(t, err)
	assert.Equal(t, "Morning walk", created.Name)

	list, err := svc.List(userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Another user sees nothing.
	other, err := svc.List(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestToggleIsSparse(t *testing.T) {
	svc, userID := newTestService(t)
	habit, err := svc.Create(userID, &habits.CreateHabitRequest{Name: "Meditate"})
	require.NoError(t, err)

	today := time.Now().Format(dateLayout)

	toggled, err := svc.Toggle(userID, habit.ID, today)
	require.NoError(t, err)
	assert.Contains(t, string(toggled.Log), today)

	// Toggling off removes the key rather than storing false.
	toggled, err = svc.Toggle(userID, habit.ID, today)
	require.NoError(t, err)
	assert.NotContains(t, string(toggled.Log), today)

	_, err = svc.Toggle(userID, habit.ID, "not-a-date")
	assert.ErrorIs(t, err, habits.ErrInvalidDate)

	_, err = svc.Toggle(uuid.New(), habit.ID, today)
	assert.ErrorIs(t, err, habits.ErrHabitNotFound)
}

func TestStatsStreakAndRate(t *testing.T) {
	svc, userID := newTestService(t)
	habit, err := svc.Create(userID, &habits.CreateHabitRequest{Name: "Journal"})
	require.NoError(t, err)

	// Completed yesterday and the day before; today not yet logged.
	for _, daysAgo := range []int{1, 2, 5} {
		date := time.Now().AddDate(0, 0, -daysAgo).Format(dateLayout)
		_, err := svc.Toggle(userID, habit.ID, date)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(userID, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCompletions)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.InDelta(t, 3.0/30.0, stats.Rate30, 0.001)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, userID := newTestService(t)
	habit, err := svc.Create(userID, &habits.CreateHabitRequest{Name: "Read"})
	require.NoError(t, err)

	name := "Read 10 pages"
	updated, err := svc.Update(userID, habit.ID, &habits.UpdateHabitRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	require.NoError(t, svc.Delete(userID, habit.ID))
	_, err = svc.Stats(userID, habit.ID)
	assert.ErrorIs(t, err, habits.ErrHabitNotFound)
}
