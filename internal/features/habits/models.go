package habits

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Habit tracks one recurring practice. Log is a sparse date-keyed map
// ("2006-01-02" -> true); absence of a key means not completed that day.
type Habit struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Icon      string         `gorm:"size:32" json:"icon,omitempty"`
	Log       datatypes.JSON `gorm:"type:jsonb" json:"log"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// --- DTOs ---

type CreateHabitRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type UpdateHabitRequest struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

type ToggleRequest struct {
	Date string `json:"date"` // "2006-01-02"
}

type StatsResponse struct {
	HabitID          uuid.UUID `json:"habit_id"`
	TotalCompletions int       `json:"total_completions"`
	CurrentStreak    int       `json:"current_streak"`
	// Rate30 is the completion rate over the trailing 30 days, 0..1.
	Rate30 float64 `json:"rate_30"`
}
