package counter

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindEmergency = "emergency"
	KindUrge      = "urge"
	KindStory     = "story"
)

// RotationEntry is one curated motivational text shown by the round-robin
// rotation. Entries are ordered by Position within a kind.
type RotationEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string    `gorm:"size:16;not null;index" json:"kind"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (RotationEntry) TableName() string {
	return "rotation_entries"
}

// Badge is one rung of the static milestone ladder.
type Badge struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Days int    `json:"days"`
}

// BadgeLadder is ordered by ascending threshold.
var BadgeLadder = []Badge{
	{Key: "day_1", Name: "First Day", Days: 1},
	{Key: "day_3", Name: "Three Days Strong", Days: 3},
	{Key: "week_1", Name: "One Week", Days: 7},
	{Key: "week_2", Name: "Two Weeks", Days: 14},
	{Key: "month_1", Name: "One Month", Days: 30},
	{Key: "month_3", Name: "Three Months", Days: 90},
	{Key: "month_6", Name: "Six Months", Days: 180},
	{Key: "year_1", Name: "One Year", Days: 365},
}

// --- DTOs ---

// StatusResponse reports elapsed time using a fixed 30-day month, matching
// how the counter has always been displayed.
type StatusResponse struct {
	Running   bool       `json:"running"`
	StartDate *time.Time `json:"start_date,omitempty"`
	Months    int        `json:"months"`
	Days      int        `json:"days"`
	Hours     int        `json:"hours"`
	Minutes   int        `json:"minutes"`
	Seconds   int        `json:"seconds"`
	TotalDays int        `json:"total_days"`
	Image     string     `json:"image,omitempty"`
}

type BadgeStatus struct {
	Badge
	Unlocked   bool `json:"unlocked"`
	Celebrated bool `json:"celebrated"`
}

type CelebrateRequest struct {
	Key string `json:"key"`
}

type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	TotalDays   int       `json:"total_days"`
}

type RotationResponse struct {
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Index int    `json:"index"`
}

type CreateEntryRequest struct {
	Kind     string `json:"kind"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}
