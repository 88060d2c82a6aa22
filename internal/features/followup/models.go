package followup

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusRelapse = "relapse"
	StatusSlipUp  = "slip_up"
	StatusSuccess = "success"
	// StatusAbsent is never stored; it is inferred for past days with no
	// row when listing a range.
	StatusAbsent = "absent"
)

// Log is one day's check-in, keyed by calendar date string.
type Log struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_followup_day,priority:1" json:"user_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_followup_day,priority:2" json:"date"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Log) TableName() string {
	return "followup_logs"
}

// --- DTOs ---

type LogRequest struct {
	Date   string `json:"date"` // "2006-01-02", defaults to today
	Status string `json:"status"`
}

type LogResponse struct {
	Log *Log `json:"log"`
	// ResetRequired signals a second slip-up in the current counter period;
	// the client must confirm before the counter restarts.
	ResetRequired bool `json:"reset_required"`
	// CounterReset reports that the counter was restarted by this log.
	CounterReset bool `json:"counter_reset"`
}

// DayStatus is one calendar day in a range listing, stored or inferred.
type DayStatus struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type StatsResponse struct {
	Period  map[string]int `json:"period"`
	AllTime map[string]int `json:"all_time"`
}
