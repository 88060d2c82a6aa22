package journal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is a private journal note with a single mood emoji.
type Entry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Mood      string         `gorm:"size:16" json:"mood,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Entry) TableName() string {
	return "journal_entries"
}

type EntryRequest struct {
	Text string `json:"text"`
	Mood string `json:"mood"`
}
