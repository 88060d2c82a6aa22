package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the account plus its recovery profile. Guest accounts have a nil
// email and an empty password hash.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        *string        `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Password     string         `json:"-"`
	DisplayName  string         `gorm:"size:100;not null" json:"display_name"`
	PhotoURL     string         `gorm:"type:text" json:"photo_url,omitempty"`
	Role         string         `gorm:"size:20;default:'user'" json:"role"`
	IsGuest      bool           `gorm:"default:false" json:"is_guest"`
	IsMuted      bool           `gorm:"default:false" json:"is_muted"`
	Commitment   string         `gorm:"type:text" json:"commitment"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	// Round-robin cursors over the curated content lists.
	EmergencyIndex int          `gorm:"default:0" json:"emergency_index"`
	UrgeIndex      int          `gorm:"default:0" json:"urge_index"`
	StoryIndex     int          `gorm:"default:0" json:"story_index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

func (u *User) IsSupervisor() bool {
	return u.Role == "supervisor"
}
