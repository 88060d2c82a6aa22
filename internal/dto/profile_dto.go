package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
	Commitment  *string `json:"commitment"`
}

type ProfileResponse struct {
	ID             uuid.UUID  `json:"id"`
	DisplayName    string     `json:"display_name"`
	Email          string     `json:"email,omitempty"`
	PhotoURL       string     `json:"photo_url,omitempty"`
	Role           string     `json:"role"`
	IsGuest        bool       `json:"is_guest"`
	IsMuted        bool       `json:"is_muted"`
	Commitment     string     `json:"commitment"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EmergencyIndex int        `json:"emergency_index"`
	UrgeIndex      int        `json:"urge_index"`
	StoryIndex     int        `json:"story_index"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PublicProfileResponse is the peer-visible slice of a profile.
type PublicProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Role        string    `json:"role"`
	IsMuted     bool      `json:"is_muted"`
}

type SetRoleRequest struct {
	Role string `json:"role"` // "user" or "supervisor"
}

type SetCounterImageRequest struct {
	ImageURL string `json:"image_url"`
}
