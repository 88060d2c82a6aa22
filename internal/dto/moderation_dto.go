package dto

import "github.com/google/uuid"

type CreateReportRequest struct {
	ContentType string `json:"content_type"` // "user" or "message"
	ContentID   string `json:"content_id"`
	Reason      string `json:"reason"`
}

type ActionReportRequest struct {
	Status    string `json:"status"` // reviewed, actioned, dismissed
	AdminNote string `json:"admin_note"`
}

type BlockRequest struct {
	BlockedID uuid.UUID `json:"blocked_id"`
}

type MuteRequest struct {
	Muted bool `json:"muted"`
}
