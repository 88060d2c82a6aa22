package groups

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypePublic  = "public"
	TypePrivate = "private"

	RoleOwner      = "owner"
	RoleSupervisor = "supervisor"
	RoleMember     = "member"

	StatusActive  = "active"
	StatusPending = "pending"
)

// Group carries the chat room metadata plus two denormalized slots: the
// last-message summary for list rendering and the single pinned message.
type Group struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	PhotoURL    string    `gorm:"type:text" json:"photo_url,omitempty"`
	Type        string    `gorm:"size:16;not null;default:'public'" json:"type"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	LastMessageText string     `gorm:"size:280" json:"last_message_text,omitempty"`
	LastMessageName string     `gorm:"size:100" json:"last_message_name,omitempty"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`

	PinnedMessageID *uuid.UUID `gorm:"type:uuid" json:"pinned_message_id,omitempty"`
	PinnedText      string     `gorm:"type:text" json:"pinned_text,omitempty"`
	PinnedName      string     `gorm:"size:100" json:"pinned_name,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Member is one user's relationship to one group. Pending rows are join
// requests awaiting owner review; active rows carry the role and the
// member's unread flag.
type Member struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member,priority:1" json:"group_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member,priority:2;index" json:"user_id"`
	Role        string    `gorm:"size:16;not null;default:'member'" json:"role"`
	Status      string    `gorm:"size:16;not null;default:'active'" json:"status"`
	HasUnread   bool      `gorm:"default:false" json:"has_unread"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	PhotoURL    string    `gorm:"type:text" json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Member) TableName() string {
	return "group_members"
}

type Message struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"group_id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName  string         `gorm:"size:100;not null" json:"author_name"`
	AuthorPhoto string         `gorm:"type:text" json:"author_photo,omitempty"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	ReplyToID   *uuid.UUID     `gorm:"type:uuid" json:"reply_to_id,omitempty"`
	ReplyToText string         `gorm:"size:280" json:"reply_to_text,omitempty"`
	ReplyToName string         `gorm:"size:100" json:"reply_to_name,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Message) TableName() string {
	return "group_messages"
}

type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_reaction,priority:1" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_reaction,priority:2" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null;uniqueIndex:idx_group_reaction,priority:3" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reaction) TableName() string {
	return "group_message_reactions"
}

// --- DTOs ---

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url"`
	Type        string `json:"type"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

type SendMessageRequest struct {
	Text      string     `json:"text"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
}

type EditMessageRequest struct {
	Text string `json:"text"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

type PinRequest struct {
	MessageID uuid.UUID `json:"message_id"`
}

type MemberActionRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// GroupSummary is a Group plus the viewer's relationship to it, for the
// group list screen.
type GroupSummary struct {
	Group
	MemberCount int64  `json:"member_count"`
	MyRole      string `json:"my_role,omitempty"`
	MyStatus    string `json:"my_status,omitempty"`
	HasUnread   bool   `json:"has_unread"`
}

type MessageResponse struct {
	Message
	Reactions map[string][]string `json:"reactions,omitempty"`
}
