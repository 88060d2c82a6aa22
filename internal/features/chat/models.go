package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReactionEmojis is the fixed set of emojis a message can be reacted with.
var ReactionEmojis = []string{"❤️", "👍", "🥰", "😪", "😞", "💯"}

// Message is a public-room message. Author name and photo are denormalized
// at send time and never live-joined, so renames do not rewrite history.
type Message struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
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

// Reaction is one user's emoji on one message. Toggling inserts or deletes a
// row, so concurrent toggles from different users cannot clobber each other
// the way a read-modify-write reaction map can.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_reaction,priority:1" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_reaction,priority:2" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null;uniqueIndex:idx_chat_reaction,priority:3" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reaction) TableName() string {
	return "chat_reactions"
}

// Pin is the public room's single pinned-message slot: a denormalized
// snapshot, overwritten in place. Absence of the row means nothing pinned.
type Pin struct {
	ID         int        `gorm:"primaryKey" json:"-"`
	MessageID  uuid.UUID  `gorm:"type:uuid;not null" json:"message_id"`
	Text       string     `gorm:"type:text;not null" json:"text"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	AuthorName string     `gorm:"size:100;not null" json:"author_name"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Pin) TableName() string {
	return "chat_pins"
}

// PrivateMessage lives in a per-pair collection keyed by the sorted uid pair.
type PrivateMessage struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PairKey     string         `gorm:"size:80;not null;index" json:"-"`
	SenderID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID uuid.UUID      `gorm:"type:uuid;not null;index" json:"recipient_id"`
	SenderName  string         `gorm:"size:100;not null" json:"sender_name"`
	SenderPhoto string         `gorm:"type:text" json:"sender_photo,omitempty"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	IsRead      bool           `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Conversation is one user's summary row for one peer. Each participant owns
// an independent row, which is what allows asymmetric unread state.
type Conversation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"-"`
	PeerID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:2" json:"peer_id"`
	PeerName      string     `gorm:"size:100;not null" json:"peer_name"`
	PeerPhoto     string     `gorm:"type:text" json:"peer_photo,omitempty"`
	LastMessageAt time.Time  `gorm:"index" json:"last_message_at"`
	HasUnread     bool       `gorm:"default:false" json:"has_unread"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PairKey builds the canonical private-collection key for two users.
func PairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}

// --- DTOs ---

type SendMessageRequest struct {
	Text      string     `json:"text"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
}

type EditMessageRequest struct {
	Text      string     `json:"text"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

type PinRequest struct {
	MessageID uuid.UUID `json:"message_id"`
}

type SendPrivateRequest struct {
	Text string `json:"text"`
}

// MessageResponse is a Message plus its assembled reaction map
// (emoji -> reacting user ids, empty keys never present).
type MessageResponse struct {
	Message
	Reactions map[string][]string `json:"reactions,omitempty"`
}
