package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/authz"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/purepath/recovery-backend/internal/services"
	"gorm.io/gorm"
)

var (
	ErrEmptyMessage    = errors.New("message text cannot be empty")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("you can only modify your own messages")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrInvalidEmoji    = errors.New("unsupported reaction emoji")
	ErrEditWithReply   = errors.New("editing and replying are mutually exclusive")
	ErrPeerNotFound    = errors.New("recipient not found")
	ErrRejected        = errors.New("message rejected")
)

type Service struct {
	db         *gorm.DB
	moderation *services.ModerationService
	feedLimit  int
}

func NewService(db *gorm.DB, moderation *services.ModerationService, feedLimit int) *Service {
	if feedLimit <= 0 {
		feedLimit = 50
	}
	return &Service{db: db, moderation: moderation, feedLimit: feedLimit}
}

func (s *Service) user(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, services.ErrUserNotFound
	}
	return &user, nil
}

// checkSendable trims the text and rejects muted authors and filtered content.
func (s *Service) checkSendable(user *models.User, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if user.IsMuted {
		return "", services.ErrMutedUser
	}
	if ok, reason := s.moderation.FilterContent(trimmed); !ok {
		return "", fmt.Errorf("%w: %s", ErrRejected, s.moderation.GetRejectionMessage(reason))
	}
	return trimmed, nil
}

// --- Public room ---

// ListPublic returns the capped public feed, newest first, with the viewer's
// blocked authors filtered out.
func (s *Service) ListPublic(ctx context.Context, viewerID uuid.UUID) ([]MessageResponse, error) {
	blocked, err := s.moderation.GetBlockedIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&Message{}).Order("created_at DESC").Limit(s.feedLimit)
	if len(blocked) > 0 {
		query = query.Where("author_id NOT IN ?", blocked)
	}

	var messages []Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return s.withReactions(messages)
}

func (s *Service) SendPublic(userID uuid.UUID, req *SendMessageRequest) (*Message, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	text, err := s.checkSendable(user, req.Text)
	if err != nil {
		return nil, err
	}

	msg := Message{
		ID:          uuid.New(),
		AuthorID:    user.ID,
		AuthorName:  user.DisplayName,
		AuthorPhoto: user.PhotoURL,
		Text:        text,
	}

	if req.ReplyToID != nil {
		var target Message
		if err := s.db.First(&target, "id = ?", *req.ReplyToID).Error; err != nil {
			return nil, ErrMessageNotFound
		}
		msg.ReplyToID = &target.ID
		msg.ReplyToText = snippet(target.Text)
		msg.ReplyToName = target.AuthorName
	}

	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) EditPublic(userID, messageID uuid.UUID, req *EditMessageRequest) (*Message, error) {
	if req.ReplyToID != nil {
		return nil, ErrEditWithReply
	}
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	// Edits pass the same mute and content gate as new messages.
	text, err := s.checkSendable(user, req.Text)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		return nil, ErrMessageNotFound
	}
	if msg.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	if err := s.db.Model(&msg).Update("text", text).Error; err != nil {
		return nil, err
	}
	msg.Text = text
	return &msg, nil
}

func (s *Service) DeletePublic(userID, messageID uuid.UUID) error {
	user, err := s.user(userID)
	if err != nil {
		return err
	}

	var msg Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		return ErrMessageNotFound
	}

	caps := authz.Resolve(user, authz.PublicScope())
	if msg.AuthorID != userID && !caps.CanDeleteAny {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		// A deleted message cannot stay pinned.
		if err := tx.Where("message_id = ?", messageID).Delete(&Pin{}).Error; err != nil {
			return err
		}
		return tx.Delete(&msg).Error
	})
}

// --- Reactions ---

// ToggleReaction adds the caller's emoji to the message, or removes it when
// already present. Works for public and private messages; private messages
// require the caller to be a participant.
func (s *Service) ToggleReaction(userID, messageID uuid.UUID, emoji string) (bool, error) {
	if !validEmoji(emoji) {
		return false, ErrInvalidEmoji
	}
	if err := s.messageVisible(userID, messageID); err != nil {
		return false, err
	}

	var existing Reaction
	err := s.db.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&existing).Error
	if err == nil {
		return false, s.db.Delete(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	reaction := Reaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}
	return true, s.db.Create(&reaction).Error
}

func (s *Service) messageVisible(userID, messageID uuid.UUID) error {
	var msg Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err == nil {
		return nil
	}
	var pm PrivateMessage
	if err := s.db.First(&pm, "id = ?", messageID).Error; err != nil {
		return ErrMessageNotFound
	}
	if pm.SenderID != userID && pm.RecipientID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) withReactions(messages []Message) ([]MessageResponse, error) {
	out := make([]MessageResponse, len(messages))
	if len(messages) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
		out[i] = MessageResponse{Message: m}
	}

	var reactions []Reaction
	if err := s.db.Where("message_id IN ?", ids).Order("created_at").Find(&reactions).Error; err != nil {
		return nil, err
	}

	byMessage := make(map[uuid.UUID]map[string][]string)
	for _, r := range reactions {
		if byMessage[r.MessageID] == nil {
			byMessage[r.MessageID] = make(map[string][]string)
		}
		byMessage[r.MessageID][r.Emoji] = append(byMessage[r.MessageID][r.Emoji], r.UserID.String())
	}
	for i := range out {
		out[i].Reactions = byMessage[out[i].ID]
	}
	return out, nil
}

// --- Pin ---

func (s *Service) GetPin() (*Pin, error) {
	var pin Pin
	err := s.db.First(&pin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

func (s *Service) PinMessage(userID, messageID uuid.UUID) (*Pin, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if !authz.Resolve(user, authz.PublicScope()).CanPin {
		return nil, ErrForbidden
	}

	var msg Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		return nil, ErrMessageNotFound
	}

	pin := Pin{
		ID:         1,
		MessageID:  msg.ID,
		Text:       msg.Text,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
	}
	if err := s.db.Save(&pin).Error; err != nil {
		return nil, err
	}
	return &pin, nil
}

func (s *Service) Unpin(userID uuid.UUID) error {
	user, err := s.user(userID)
	if err != nil {
		return err
	}
	if !authz.Resolve(user, authz.PublicScope()).CanPin {
		return ErrForbidden
	}
	return s.db.Where("id = 1").Delete(&Pin{}).Error
}

// --- Private conversations ---

func (s *Service) ListConversations(ownerID uuid.UUID) ([]Conversation, error) {
	var conversations []Conversation
	err := s.db.Where("owner_id = ?", ownerID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// SendPrivate inserts the message and rewrites both participants' summary
// rows in a single transaction, so an indexed-but-missing or
// visible-but-unindexed message cannot be observed.
func (s *Service) SendPrivate(senderID, recipientID uuid.UUID, text string) (*PrivateMessage, error) {
	sender, err := s.user(senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.user(recipientID)
	if err != nil {
		return nil, ErrPeerNotFound
	}
	trimmed, err := s.checkSendable(sender, text)
	if err != nil {
		return nil, err
	}

	msg := PrivateMessage{
		ID:          uuid.New(),
		PairKey:     PairKey(senderID, recipientID),
		SenderID:    senderID,
		RecipientID: recipientID,
		SenderName:  sender.DisplayName,
		SenderPhoto: sender.PhotoURL,
		Text:        trimmed,
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if err := upsertConversation(tx, senderID, recipient, now, false); err != nil {
			return err
		}
		return upsertConversation(tx, recipientID, sender, now, true)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func upsertConversation(tx *gorm.DB, ownerID uuid.UUID, peer *models.User, at time.Time, unread bool) error {
	var convo Conversation
	err := tx.Where("owner_id = ? AND peer_id = ?", ownerID, peer.ID).First(&convo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		convo = Conversation{
			ID:            uuid.New(),
			OwnerID:       ownerID,
			PeerID:        peer.ID,
			PeerName:      peer.DisplayName,
			PeerPhoto:     peer.PhotoURL,
			LastMessageAt: at,
			HasUnread:     unread,
		}
		return tx.Create(&convo).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&convo).Updates(map[string]interface{}{
		"peer_name":       peer.DisplayName,
		"peer_photo":      peer.PhotoURL,
		"last_message_at": at,
		"has_unread":      unread,
	}).Error
}

func (s *Service) ListPrivate(userID, peerID uuid.UUID) ([]MessageResponse, error) {
	var messages []PrivateMessage
	err := s.db.Where("pair_key = ?", PairKey(userID, peerID)).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return s.privateWithReactions(messages)
}

func (s *Service) privateWithReactions(messages []PrivateMessage) ([]MessageResponse, error) {
	converted := make([]Message, len(messages))
	for i, pm := range messages {
		converted[i] = Message{
			ID:          pm.ID,
			AuthorID:    pm.SenderID,
			AuthorName:  pm.SenderName,
			AuthorPhoto: pm.SenderPhoto,
			Text:        pm.Text,
			CreatedAt:   pm.CreatedAt,
			UpdatedAt:   pm.UpdatedAt,
		}
	}
	return s.withReactions(converted)
}

// OpenConversation clears the viewer's unread flag and marks the peer's
// messages read. Both writes are idempotent.
func (s *Service) OpenConversation(ownerID, peerID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Conversation{}).
			Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
			Update("has_unread", false).Error; err != nil {
			return err
		}
		return tx.Model(&PrivateMessage{}).
			Where("pair_key = ? AND sender_id = ? AND is_read = false", PairKey(ownerID, peerID), peerID).
			Update("is_read", true).Error
	})
}

func (s *Service) EditPrivate(userID, messageID uuid.UUID, text string) (*PrivateMessage, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	trimmed, err := s.checkSendable(user, text)
	if err != nil {
		return nil, err
	}

	var msg PrivateMessage
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return nil, ErrNotAuthor
	}

	if err := s.db.Model(&msg).Update("text", trimmed).Error; err != nil {
		return nil, err
	}
	msg.Text = trimmed
	return &msg, nil
}

func (s *Service) DeletePrivate(userID, messageID uuid.UUID) error {
	var msg PrivateMessage
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return ErrNotAuthor
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&msg).Error
	})
}

// DeleteConversation removes only the caller's summary row; the peer keeps
// theirs and the message history is untouched.
func (s *Service) DeleteConversation(ownerID, peerID uuid.UUID) error {
	return s.db.Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
		Delete(&Conversation{}).Error
}

// HasUnread reports whether any conversation of the user carries unread
// messages; drives the inbox badge.
func (s *Service) HasUnread(ownerID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&Conversation{}).
		Where("owner_id = ? AND has_unread = true", ownerID).
		Count(&count).Error
	return count > 0, err
}

func snippet(text string) string {
	const max = 120
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func validEmoji(emoji string) bool {
	for _, e := range ReactionEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}
