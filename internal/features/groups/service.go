package groups

import (
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
	ErrGroupNotFound   = errors.New("group not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMember       = errors.New("you are not a member of this group")
	ErrAlreadyMember   = errors.New("already a member of this group")
	ErrAlreadyPending  = errors.New("join request already pending")
	ErrNoPendingReq    = errors.New("no pending join request for this user")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrOwnerLeave      = errors.New("the owner cannot leave the group")
	ErrOwnerTarget     = errors.New("the owner cannot be targeted by this action")
	ErrNotAuthor       = errors.New("you can only modify your own messages")
	ErrEmptyMessage    = errors.New("message text cannot be empty")
	ErrInvalidEmoji    = errors.New("unsupported reaction emoji")
	ErrRejected        = errors.New("message rejected")
)

// ReactionEmojis mirrors the public room's fixed emoji set.
var ReactionEmojis = []string{"❤️", "👍", "🥰", "😪", "😞", "💯"}

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

func (s *Service) group(groupID uuid.UUID) (*Group, error) {
	var group Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, ErrGroupNotFound
	}
	return &group, nil
}

// membership returns the user's active member row, or ErrNotMember.
func (s *Service) membership(groupID, userID uuid.UUID) (*Member, error) {
	var member Member
	err := s.db.Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, StatusActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// capabilities resolves the caller's group-scope capabilities; a non-member
// admin still resolves with every capability.
func (s *Service) capabilities(groupID, userID uuid.UUID) (authz.Capabilities, error) {
	user, err := s.user(userID)
	if err != nil {
		return authz.Capabilities{}, err
	}
	role := ""
	if member, err := s.membership(groupID, userID); err == nil {
		role = member.Role
	}
	return authz.Resolve(user, authz.GroupScope(role)), nil
}

// --- Lifecycle ---

func (s *Service) Create(userID uuid.UUID, req *CreateGroupRequest) (*Group, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("group name cannot be empty")
	}
	groupType := req.Type
	if groupType != TypePrivate {
		groupType = TypePublic
	}

	group := Group{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		PhotoURL:    req.PhotoURL,
		Type:        groupType,
		OwnerID:     userID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		owner := Member{
			ID:          uuid.New(),
			GroupID:     group.ID,
			UserID:      userID,
			Role:        RoleOwner,
			Status:      StatusActive,
			DisplayName: user.DisplayName,
			PhotoURL:    user.PhotoURL,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns every public group plus the private groups the user belongs
// to, annotated with the viewer's role, request status and unread flag.
func (s *Service) List(userID uuid.UUID) ([]GroupSummary, error) {
	var mine []Member
	if err := s.db.Where("user_id = ?", userID).Find(&mine).Error; err != nil {
		return nil, err
	}

	byGroup := make(map[uuid.UUID]Member, len(mine))
	groupIDs := make([]uuid.UUID, 0, len(mine))
	for _, m := range mine {
		byGroup[m.GroupID] = m
		groupIDs = append(groupIDs, m.GroupID)
	}

	query := s.db.Model(&Group{}).Order("last_message_at DESC NULLS LAST, created_at DESC")
	if len(groupIDs) > 0 {
		query = query.Where("type = ? OR id IN ?", TypePublic, groupIDs)
	} else {
		query = query.Where("type = ?", TypePublic)
	}

	var list []Group
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(list))
	if len(list) > 0 {
		ids := make([]uuid.UUID, len(list))
		for i, g := range list {
			ids[i] = g.ID
		}
		var rows []struct {
			GroupID uuid.UUID
			Total   int64
		}
		if err := s.db.Model(&Member{}).
			Select("group_id, COUNT(*) AS total").
			Where("group_id IN ? AND status = ?", ids, StatusActive).
			Group("group_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			counts[r.GroupID] = r.Total
		}
	}

	out := make([]GroupSummary, len(list))
	for i, g := range list {
		summary := GroupSummary{Group: g, MemberCount: counts[g.ID]}
		if m, ok := byGroup[g.ID]; ok {
			summary.MyRole = m.Role
			summary.MyStatus = m.Status
			summary.HasUnread = m.HasUnread && m.Status == StatusActive
		}
		out[i] = summary
	}
	return out, nil
}

// Get returns the group with its active members, and for owners and
// admins the pending join requests as well.
func (s *Service) Get(userID, groupID uuid.UUID) (*Group, []Member, []Member, error) {
	group, err := s.group(groupID)
	if err != nil {
		return nil, nil, nil, err
	}

	var members []Member
	if err := s.db.Where("group_id = ? AND status = ?", groupID, StatusActive).
		Order("created_at").Find(&members).Error; err != nil {
		return nil, nil, nil, err
	}

	caps, err := s.capabilities(groupID, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	var pending []Member
	if caps.CanPromote {
		if err := s.db.Where("group_id = ? AND status = ?", groupID, StatusPending).
			Order("created_at").Find(&pending).Error; err != nil {
			return nil, nil, nil, err
		}
	}
	return group, members, pending, nil
}

func (s *Service) Update(userID, groupID uuid.UUID, req *UpdateGroupRequest) (*Group, error) {
	group, err := s.group(groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(group, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.New("group name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}
	if len(updates) == 0 {
		return group, nil
	}

	if err := s.db.Model(group).Updates(updates).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes the group and cascades its messages, reactions and
// membership rows in one transaction.
func (s *Service) Delete(userID, groupID uuid.UUID) error {
	group, err := s.group(groupID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(group, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN (?)",
			tx.Model(&Message{}).Select("id").Where("group_id = ?", groupID),
		).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&Member{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
}

func (s *Service) requireOwnerOrAdmin(group *Group, userID uuid.UUID) error {
	user, err := s.user(userID)
	if err != nil {
		return err
	}
	if group.OwnerID != userID && !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// --- Membership ---

// Join adds the caller to a public group immediately, or files a pending
// join request for a private one.
func (s *Service) Join(userID, groupID uuid.UUID) (*Member, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	group, err := s.group(groupID)
	if err != nil {
		return nil, err
	}

	var existing Member
	err = s.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&existing).Error
	if err == nil {
		if existing.Status == StatusActive {
			return nil, ErrAlreadyMember
		}
		return nil, ErrAlreadyPending
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status := StatusActive
	if group.Type == TypePrivate {
		status = StatusPending
	}
	member := Member{
		ID:          uuid.New(),
		GroupID:     groupID,
		UserID:      userID,
		Role:        RoleMember,
		Status:      status,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// Leave removes the caller's own row, whether active or pending. Owners
// must delete the group instead.
func (s *Service) Leave(userID, groupID uuid.UUID) error {
	var member Member
	err := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotMember
	}
	if err != nil {
		return err
	}
	if member.Role == RoleOwner {
		return ErrOwnerLeave
	}
	return s.db.Delete(&member).Error
}

func (s *Service) AcceptRequest(actorID, groupID, targetID uuid.UUID) error {
	caps, err := s.capabilities(groupID, actorID)
	if err != nil {
		return err
	}
	if !caps.CanPromote {
		return ErrForbidden
	}

	result := s.db.Model(&Member{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, targetID, StatusPending).
		Update("status", StatusActive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoPendingReq
	}
	return nil
}

func (s *Service) DeclineRequest(actorID, groupID, targetID uuid.UUID) error {
	caps, err := s.capabilities(groupID, actorID)
	if err != nil {
		return err
	}
	if !caps.CanPromote {
		return ErrForbidden
	}

	result := s.db.Where("group_id = ? AND user_id = ? AND status = ?", groupID, targetID, StatusPending).
		Delete(&Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoPendingReq
	}
	return nil
}

// Kick removes an active member. Owners cannot be kicked.
func (s *Service) Kick(actorID, groupID, targetID uuid.UUID) error {
	caps, err := s.capabilities(groupID, actorID)
	if err != nil {
		return err
	}
	if !caps.CanKick {
		return ErrForbidden
	}

	target, err := s.membership(groupID, targetID)
	if err != nil {
		return err
	}
	if target.Role == RoleOwner {
		return ErrOwnerTarget
	}
	return s.db.Delete(target).Error
}

// SetSupervisor toggles a member between supervisor and plain member.
func (s *Service) SetSupervisor(actorID, groupID, targetID uuid.UUID, promote bool) error {
	caps, err := s.capabilities(groupID, actorID)
	if err != nil {
		return err
	}
	if !caps.CanPromote {
		return ErrForbidden
	}

	target, err := s.membership(groupID, targetID)
	if err != nil {
		return err
	}
	if target.Role == RoleOwner {
		return ErrOwnerTarget
	}

	role := RoleMember
	if promote {
		role = RoleSupervisor
	}
	return s.db.Model(target).Update("role", role).Error
}

// --- Messages ---

// SendMessage inserts the message and, in the same transaction, rewrites
// the group's last-message summary and flags every other active member
// unread.
// checkSendable trims the text and rejects muted authors and filtered
// content. Applies to new messages and edits alike.
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

func (s *Service) SendMessage(userID, groupID uuid.UUID, req *SendMessageRequest) (*Message, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.membership(groupID, userID); err != nil {
		return nil, err
	}

	text, err := s.checkSendable(user, req.Text)
	if err != nil {
		return nil, err
	}

	msg := Message{
		ID:          uuid.New(),
		GroupID:     groupID,
		AuthorID:    userID,
		AuthorName:  user.DisplayName,
		AuthorPhoto: user.PhotoURL,
		Text:        text,
	}

	if req.ReplyToID != nil {
		var target Message
		err := s.db.Where("id = ? AND group_id = ?", *req.ReplyToID, groupID).First(&target).Error
		if err != nil {
			return nil, ErrMessageNotFound
		}
		msg.ReplyToID = &target.ID
		msg.ReplyToText = snippet(target.Text)
		msg.ReplyToName = target.AuthorName
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if err := tx.Model(&Group{}).Where("id = ?", groupID).Updates(map[string]interface{}{
			"last_message_text": snippet(text),
			"last_message_name": user.DisplayName,
			"last_message_at":   now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&Member{}).
			Where("group_id = ? AND user_id <> ? AND status = ?", groupID, userID, StatusActive).
			Update("has_unread", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns the latest messages, newest first, with assembled
// reaction maps. Reads are membership-gated.
func (s *Service) ListMessages(userID, groupID uuid.UUID) ([]MessageResponse, error) {
	if _, err := s.requireRead(groupID, userID); err != nil {
		return nil, err
	}

	var messages []Message
	err := s.db.Where("group_id = ?", groupID).
		Order("created_at DESC").Limit(s.feedLimit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return s.withReactions(messages)
}

// requireRead allows active members plus admins.
func (s *Service) requireRead(groupID, userID uuid.UUID) (*models.User, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	if _, err := s.membership(groupID, userID); err != nil {
		return nil, err
	}
	return user, nil
}

// Open clears the caller's unread flag. Idempotent.
func (s *Service) Open(userID, groupID uuid.UUID) error {
	return s.db.Model(&Member{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("has_unread", false).Error
}

func (s *Service) EditMessage(userID, groupID, messageID uuid.UUID, text string) (*Message, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	trimmed, err := s.checkSendable(user, text)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := s.db.Where("id = ? AND group_id = ?", messageID, groupID).First(&msg).Error; err != nil {
		return nil, ErrMessageNotFound
	}
	if msg.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	if err := s.db.Model(&msg).Update("text", trimmed).Error; err != nil {
		return nil, err
	}
	msg.Text = trimmed
	return &msg, nil
}

func (s *Service) DeleteMessage(userID, groupID, messageID uuid.UUID) error {
	var msg Message
	err := s.db.Where("id = ? AND group_id = ?", messageID, groupID).First(&msg).Error
	if err != nil {
		return ErrMessageNotFound
	}

	if msg.AuthorID != userID {
		caps, err := s.capabilities(groupID, userID)
		if err != nil {
			return err
		}
		if !caps.CanDeleteAny {
			return ErrForbidden
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		// Clear the pin slot if it pointed at this message.
		if err := tx.Model(&Group{}).
			Where("id = ? AND pinned_message_id = ?", groupID, messageID).
			Updates(map[string]interface{}{
				"pinned_message_id": nil,
				"pinned_text":       "",
				"pinned_name":       "",
			}).Error; err != nil {
			return err
		}
		return tx.Delete(&msg).Error
	})
}

func (s *Service) ToggleReaction(userID, groupID, messageID uuid.UUID, emoji string) (bool, error) {
	if !validEmoji(emoji) {
		return false, ErrInvalidEmoji
	}
	if _, err := s.requireRead(groupID, userID); err != nil {
		return false, err
	}

	var msg Message
	if err := s.db.Where("id = ? AND group_id = ?", messageID, groupID).First(&msg).Error; err != nil {
		return false, ErrMessageNotFound
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

func (s *Service) PinMessage(userID, groupID, messageID uuid.UUID) (*Group, error) {
	caps, err := s.capabilities(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !caps.CanPin {
		return nil, ErrForbidden
	}

	var msg Message
	if err := s.db.Where("id = ? AND group_id = ?", messageID, groupID).First(&msg).Error; err != nil {
		return nil, ErrMessageNotFound
	}

	group, err := s.group(groupID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(group).Updates(map[string]interface{}{
		"pinned_message_id": msg.ID,
		"pinned_text":       msg.Text,
		"pinned_name":       msg.AuthorName,
	}).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Service) Unpin(userID, groupID uuid.UUID) error {
	caps, err := s.capabilities(groupID, userID)
	if err != nil {
		return err
	}
	if !caps.CanPin {
		return ErrForbidden
	}

	return s.db.Model(&Group{}).Where("id = ?", groupID).Updates(map[string]interface{}{
		"pinned_message_id": nil,
		"pinned_text":       "",
		"pinned_name":       "",
	}).Error
}

func snippet(text string) string {
	const max = 120
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
