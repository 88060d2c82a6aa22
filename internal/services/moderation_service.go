package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/dto"
	"github.com/purepath/recovery-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrAlreadyBlocked = errors.New("user already blocked")
	ErrSelfBlock      = errors.New("cannot block yourself")
	ErrMutedUser      = errors.New("your account is muted")
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"spam", "scam", "scammer", "phishing", "malware",
}

type ModerationService struct {
	db                *gorm.DB
	store             cache.Store
	bannedWordRegexps []*regexp.Regexp
	urlPattern        *regexp.Regexp
	compiled          bool
	mu                sync.RWMutex
}

func NewModerationService(db *gorm.DB, store cache.Store) *ModerationService {
	svc := &ModerationService{db: db, store: store}
	svc.compilePatterns()
	return svc
}

func (s *ModerationService) compilePatterns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compiled {
		return
	}

	s.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			s.bannedWordRegexps = append(s.bannedWordRegexps, re)
		}
	}

	s.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	s.compiled = true
}

// FilterContent rejects messages with banned words or links; recovery chat
// rooms are a frequent phishing target.
func (s *ModerationService) FilterContent(text string) (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if text == "" {
		return true, ""
	}
	for _, re := range s.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if s.urlPattern.MatchString(text) {
		return false, "url_not_allowed"
	}
	return true, ""
}

func (s *ModerationService) GetRejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language": "Your message contains inappropriate language.",
		"url_not_allowed":        "URLs and web links are not allowed.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your message does not meet our content guidelines."
}

func (s *ModerationService) CreateReport(reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	validTypes := map[string]bool{"user": true, "message": true}
	if !validTypes[req.ContentType] {
		return nil, errors.New("invalid content_type: must be user or message")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, errors.New("reason is required")
	}

	report := models.Report{
		ID:          uuid.New(),
		ReporterID:  reporterID,
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Reason:      req.Reason,
		Status:      "pending",
	}

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ModerationService) ListReports(status string, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := s.db.Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *ModerationService) ActionReport(reportID uuid.UUID, req *dto.ActionReportRequest) error {
	validStatuses := map[string]bool{"reviewed": true, "actioned": true, "dismissed": true}
	if !validStatuses[req.Status] {
		return errors.New("invalid status: must be reviewed, actioned, or dismissed")
	}

	result := s.db.Model(&models.Report{}).
		Where("id = ?", reportID).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"admin_note": req.AdminNote,
		})
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return result.Error
}

func (s *ModerationService) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	var existing models.Block
	if err := s.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).First(&existing).Error; err == nil {
		return ErrAlreadyBlocked
	}

	block := models.Block{
		ID:        uuid.New(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
	if err := s.db.Create(&block).Error; err != nil {
		return err
	}
	// Invalidate the cached blocked set; next read repopulates it.
	return s.store.Del(ctx, blockedSetKey(blockerID))
}

func (s *ModerationService) UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if err := s.db.
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error; err != nil {
		return err
	}
	return s.store.Del(ctx, blockedSetKey(blockerID))
}

// GetBlockedIDs returns the viewer's blocked set, served from the cache when
// warm. The set feeds the chat read path, which filters blocked authors out.
func (s *ModerationService) GetBlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	key := blockedSetKey(userID)

	if members, err := s.store.SMembers(ctx, key); err == nil && len(members) > 0 {
		ids := make([]uuid.UUID, 0, len(members))
		for _, m := range members {
			if m == "-" {
				continue
			}
			if id, err := uuid.Parse(m); err == nil {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	var blocks []models.Block
	if err := s.db.Where("blocker_id = ?", userID).Find(&blocks).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(blocks))
	// The sentinel member keeps empty sets representable, so a user with no
	// blocks still gets cache hits.
	members := []string{"-"}
	for i, b := range blocks {
		ids[i] = b.BlockedID
		members = append(members, b.BlockedID.String())
	}
	_ = s.store.SAdd(ctx, key, members...)

	return ids, nil
}

func (s *ModerationService) ListBlockedUsers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	ids, err := s.GetBlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SetMuted toggles the target's mute flag. Muted users cannot send messages
// in any chat scope; their existing messages stay visible.
func (s *ModerationService) SetMuted(targetID uuid.UUID, muted bool) error {
	result := s.db.Model(&models.User{}).Where("id = ?", targetID).
		Update("is_muted", muted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func blockedSetKey(userID uuid.UUID) string {
	return "blocked:" + userID.String()
}
