package counter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/purepath/recovery-backend/internal/services"
	"gorm.io/gorm"
)

var (
	ErrCounterNotRunning = errors.New("counter has not been started")
	ErrInvalidKind       = errors.New("unknown content kind")
	ErrUnknownBadge      = errors.New("unknown badge")
	ErrEntryNotFound     = errors.New("content entry not found")
)

// rotation fallback shown when a kind has no curated entries.
var fallbackText = map[string]string{
	KindEmergency: "Breathe. This moment will pass. You have come too far to give up now.",
	KindUrge:      "An urge is a wave: it rises, peaks, and always falls. Ride it out.",
	KindStory:     "Every recovery story starts with a single day. Yours is being written right now.",
}

var cursorColumn = map[string]string{
	KindEmergency: "emergency_index",
	KindUrge:      "urge_index",
	KindStory:     "story_index",
}

type Service struct {
	db    *gorm.DB
	store cache.Store
}

func NewService(db *gorm.DB, store cache.Store) *Service {
	return &Service{db: db, store: store}
}

func badgeKey(userID uuid.UUID) string {
	return "badges:" + userID.String()
}

func (s *Service) user(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, services.ErrUserNotFound
	}
	return &user, nil
}

// --- Counter ---

func (s *Service) Start(userID uuid.UUID) (*StatusResponse, error) {
	now := time.Now()
	err := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("start_date", now).Error
	if err != nil {
		return nil, err
	}
	return s.Status(userID)
}

// Reset restarts the counter at now and forgets the celebrated badges, so
// milestones get announced again on the next run.
func (s *Service) Reset(ctx context.Context, userID uuid.UUID) (*StatusResponse, error) {
	if err := ResetProgress(ctx, s.db, s.store, userID); err != nil {
		return nil, err
	}
	return s.Status(userID)
}

// ResetProgress is the shared reset path: it stamps a fresh start date and
// drops the user's celebrated-badge markers. The daily follow-up flow calls
// it too, when a relapse or a confirmed second slip-up forces a restart.
func ResetProgress(ctx context.Context, db *gorm.DB, store cache.Store, userID uuid.UUID) error {
	err := db.Model(&models.User{}).Where("id = ?", userID).
		Update("start_date", time.Now()).Error
	if err != nil {
		return err
	}
	return store.Del(ctx, badgeKey(userID))
}

// Status breaks the elapsed time down using a fixed 30-day month.
func (s *Service) Status(userID uuid.UUID) (*StatusResponse, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{}

	var image models.AppSetting
	if err := s.db.Where("key = ?", models.SettingCounterImage).First(&image).Error; err == nil {
		resp.Image = image.Value
	}

	if user.StartDate == nil {
		return resp, nil
	}

	elapsed := time.Since(*user.StartDate)
	if elapsed < 0 {
		elapsed = 0
	}

	totalSeconds := int(elapsed.Seconds())
	totalDays := totalSeconds / 86400

	resp.Running = true
	resp.StartDate = user.StartDate
	resp.TotalDays = totalDays
	resp.Months = totalDays / 30
	resp.Days = totalDays % 30
	resp.Hours = (totalSeconds % 86400) / 3600
	resp.Minutes = (totalSeconds % 3600) / 60
	resp.Seconds = totalSeconds % 60
	return resp, nil
}

// --- Badges ---

// Badges returns the full ladder annotated with unlock state and whether
// each unlocked badge has already been celebrated on this run.
func (s *Service) Badges(ctx context.Context, userID uuid.UUID) ([]BadgeStatus, error) {
	status, err := s.Status(userID)
	if err != nil {
		return nil, err
	}

	celebrated, err := s.store.SMembers(ctx, badgeKey(userID))
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}
	seen := make(map[string]bool, len(celebrated))
	for _, key := range celebrated {
		seen[key] = true
	}

	out := make([]BadgeStatus, len(BadgeLadder))
	for i, badge := range BadgeLadder {
		out[i] = BadgeStatus{
			Badge:      badge,
			Unlocked:   status.Running && status.TotalDays >= badge.Days,
			Celebrated: seen[badge.Key],
		}
	}
	return out, nil
}

// Celebrate marks a badge as announced so the client celebrates it once.
func (s *Service) Celebrate(ctx context.Context, userID uuid.UUID, key string) error {
	for _, badge := range BadgeLadder {
		if badge.Key == key {
			return s.store.SAdd(ctx, badgeKey(userID), key)
		}
	}
	return ErrUnknownBadge
}

// --- Leaderboard ---

// Leaderboard lists the longest-running counters. Guests participate under
// their visitor names.
func (s *Service) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var users []models.User
	err := s.db.Where("start_date IS NOT NULL").
		Order("start_date ASC").Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		days := int(now.Sub(*u.StartDate).Hours() / 24)
		if days < 0 {
			days = 0
		}
		out[i] = LeaderboardEntry{
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
			TotalDays:   days,
		}
	}
	return out, nil
}

// --- Content rotation ---

// Next returns the entry at the user's cursor for the kind and advances the
// cursor by one. With no curated entries it returns the fallback text and
// leaves the cursor untouched.
func (s *Service) Next(userID uuid.UUID, kind string) (*RotationResponse, error) {
	column, ok := cursorColumn[kind]
	if !ok {
		return nil, ErrInvalidKind
	}

	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	var entries []RotationEntry
	err = s.db.Where("kind = ?", kind).
		Order("position ASC, created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return &RotationResponse{Kind: kind, Text: fallbackText[kind]}, nil
	}

	cursor := 0
	switch kind {
	case KindEmergency:
		cursor = user.EmergencyIndex
	case KindUrge:
		cursor = user.UrgeIndex
	case KindStory:
		cursor = user.StoryIndex
	}
	if cursor < 0 {
		cursor = 0
	}
	index := cursor % len(entries)

	err = s.db.Model(&models.User{}).Where("id = ?", userID).
		Update(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return nil, err
	}

	return &RotationResponse{Kind: kind, Text: entries[index].Text, Index: index}, nil
}

// --- Admin content management ---

func (s *Service) ListEntries(kind string) ([]RotationEntry, error) {
	query := s.db.Order("kind, position ASC, created_at ASC")
	if kind != "" {
		if _, ok := cursorColumn[kind]; !ok {
			return nil, ErrInvalidKind
		}
		query = query.Where("kind = ?", kind)
	}
	var entries []RotationEntry
	return entries, query.Find(&entries).Error
}

func (s *Service) CreateEntry(req *CreateEntryRequest) (*RotationEntry, error) {
	if _, ok := cursorColumn[req.Kind]; !ok {
		return nil, ErrInvalidKind
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.New("entry text cannot be empty")
	}

	entry := RotationEntry{
		ID:       uuid.New(),
		Kind:     req.Kind,
		Position: req.Position,
		Text:     text,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) DeleteEntry(id uuid.UUID) error {
	result := s.db.Where("id = ?", id).Delete(&RotationEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// SeedDefaults inserts the starter content once, on an empty table.
func SeedDefaults(db *gorm.DB) error {
	var count int64
	if err := db.Model(&RotationEntry{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := map[string][]string{
		KindEmergency: {
			"Stop. Take five deep breaths. The craving is loud, but it is temporary.",
			"Call someone who knows your journey. You do not have to carry this minute alone.",
			"Leave the room you are in. Movement breaks the spiral.",
			"Drink a glass of water, slowly. Give your mind ninety seconds to catch up.",
		},
		KindUrge: {
			"Urges peak and pass within twenty minutes. Set a timer and wait it out.",
			"Name the feeling underneath the urge. It usually is not about the substance.",
			"Your worst day clean is still better than your best day using.",
			"Do the next right thing, however small. Momentum beats willpower.",
		},
		KindStory: {
			"After three failed attempts, what finally worked for me was telling one person the truth.",
			"I counted single days for a year. Then one morning I realized I had stopped counting.",
			"Recovery gave me back the boring evenings I used to run from. I treasure them now.",
			"The group did not judge my relapse. They asked what we would do differently tomorrow.",
		},
	}

	entries := make([]RotationEntry, 0, 12)
	for kind, texts := range defaults {
		for i, text := range texts {
			entries = append(entries, RotationEntry{
				ID:       uuid.New(),
				Kind:     kind,
				Position: i,
				Text:     text,
			})
		}
	}
	return db.Create(&entries).Error
}
