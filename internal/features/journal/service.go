package journal

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEntryNotFound = errors.New("journal entry not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(userID uuid.UUID, limit, offset int) ([]Entry, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := s.db.Model(&Entry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []Entry
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, total, err
}

func (s *Service) Create(userID uuid.UUID, req *EntryRequest) (*Entry, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.New("entry text cannot be empty")
	}

	entry := Entry{
		ID:     uuid.New(),
		UserID: userID,
		Text:   text,
		Mood:   req.Mood,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) Update(userID, entryID uuid.UUID, req *EntryRequest) (*Entry, error) {
	var entry Entry
	err := s.db.Where("id = ? AND user_id = ?", entryID, userID).First(&entry).Error
	if err != nil {
		return nil, ErrEntryNotFound
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.New("entry text cannot be empty")
	}

	err = s.db.Model(&entry).Updates(map[string]interface{}{
		"text": text,
		"mood": req.Mood,
	}).Error
	if err != nil {
		return nil, err
	}
	entry.Text = text
	entry.Mood = req.Mood
	return &entry, nil
}

func (s *Service) Delete(userID, entryID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", entryID, userID).Delete(&Entry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
