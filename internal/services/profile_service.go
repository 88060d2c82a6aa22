package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/dto"
	"github.com/purepath/recovery-backend/internal/models"
	"gorm.io/gorm"
)

var ErrInvalidRole = errors.New("role must be user or supervisor")

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Get(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *ProfileService) Update(userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, errors.New("display name cannot be empty")
		}
		updates["display_name"] = name
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}
	if req.Commitment != nil {
		updates["commitment"] = *req.Commitment
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole promotes or demotes a global supervisor. Admin roles are assigned
// through config, never through this path.
func (s *ProfileService) SetRole(targetID uuid.UUID, role string) error {
	if role != "user" && role != "supervisor" {
		return ErrInvalidRole
	}
	result := s.db.Model(&models.User{}).Where("id = ? AND role <> 'admin'", targetID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *ProfileService) SetCounterImage(url string) error {
	setting := models.AppSetting{Key: models.SettingCounterImage, Value: url}
	return s.db.Where("key = ?", models.SettingCounterImage).
		Assign(models.AppSetting{Value: url}).
		FirstOrCreate(&setting).Error
}

func (s *ProfileService) CounterImage() (string, error) {
	var setting models.AppSetting
	err := s.db.Where("key = ?", models.SettingCounterImage).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func ToProfileResponse(u *models.User) dto.ProfileResponse {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	return dto.ProfileResponse{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Email:          email,
		PhotoURL:       u.PhotoURL,
		Role:           u.Role,
		IsGuest:        u.IsGuest,
		IsMuted:        u.IsMuted,
		Commitment:     u.Commitment,
		StartDate:      u.StartDate,
		EmergencyIndex: u.EmergencyIndex,
		UrgeIndex:      u.UrgeIndex,
		StoryIndex:     u.StoryIndex,
		CreatedAt:      u.CreatedAt,
	}
}

func ToPublicProfile(u *models.User) dto.PublicProfileResponse {
	return dto.PublicProfileResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Role:        u.Role,
		IsMuted:     u.IsMuted,
	}
}
