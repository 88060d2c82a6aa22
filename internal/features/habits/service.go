package habits

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrInvalidDate   = errors.New("date must be formatted YYYY-MM-DD")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) habit(userID, habitID uuid.UUID) (*Habit, error) {
	var habit Habit
	err := s.db.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error
	if err != nil {
		return nil, ErrHabitNotFound
	}
	return &habit, nil
}

func (s *Service) List(userID uuid.UUID) ([]Habit, error) {
	var habits []Habit
	err := s.db.Where("user_id = ?", userID).Order("created_at").Find(&habits).Error
	return habits, err
}

func (s *Service) Create(userID uuid.UUID, req *CreateHabitRequest) (*Habit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("habit name cannot be empty")
	}

	habit := Habit{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Icon:   req.Icon,
		Log:    datatypes.JSON([]byte("{}")),
	}
	if err := s.db.Create(&habit).Error; err != nil {
		return nil, err
	}
	return &habit, nil
}

func (s *Service) Update(userID, habitID uuid.UUID, req *UpdateHabitRequest) (*Habit, error) {
	habit, err := s.habit(userID, habitID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.New("habit name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if len(updates) == 0 {
		return habit, nil
	}

	if err := s.db.Model(habit).Updates(updates).Error; err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *Service) Delete(userID, habitID uuid.UUID) error {
	habit, err := s.habit(userID, habitID)
	if err != nil {
		return err
	}
	return s.db.Delete(habit).Error
}

// Toggle flips the completion flag for one date. Completed days are stored
// as keys; toggling off removes the key so the log stays sparse.
func (s *Service) Toggle(userID, habitID uuid.UUID, date string) (*Habit, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	habit, err := s.habit(userID, habitID)
	if err != nil {
		return nil, err
	}

	log, err := decodeLog(habit.Log)
	if err != nil {
		return nil, err
	}

	if log[date] {
		delete(log, date)
	} else {
		log[date] = true
	}

	raw, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	habit.Log = datatypes.JSON(raw)
	if err := s.db.Model(habit).Update("log", habit.Log).Error; err != nil {
		return nil, err
	}
	return habit, nil
}

// Stats computes totals, the current streak ending today or yesterday, and
// the trailing 30-day completion rate.
func (s *Service) Stats(userID, habitID uuid.UUID) (*StatsResponse, error) {
	habit, err := s.habit(userID, habitID)
	if err != nil {
		return nil, err
	}
	log, err := decodeLog(habit.Log)
	if err != nil {
		return nil, err
	}

	stats := &StatsResponse{HabitID: habit.ID, TotalCompletions: len(log)}

	today := time.Now()

	// A streak still counts if today simply has not been logged yet.
	cursor := today
	if !log[cursor.Format(dateLayout)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for log[cursor.Format(dateLayout)] {
		stats.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	done := 0
	for i := 0; i < 30; i++ {
		if log[today.AddDate(0, 0, -i).Format(dateLayout)] {
			done++
		}
	}
	stats.Rate30 = float64(done) / 30.0

	return stats, nil
}

func decodeLog(raw datatypes.JSON) (map[string]bool, error) {
	log := map[string]bool{}
	if len(raw) == 0 {
		return log, nil
	}
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, err
	}
	return log, nil
}
