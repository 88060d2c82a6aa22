package followup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/features/counter"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/purepath/recovery-backend/internal/services"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidStatus = errors.New("status must be relapse, slip_up or success")
	ErrInvalidDate   = errors.New("date must be formatted YYYY-MM-DD")
	ErrFutureDate    = errors.New("cannot log a future date")
)

type Service struct {
	db    *gorm.DB
	store cache.Store
}

func NewService(db *gorm.DB, store cache.Store) *Service {
	return &Service{db: db, store: store}
}

func (s *Service) user(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, services.ErrUserNotFound
	}
	return &user, nil
}

// Record upserts the day's status. A relapse restarts the counter
// immediately; a second slip-up within the current counter period instead
// returns ResetRequired so the client can ask for confirmation first.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, req *LogRequest) (*LogResponse, error) {
	if req.Status != StatusRelapse && req.Status != StatusSlipUp && req.Status != StatusSuccess {
		return nil, ErrInvalidStatus
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if day.After(time.Now()) {
		return nil, ErrFutureDate
	}

	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	resp := &LogResponse{}

	if req.Status == StatusSlipUp {
		prior, err := s.slipUpsInPeriod(userID, user.StartDate, date)
		if err != nil {
			return nil, err
		}
		resp.ResetRequired = prior > 0
	}

	var log Log
	err = s.db.Where("user_id = ? AND date = ?", userID, date).First(&log).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log = Log{ID: uuid.New(), UserID: userID, Date: date, Status: req.Status}
		if err := s.db.Create(&log).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := s.db.Model(&log).Update("status", req.Status).Error; err != nil {
			return nil, err
		}
		log.Status = req.Status
	}
	resp.Log = &log

	if req.Status == StatusRelapse {
		if err := counter.ResetProgress(ctx, s.db, s.store, userID); err != nil {
			return nil, err
		}
		resp.CounterReset = true
	}
	return resp, nil
}

// slipUpsInPeriod counts slip-up rows since the counter started, excluding
// the date being written.
func (s *Service) slipUpsInPeriod(userID uuid.UUID, startDate *time.Time, excludeDate string) (int64, error) {
	query := s.db.Model(&Log{}).
		Where("user_id = ? AND status = ? AND date <> ?", userID, StatusSlipUp, excludeDate)
	if startDate != nil {
		query = query.Where("date >= ?", startDate.Format(dateLayout))
	}
	var count int64
	return count, query.Count(&count).Error
}

// ConfirmReset performs the restart the second slip-up asked confirmation
// for.
func (s *Service) ConfirmReset(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.user(userID); err != nil {
		return err
	}
	return counter.ResetProgress(ctx, s.db, s.store, userID)
}

// Range lists every day from `from` to `to` inclusive, filling past days
// that have no row with the inferred absent status. Days before the first
// log and future days are omitted.
func (s *Service) Range(userID uuid.UUID, from, to string) ([]DayStatus, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDate
	}

	var logs []Log
	err = s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]string, len(logs))
	for _, l := range logs {
		byDate[l.Date] = l.Status
	}

	var first Log
	err = s.db.Where("user_id = ?", userID).Order("date").First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Nothing ever logged: no absents to infer.
		out := make([]DayStatus, 0)
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	firstDay, err := time.Parse(dateLayout, first.Date)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format(dateLayout)
	out := make([]DayStatus, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		if status, ok := byDate[key]; ok {
			out = append(out, DayStatus{Date: key, Status: status})
			continue
		}
		// Absent applies only to past days after the first check-in.
		if day.Before(firstDay) || key >= today {
			continue
		}
		out = append(out, DayStatus{Date: key, Status: StatusAbsent})
	}
	return out, nil
}

// Stats counts stored statuses for the current counter period and all time.
func (s *Service) Stats(userID uuid.UUID) (*StatsResponse, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	allTime, err := s.countByStatus(userID, nil)
	if err != nil {
		return nil, err
	}
	period, err := s.countByStatus(userID, user.StartDate)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{Period: period, AllTime: allTime}, nil
}

func (s *Service) countByStatus(userID uuid.UUID, since *time.Time) (map[string]int, error) {
	query := s.db.Model(&Log{}).Where("user_id = ?", userID)
	if since != nil {
		query = query.Where("date >= ?", since.Format(dateLayout))
	}

	var rows []struct {
		Status string
		Total  int
	}
	err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := map[string]int{StatusRelapse: 0, StatusSlipUp: 0, StatusSuccess: 0}
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
