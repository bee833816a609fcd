package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

// CheckInResult is the outcome of a check-in attempt. A same-day repeat is
// not an error: Accepted is false and StreakDays carries the current value,
// identical to what the winning request reported.
type CheckInResult struct {
	Accepted   bool
	StreakDays int
}

// CheckInService appends to the check-in ledger and keeps the cached streak
// and the privilege grant synchronized with it.
type CheckInService struct {
	db        *gorm.DB
	privilege *PrivilegeService
	bus       *EventBus
}

func NewCheckInService(db *gorm.DB, privilege *PrivilegeService, bus *EventBus) *CheckInService {
	return &CheckInService{db: db, privilege: privilege, bus: bus}
}

// CheckIn records today's ledger row for the user. The composite unique
// index on (user_id, checkin_date) is the only mutual exclusion: the loser
// of a same-day race gets a duplicate-key error, which is folded into an
// accepted=false result after re-reading the streak the winner produced.
// On success the streak is recomputed from the full ledger and the privilege
// evaluator runs before returning, so the response state is always current.
func (s *CheckInService) CheckIn(userID uint, now time.Time) (CheckInResult, error) {
	record := models.CheckIn{UserID: userID, CheckinDate: DayString(now)}
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			streak, rerr := s.RecomputeStreak(userID)
			if rerr != nil {
				return CheckInResult{}, rerr
			}
			return CheckInResult{Accepted: false, StreakDays: streak}, nil
		}
		return CheckInResult{}, err
	}

	streak, err := s.RecomputeStreak(userID)
	if err != nil {
		return CheckInResult{}, err
	}

	err = s.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"streak_days": streak, "last_checkin_at": now}).Error
	if err != nil {
		return CheckInResult{}, err
	}

	if _, err := s.privilege.Evaluate(userID, now); err != nil {
		return CheckInResult{}, err
	}

	s.bus.Publish(Event{Type: EventCheckInRecorded, UserID: userID, At: now})
	return CheckInResult{Accepted: true, StreakDays: streak}, nil
}

// RecomputeStreak derives the streak purely from ledger rows; there is no
// counter that can drift from them.
func (s *CheckInService) RecomputeStreak(userID uint) (int, error) {
	var dates []string
	err := s.db.Model(&models.CheckIn{}).
		Where("user_id = ?", userID).
		Order("checkin_date ASC").
		Pluck("checkin_date", &dates).Error
	if err != nil {
		return 0, err
	}
	return ComputeStreak(dates)
}
