package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

// GrantDecision is the outcome of one privilege evaluation. ExpiresAt echoes
// the authoritative grant after the evaluation, whether or not it changed.
type GrantDecision struct {
	Granted   bool
	ExpiresAt *time.Time
}

// PrivilegeStatus is the read model behind GET /privilege/status.
type PrivilegeStatus struct {
	IsVip         bool       `json:"is_vip"`
	ExpiresAt     *time.Time `json:"expires_at"`
	StreakDays    int        `json:"streak_days"`
	HasPosted     bool       `json:"has_posted"`
	LastCheckinAt *time.Time `json:"last_checkin_at"`
}

// PrivilegeService owns the VIP grant: eligibility evaluation, max-based
// renewal and read-time expiry classification.
type PrivilegeService struct {
	db  *gorm.DB
	bus *EventBus
}

func NewPrivilegeService(db *gorm.DB, bus *EventBus) *PrivilegeService {
	return &PrivilegeService{db: db, bus: bus}
}

// Evaluate applies the fixed eligibility rule (streak >= 7 and at least one
// authored post). Ineligible users keep whatever grant they already hold:
// evaluation never downgrades and expiry is only ever natural. An eligible
// user's grant becomes max(existing, now+30d); the guarded UPDATE makes the
// max atomic, so concurrent renewals cannot shorten each other regardless of
// wall-clock ordering.
func (p *PrivilegeService) Evaluate(userID uint, now time.Time) (GrantDecision, error) {
	var user models.User
	if err := p.db.First(&user, userID).Error; err != nil {
		return GrantDecision{}, err
	}

	if user.StreakDays < vipStreakThreshold || !user.HasPosted {
		return GrantDecision{Granted: false, ExpiresAt: user.VipExpiresAt}, nil
	}

	wasActive := user.IsVip(now)
	candidate := now.Add(vipGrantDuration)
	err := p.db.Model(&models.User{}).
		Where("id = ? AND (vip_expires_at IS NULL OR vip_expires_at < ?)", userID, candidate).
		Update("vip_expires_at", candidate).Error
	if err != nil {
		return GrantDecision{}, err
	}

	// Re-read: a concurrent renewal may hold a later expiry than ours.
	if err := p.db.First(&user, userID).Error; err != nil {
		return GrantDecision{}, err
	}

	if !wasActive && user.IsVip(now) {
		p.bus.Publish(Event{Type: EventVipGranted, UserID: userID, At: now})
	}
	return GrantDecision{Granted: true, ExpiresAt: user.VipExpiresAt}, nil
}

// Status classifies the grant at the given instant. Lapsed grants keep their
// timestamp in ExpiresAt for display while IsVip reports false.
func (p *PrivilegeService) Status(userID uint, now time.Time) (PrivilegeStatus, error) {
	var user models.User
	if err := p.db.First(&user, userID).Error; err != nil {
		return PrivilegeStatus{}, err
	}
	return PrivilegeStatus{
		IsVip:         user.IsVip(now),
		ExpiresAt:     user.VipExpiresAt,
		StreakDays:    user.StreakDays,
		HasPosted:     user.HasPosted,
		LastCheckinAt: user.LastCheckinAt,
	}, nil
}
