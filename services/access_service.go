package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

// Deny reasons surfaced by the access gate. Gating outcomes are ordinary
// values; only storage failures travel as errors.
const (
	ReasonSelfMessage           = "SelfMessageDisallowed"
	ReasonPrivilegeInsufficient = "PrivilegeInsufficient"
)

// GateDecision is an allow/deny verdict. Hint carries the user-facing
// remediation text on denials.
type GateDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// AccessService authorizes messaging and nearby discovery against the
// privilege grant and the conversation-history predicate.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// CanMessage decides whether sender may message recipient at the given
// instant. Self-messaging is always denied. Otherwise either side holding an
// active grant allows, and an existing thread between the pair allows
// regardless of VIP, so a lapsed grant never breaks a running conversation.
func (a *AccessService) CanMessage(senderID, recipientID uint, now time.Time) (GateDecision, error) {
	if senderID == recipientID {
		return GateDecision{
			Reason: ReasonSelfMessage,
			Hint:   "you cannot message yourself",
		}, nil
	}

	var sender, recipient models.User
	if err := a.db.First(&sender, senderID).Error; err != nil {
		return GateDecision{}, err
	}
	if err := a.db.First(&recipient, recipientID).Error; err != nil {
		return GateDecision{}, err
	}

	if sender.IsVip(now) || recipient.IsVip(now) {
		return GateDecision{Allowed: true}, nil
	}

	exists, err := a.MessageExists(senderID, recipientID)
	if err != nil {
		return GateDecision{}, err
	}
	if exists {
		return GateDecision{Allowed: true}, nil
	}

	return GateDecision{
		Reason: ReasonPrivilegeInsufficient,
		Hint:   "reach a 7-day check-in streak and publish a post to unlock messaging",
	}, nil
}

// CanDiscoverNearby is the harder gate: an active grant at this exact
// instant, no thread exception, no grace window after expiry.
func (a *AccessService) CanDiscoverNearby(userID uint, now time.Time) (GateDecision, error) {
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		return GateDecision{}, err
	}
	if user.IsVip(now) {
		return GateDecision{Allowed: true}, nil
	}
	return GateDecision{
		Reason: ReasonPrivilegeInsufficient,
		Hint:   "nearby discovery requires an active VIP grant; keep your check-in streak at 7 days",
	}, nil
}

// MessageExists reports whether any message links the pair in either
// direction.
func (a *AccessService) MessageExists(userA, userB uint) (bool, error) {
	var n int64
	err := a.db.Model(&models.Message{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Count(&n).Error
	return n > 0, err
}
