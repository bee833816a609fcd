package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

// SendOutcome carries either the stored message (allowed) or the gate's
// denial. A denial is a normal outcome, not an error.
type SendOutcome struct {
	Message  *models.Message
	Decision GateDecision
}

// MessageService persists private messages behind the access gate and owns
// the thread listing the gate's existence predicate is built on.
type MessageService struct {
	db     *gorm.DB
	access *AccessService
	bus    *EventBus
}

func NewMessageService(db *gorm.DB, access *AccessService, bus *EventBus) *MessageService {
	return &MessageService{db: db, access: access, bus: bus}
}

// Send authorizes, persists and announces one message.
func (s *MessageService) Send(senderID, recipientID uint, content string, now time.Time) (SendOutcome, error) {
	decision, err := s.access.CanMessage(senderID, recipientID, now)
	if err != nil {
		return SendOutcome{}, err
	}
	if !decision.Allowed {
		return SendOutcome{Decision: decision}, nil
	}

	msg := models.Message{SenderID: senderID, RecipientID: recipientID, Content: content}
	if err := retryOnConflict(func() error { return s.db.Create(&msg).Error }); err != nil {
		return SendOutcome{}, err
	}

	s.bus.Publish(Event{Type: EventMessageCreated, UserID: recipientID, At: now})
	return SendOutcome{Message: &msg, Decision: decision}, nil
}

// Thread lists the newest messages between the pair in either direction,
// oldest first within the window.
func (s *MessageService) Thread(userA, userB uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var msgs []models.Message
	err := s.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("id DESC").Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
