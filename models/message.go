package models

import "time"

// Message is a private message between two accounts. The access gate only
// ever reads this table as a boolean predicate: does any row link the pair
// in either direction.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"index:idx_messages_sender;not null" json:"sender_id"`
	RecipientID uint      `gorm:"index:idx_messages_recipient;not null" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
