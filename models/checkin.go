package models

import "time"

// CheckIn is one row of the append-only check-in ledger. CheckinDate is the
// server-UTC calendar day ("2006-01-02"); the composite unique index is the
// sole mutual exclusion for same-day races. Rows are never updated or
// deleted.
type CheckIn struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_checkins_user_day;not null" json:"user_id"`
	CheckinDate string    `gorm:"size:10;uniqueIndex:idx_checkins_user_day;not null" json:"checkin_date"`
	CreatedAt   time.Time `json:"created_at"`
}
