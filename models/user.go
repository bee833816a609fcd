package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account. Display identity on posts and comments is always a
// per-thread pseudonym; the account itself is never rendered publicly.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:255" json:"-"`

	// StreakDays caches the ledger-derived consecutive-day run and is
	// overwritten on every recompute; the check-in ledger stays the source
	// of truth. HasPosted is monotonic: set on the first authored post,
	// never reset. VipExpiresAt is the entire VIP grant state; "is VIP" is
	// always computed from it, never stored as a separate flag.
	StreakDays    int        `gorm:"default:0" json:"streak_days"`
	HasPosted     bool       `gorm:"default:false" json:"has_posted"`
	VipExpiresAt  *time.Time `json:"vip_expires_at"`
	LastCheckinAt *time.Time `json:"last_checkin_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsVip reports whether the grant is active at the given instant. A grant
// whose expiry equals now has already lapsed; the timestamp is retained for
// display but gates as absent.
func (u *User) IsVip(now time.Time) bool {
	return u.VipExpiresAt != nil && u.VipExpiresAt.After(now)
}
