package models

import "time"

// Post is an anonymous post. Pseudonym and AvatarSeed are assigned once at
// creation and immutable; AuthorID is kept for gating and moderation but
// never serialized, so two posts by the same author are not linkable.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AuthorID   uint      `gorm:"index;not null" json:"-"`
	Pseudonym  string    `gorm:"size:64;not null" json:"pseudonym"`
	AvatarSeed string    `gorm:"size:64;not null" json:"avatar_seed"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Comments   []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}
