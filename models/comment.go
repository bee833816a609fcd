package models

import "time"

// Comment is a reply on a post. Within one post thread an author always
// carries the same pseudonym/avatar-seed pair; across threads the pairs are
// independent. AuthorID is never serialized.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	AuthorID   uint      `gorm:"index;not null" json:"-"`
	Pseudonym  string    `gorm:"size:64;not null" json:"pseudonym"`
	AvatarSeed string    `gorm:"size:64;not null" json:"avatar_seed"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
