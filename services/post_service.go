package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

// PostService owns post and comment creation: identity assignment at write
// time, the monotonic hasPosted flip and the follow-up privilege evaluation
// that catches the "streak already met, now posts for the first time" case.
type PostService struct {
	db        *gorm.DB
	identity  *IdentityService
	privilege *PrivilegeService
}

func NewPostService(db *gorm.DB, identity *IdentityService, privilege *PrivilegeService) *PostService {
	return &PostService{db: db, identity: identity, privilege: privilege}
}

// CreatePost stores a new post under a fresh pseudonym and re-evaluates the
// author's privileges. Content must arrive already sanitized.
func (s *PostService) CreatePost(authorID uint, title, content string, now time.Time) (*models.Post, error) {
	id := s.identity.ForPost(authorID)
	post := models.Post{
		AuthorID:   authorID,
		Pseudonym:  id.Pseudonym,
		AvatarSeed: id.AvatarSeed,
		Title:      title,
		Content:    content,
	}
	if err := retryOnConflict(func() error { return s.db.Create(&post).Error }); err != nil {
		return nil, err
	}

	// Monotonic: only ever flips false -> true, never back.
	err := s.db.Model(&models.User{}).
		Where("id = ? AND has_posted = ?", authorID, false).
		Update("has_posted", true).Error
	if err != nil {
		return nil, err
	}

	// Idempotent; a no-op unless the streak threshold is already met.
	if _, err := s.privilege.Evaluate(authorID, now); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreateComment stores a reply under the author's thread identity.
func (s *PostService) CreateComment(authorID, postID uint, content string) (*models.Comment, error) {
	id, err := s.identity.ForComment(authorID, postID)
	if err != nil {
		return nil, err
	}
	comment := models.Comment{
		PostID:     postID,
		AuthorID:   authorID,
		Pseudonym:  id.Pseudonym,
		AvatarSeed: id.AvatarSeed,
		Content:    content,
	}
	if err := retryOnConflict(func() error { return s.db.Create(&comment).Error }); err != nil {
		return nil, err
	}
	return &comment, nil
}
