package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

func createTestPost(t *testing.T, db *gorm.DB, authorID uint, id Identity) *models.Post {
	t.Helper()
	post := &models.Post{
		AuthorID:   authorID,
		Pseudonym:  id.Pseudonym,
		AvatarSeed: id.AvatarSeed,
		Title:      "t",
		Content:    "c",
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestForPost_MintsDistinctPairsPerPost(t *testing.T) {
	svc := NewIdentityService(newTestDB(t))

	first := svc.ForPost(1)
	second := svc.ForPost(1)

	assert.NotEmpty(t, first.Pseudonym)
	assert.NotEmpty(t, first.AvatarSeed)
	// Seeds are UUIDs; two posts by the same author never share one.
	assert.NotEqual(t, first.AvatarSeed, second.AvatarSeed)
}

func TestForComment_ReusesPriorCommentIdentity(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	author := newTestUser(t, db, "author")
	commenter := newTestUser(t, db, "commenter")
	post := createTestPost(t, db, author.ID, svc.ForPost(author.ID))

	first, err := svc.ForComment(commenter.ID, post.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Comment{
		PostID:     post.ID,
		AuthorID:   commenter.ID,
		Pseudonym:  first.Pseudonym,
		AvatarSeed: first.AvatarSeed,
		Content:    "reply",
	}).Error)

	second, err := svc.ForComment(commenter.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForComment_PostAuthorKeepsPostIdentity(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	author := newTestUser(t, db, "author")
	post := createTestPost(t, db, author.ID, svc.ForPost(author.ID))

	id, err := svc.ForComment(author.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Pseudonym, id.Pseudonym)
	assert.Equal(t, post.AvatarSeed, id.AvatarSeed)
}

func TestForComment_FreshPairPerThread(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	author := newTestUser(t, db, "author")
	commenter := newTestUser(t, db, "commenter")
	postA := createTestPost(t, db, author.ID, svc.ForPost(author.ID))
	postB := createTestPost(t, db, author.ID, svc.ForPost(author.ID))

	idA, err := svc.ForComment(commenter.ID, postA.ID)
	require.NoError(t, err)
	idB, err := svc.ForComment(commenter.ID, postB.ID)
	require.NoError(t, err)

	// Nothing links the same commenter across threads.
	assert.NotEqual(t, idA.AvatarSeed, idB.AvatarSeed)
}

func TestForComment_MissingPost(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	commenter := newTestUser(t, db, "commenter")

	_, err := svc.ForComment(commenter.ID, 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
