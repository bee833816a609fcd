package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
)

// Identity is the display pair stored on a post or comment. AvatarSeed is
// opaque random data: the avatar rendering is a pure function of it, and it
// carries no information about the underlying account.
type Identity struct {
	Pseudonym  string `json:"pseudonym"`
	AvatarSeed string `json:"avatar_seed"`
}

var pseudonymAdjectives = []string{
	"amber", "brisk", "candid", "dusky", "eager", "fabled", "gentle",
	"hollow", "ivory", "jade", "keen", "lunar", "mellow", "nimble",
	"opal", "placid", "quiet", "rustic", "silent", "tidal", "umber",
	"vivid", "wry", "zesty",
}

var pseudonymNouns = []string{
	"badger", "crane", "drift", "ember", "fern", "gull", "harbor",
	"iris", "juniper", "kestrel", "lark", "marmot", "newt", "otter",
	"pine", "quill", "reed", "sparrow", "thistle", "vole", "willow",
	"yarrow",
}

// IdentityService assigns pseudonym/avatar-seed pairs at write time.
type IdentityService struct {
	db *gorm.DB
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db}
}

// ForPost mints a fresh identity for a new post. Pairs are independent
// across posts: nothing links two posts by the same author.
func (s *IdentityService) ForPost(authorID uint) Identity {
	_ = authorID // intentionally unused: the pair must not derive from it
	return newIdentity()
}

// ForComment returns the author's identity on the given thread: a prior
// comment's pair wins, then the post's own pair when the author wrote the
// post, otherwise a fresh pair scoped to this thread only.
func (s *IdentityService) ForComment(authorID, postID uint) (Identity, error) {
	var prior models.Comment
	err := s.db.Where("post_id = ? AND author_id = ?", postID, authorID).
		Order("id ASC").First(&prior).Error
	if err == nil {
		return Identity{Pseudonym: prior.Pseudonym, AvatarSeed: prior.AvatarSeed}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, err
	}

	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		return Identity{}, err
	}
	if post.AuthorID == authorID {
		return Identity{Pseudonym: post.Pseudonym, AvatarSeed: post.AvatarSeed}, nil
	}
	return newIdentity(), nil
}

func newIdentity() Identity {
	return Identity{
		Pseudonym:  fmt.Sprintf("%s %s", pickWord(pseudonymAdjectives), pickWord(pseudonymNouns)),
		AvatarSeed: uuid.NewString(),
	}
}

func pickWord(words []string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken; nothing
		// sensible to continue with.
		panic(err)
	}
	return words[n.Int64()]
}
