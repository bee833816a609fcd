package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veilboard/veilboard/models"
	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

// PostController manages anonymous posts and comments.
type PostController struct {
	db    *gorm.DB
	posts *services.PostService
}

func NewPostController(db *gorm.DB, posts *services.PostService) *PostController {
	return &PostController{db: db, posts: posts}
}

// CreatePost stores a new post under a fresh pseudonym and may unlock the
// author's VIP grant when the streak threshold is already met.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	post, err := p.posts.CreatePost(userID, title, content, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrStorageConflict) {
			utils.Error(ctx, http.StatusServiceUnavailable, 50321, "transient storage conflict, retry")
			return
		}
		utils.Sugar.Errorf("create post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	// First post may have flipped hasPosted or granted VIP.
	utils.CacheDelete(privilegeCacheKey(userID))
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var posts []models.Post
	var total int64

	if err := p.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}
	err := p.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	var post models.Post
	err := p.db.Preload("Comments").First(&post, ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// CreateComment stores a reply under the author's per-thread identity.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	postID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid post id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	comment, err := p.posts.CreateComment(userID, uint(postID), utils.Sanitize(req.Content))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		if errors.Is(err, services.ErrStorageConflict) {
			utils.Error(ctx, http.StatusServiceUnavailable, 50321, "transient storage conflict, retry")
			return
		}
		utils.Sugar.Errorf("create comment failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to create comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page, _ := strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(sizeStr)
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
