package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
	"github.com/cppla/awe/wiki"
)

// UserController serves profile pages, which are the user:<name> articles.
type UserController struct {
	store       *store.Store
	engine      *wiki.Engine
	cache       *utils.Cache
	discussions *DiscussionController
}

// NewUserController creates a UserController.
func NewUserController(st *store.Store, engine *wiki.Engine, cache *utils.Cache, discussions *DiscussionController) *UserController {
	return &UserController{store: st, engine: engine, cache: cache, discussions: discussions}
}

// Profile returns the profile article (or its preview) with its discussion.
func (u *UserController) Profile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	slug := models.ProfileSlug(username)

	registered := true
	if _, err := u.store.GetUser(ctx.Request.Context(), username); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			respondError(ctx, err, "")
			return
		}
		registered = false
	}

	article, err := u.store.GetArticle(ctx.Request.Context(), slug)
	exists := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(ctx, err, "")
		return
	}
	topics := []models.Discussion{}
	if exists {
		thread, err := u.engine.ThreadOf(ctx.Request.Context(), article)
		if err != nil {
			respondError(ctx, err, "")
			return
		}
		topics = thread.Topics
	} else {
		article = wiki.Preview(slug)
	}

	viewer, _ := middleware.CurrentUsername(ctx)
	utils.Success(ctx, gin.H{
		"username":   username,
		"registered": registered,
		"article":    article,
		"exists":     exists,
		"topics":     topics,
		"can_edit":   viewer != "" && viewer == username,
	})
}

// EditProfile saves the profile article. Only its owner may do so.
func (u *UserController) EditProfile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	var req editRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}
	editor, _ := middleware.CurrentUsername(ctx)
	out, err := u.engine.EditProfile(ctx.Request.Context(), username,
		utils.Sanitize(req.Content), utils.SanitizeText(req.Summary), editor)
	if err != nil {
		respondError(ctx, err, wikiPath("/api/v1/users/", username))
		return
	}
	u.cache.Delete(ctx.Request.Context(), articleCacheKey(models.ProfileSlug(username)))
	utils.Success(ctx, out)
}

// CreateTopic opens a topic on a profile page.
func (u *UserController) CreateTopic(ctx *gin.Context) {
	u.discussions.createTopic(ctx, models.ProfileSlug(strings.TrimSpace(ctx.Param("username"))))
}

// CreateReply answers a topic on a profile page.
func (u *UserController) CreateReply(ctx *gin.Context) {
	u.discussions.createReply(ctx, models.ProfileSlug(strings.TrimSpace(ctx.Param("username"))))
}
