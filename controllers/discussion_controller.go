package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/models"
	"github.com/cppla/awe/utils"
	"github.com/cppla/awe/wiki"
)

// DiscussionController handles article topics and replies. Anonymous posts are signed with the client IP.
type DiscussionController struct {
	engine *wiki.Engine
}

// NewDiscussionController creates a DiscussionController.
func NewDiscussionController(engine *wiki.Engine) *DiscussionController {
	return &DiscussionController{engine: engine}
}

type topicRequest struct {
	Title   string `json:"topic_title" form:"topic_title"`
	Comment string `json:"comment_text" form:"comment_text"`
}

type replyRequest struct {
	Comment string `json:"comment_text" form:"comment_text"`
	ReplyTo string `json:"reply_to" form:"reply_to"`
}

// Thread returns the topics of an article with their replies.
func (d *DiscussionController) Thread(ctx *gin.Context) {
	thread, err := d.engine.Thread(ctx.Request.Context(), slugParam(ctx, "slug"))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, thread)
}

// CreateTopic opens a topic on the article, creating the article if needed.
func (d *DiscussionController) CreateTopic(ctx *gin.Context) {
	d.createTopic(ctx, slugParam(ctx, "slug"))
}

// CreateReply answers a topic of the article.
func (d *DiscussionController) CreateReply(ctx *gin.Context) {
	d.createReply(ctx, slugParam(ctx, "slug"))
}

func (d *DiscussionController) createTopic(ctx *gin.Context, slug string) {
	var req topicRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	topic, err := d.engine.CreateTopic(ctx.Request.Context(), wiki.TopicRequest{
		Slug:   slug,
		Title:  utils.SanitizeText(req.Title),
		Body:   utils.Sanitize(req.Comment),
		Author: author(ctx),
	})
	if err != nil {
		respondError(ctx, err, discussionReturnPath(slug))
		return
	}
	d.respondPosted(ctx, slug, topic)
}

func (d *DiscussionController) createReply(ctx *gin.Context, slug string) {
	topicID, ok := parseID(ctx.Param("topicId"))
	if !ok {
		respondError(ctx, wiki.ErrTopicNotFound, discussionReturnPath(slug))
		return
	}
	var req replyRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}
	reply, err := d.engine.CreateReply(ctx.Request.Context(), wiki.ReplyRequest{
		Slug:    slug,
		TopicID: topicID,
		Body:    utils.Sanitize(req.Comment),
		Author:  author(ctx),
		ReplyTo: utils.SanitizeText(req.ReplyTo),
	})
	if err != nil {
		respondError(ctx, err, discussionReturnPath(slug))
		return
	}
	d.respondPosted(ctx, slug, reply)
}

func (d *DiscussionController) respondPosted(ctx *gin.Context, slug string, entry *models.Discussion) {
	if utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, discussionReturnPath(slug), "Comentário publicado.")
		return
	}
	utils.Created(ctx, entry)
}

// discussionReturnPath is where browsers land after posting: the profile for
// user pages, the article otherwise.
func discussionReturnPath(slug string) string {
	if name, ok := models.ProfileOwner(slug); ok {
		return wikiPath("/api/v1/users/", name)
	}
	return wikiPath("/wiki/", slug)
}
