package wiki

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
)

// TopicRequest opens a new topic on an article.
type TopicRequest struct {
	Slug  string
	Title string
	Body  string
	// Author is the logged-in username, or the client address for anonymous posts.
	Author string
}

// ReplyRequest answers a topic.
type ReplyRequest struct {
	Slug    string
	TopicID uint
	Body    string
	Author  string
	// ReplyTo is free text naming who is being answered; it is not validated.
	ReplyTo string
}

// Thread is an article with its topics newest first, each holding its replies oldest first.
type Thread struct {
	Article *models.Article     `json:"article,omitempty"`
	Topics  []models.Discussion `json:"topics"`
}

// CreateTopic inserts a topic, creating the article first if needed. Both happen
// in one transaction so a failed insert leaves no orphan stub.
func (e *Engine) CreateTopic(ctx context.Context, req TopicRequest) (*models.Discussion, error) {
	if req.Slug == "" {
		return nil, invalid("slug is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, invalid("comment text is required")
	}
	if req.Author == "" {
		return nil, invalid("author is required")
	}

	topic := &models.Discussion{Comment: req.Body, User: req.Author}
	if t := strings.TrimSpace(req.Title); t != "" {
		topic.TopicTitle = &t
	}
	var created bool
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		article, c, err := ensureArticle(ctx, tx, req.Slug)
		if err != nil {
			return err
		}
		created = c
		topic.ArticleID = article.ID
		return tx.CreateDiscussion(ctx, topic)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("topic created",
		zap.String("slug", req.Slug),
		zap.Uint("topic_id", topic.ID),
		zap.String("author", req.Author),
		zap.Bool("article_created", created))
	return topic, nil
}

// CreateReply inserts a reply under an existing topic of the article. A missing
// article or topic, or an id that names a reply or another article's topic, is
// ErrTopicNotFound and writes nothing.
func (e *Engine) CreateReply(ctx context.Context, req ReplyRequest) (*models.Discussion, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, invalid("reply text is required")
	}
	if req.Author == "" {
		return nil, invalid("author is required")
	}
	if req.TopicID == 0 {
		return nil, ErrTopicNotFound
	}

	parentID := req.TopicID
	reply := &models.Discussion{ParentID: &parentID, Comment: req.Body, User: req.Author}
	if r := strings.TrimSpace(req.ReplyTo); r != "" {
		reply.ReplyTo = &r
	}
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		article, err := tx.GetArticle(ctx, req.Slug)
		if err != nil {
			return err
		}
		reply.ArticleID = article.ID
		return tx.CreateDiscussion(ctx, reply)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Thread loads the discussion of slug. A missing article yields an empty thread.
func (e *Engine) Thread(ctx context.Context, slug string) (*Thread, error) {
	article, err := e.store.GetArticle(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return &Thread{Topics: []models.Discussion{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return e.ThreadOf(ctx, article)
}

// ThreadOf loads the discussion of an already loaded article.
func (e *Engine) ThreadOf(ctx context.Context, article *models.Article) (*Thread, error) {
	topics, err := e.store.ListTopics(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	replies, err := e.store.ListReplies(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	for i := range topics {
		topics[i].Replies = replies[topics[i].ID]
	}
	if topics == nil {
		topics = []models.Discussion{}
	}
	return &Thread{Article: article, Topics: topics}, nil
}
