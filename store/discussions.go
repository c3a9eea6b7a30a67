package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/awe/models"
)

// CreateDiscussion inserts a topic or a reply. A reply's parent must be a topic
// of the same article, otherwise ErrNotFound and nothing is written.
func (s *Store) CreateDiscussion(ctx context.Context, d *models.Discussion) error {
	if d.ArticleID == 0 || strings.TrimSpace(d.Comment) == "" {
		return fmt.Errorf("%w: article and comment text are required", ErrInvalidInput)
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = s.now()
	}
	return s.run(ctx, "create_discussion", func(db *gorm.DB) error {
		var n int64
		if err := db.Model(&models.Article{}).Where("id = ?", d.ArticleID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: article %d", ErrNotFound, d.ArticleID)
		}
		if d.ParentID != nil {
			if err := topicExists(db, d.ArticleID, *d.ParentID); err != nil {
				return err
			}
			d.TopicTitle = nil
		}
		return db.Omit(clause.Associations).Create(d).Error
	})
}

// GetTopic returns the topic-level discussion topicID of articleID.
func (s *Store) GetTopic(ctx context.Context, articleID, topicID uint) (*models.Discussion, error) {
	var topic models.Discussion
	err := s.run(ctx, "get_topic", func(db *gorm.DB) error {
		return db.Where("id = ? AND article_id = ? AND parent_id IS NULL", topicID, articleID).First(&topic).Error
	})
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func topicExists(db *gorm.DB, articleID, topicID uint) error {
	var n int64
	err := db.Model(&models.Discussion{}).
		Where("id = ? AND article_id = ? AND parent_id IS NULL", topicID, articleID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: topic %d on article %d", ErrNotFound, topicID, articleID)
	}
	return nil
}

// ListTopics returns the topics of an article, newest first.
func (s *Store) ListTopics(ctx context.Context, articleID uint) ([]models.Discussion, error) {
	var topics []models.Discussion
	err := s.run(ctx, "list_topics", func(db *gorm.DB) error {
		return db.Where("article_id = ? AND parent_id IS NULL", articleID).
			Order("ts DESC, id DESC").
			Find(&topics).Error
	})
	return topics, err
}

// ListReplies returns the replies of an article grouped by topic id, each group oldest first.
func (s *Store) ListReplies(ctx context.Context, articleID uint) (map[uint][]models.Discussion, error) {
	var replies []models.Discussion
	err := s.run(ctx, "list_replies", func(db *gorm.DB) error {
		return db.Where("article_id = ? AND parent_id IS NOT NULL", articleID).
			Order("ts ASC, id ASC").
			Find(&replies).Error
	})
	if err != nil {
		return nil, err
	}
	byTopic := make(map[uint][]models.Discussion)
	for _, r := range replies {
		byTopic[*r.ParentID] = append(byTopic[*r.ParentID], r)
	}
	return byTopic, nil
}

// CountDiscussions returns the number of topics and replies.
func (s *Store) CountDiscussions(ctx context.Context) (int64, error) {
	var n int64
	err := s.run(ctx, "count_discussions", func(db *gorm.DB) error {
		return db.Model(&models.Discussion{}).Count(&n).Error
	})
	return n, err
}
