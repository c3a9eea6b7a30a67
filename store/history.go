package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/awe/models"
)

// Change is one row of the recent changes and contributions feeds.
type Change struct {
	ID        uint      `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	User      string    `json:"user"`
	Summary   *string   `json:"summary,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// AppendHistory inserts one history row stamped at (the store clock when zero).
// The slug must name an existing article.
func (s *Store) AppendHistory(ctx context.Context, slug, content, user string, summary *string, at time.Time) (uint, error) {
	if slug == "" {
		return 0, fmt.Errorf("%w: history slug is required", ErrInvalidInput)
	}
	if at.IsZero() {
		at = s.now()
	}
	entry := models.ArticleHistory{
		Slug:      slug,
		Content:   content,
		Timestamp: at,
		User:      user,
		Summary:   summary,
	}
	err := s.run(ctx, "append_history", func(db *gorm.DB) error {
		var n int64
		if err := db.Model(&models.Article{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: article %q", ErrNotFound, slug)
		}
		return db.Create(&entry).Error
	})
	if err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// ListHistory returns every revision of slug, newest first.
func (s *Store) ListHistory(ctx context.Context, slug string) ([]models.ArticleHistory, error) {
	var entries []models.ArticleHistory
	err := s.run(ctx, "list_history", func(db *gorm.DB) error {
		return db.Where("slug = ?", slug).Order("ts DESC, id DESC").Find(&entries).Error
	})
	return entries, err
}

// GetVersion returns a single history row.
func (s *Store) GetVersion(ctx context.Context, id uint) (*models.ArticleHistory, error) {
	var entry models.ArticleHistory
	err := s.run(ctx, "get_version", func(db *gorm.DB) error {
		return db.First(&entry, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecentChanges lists the newest revisions across all articles.
func (s *Store) RecentChanges(ctx context.Context, limit int) ([]Change, error) {
	var changes []Change
	err := s.run(ctx, "recent_changes", func(db *gorm.DB) error {
		return db.Table("article_history AS h").
			Select("h.id, h.slug, a.title, h.user, h.summary, h.ts AS timestamp").
			Joins("JOIN articles AS a ON a.slug = h.slug").
			Order("h.ts DESC, h.id DESC").
			Limit(clampLimit(limit, 50)).
			Scan(&changes).Error
	})
	return changes, err
}

// Contributions lists the revisions made by user, newest first.
func (s *Store) Contributions(ctx context.Context, user string, limit int) ([]Change, error) {
	var changes []Change
	err := s.run(ctx, "contributions", func(db *gorm.DB) error {
		return db.Table("article_history AS h").
			Select("h.id, h.slug, COALESCE(a.title, h.slug) AS title, h.user, h.summary, h.ts AS timestamp").
			Joins("LEFT JOIN articles AS a ON a.slug = h.slug").
			Where("h.user = ?", user).
			Order("h.ts DESC, h.id DESC").
			Limit(clampLimit(limit, 200)).
			Scan(&changes).Error
	})
	return changes, err
}

// CountHistory returns the number of revisions across all articles.
func (s *Store) CountHistory(ctx context.Context) (int64, error) {
	var n int64
	err := s.run(ctx, "count_history", func(db *gorm.DB) error {
		return db.Model(&models.ArticleHistory{}).Count(&n).Error
	})
	return n, err
}
