package store

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/awe/models"
)

// GetArticle returns the article with the exact slug.
func (s *Store) GetArticle(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	err := s.run(ctx, "get_article", func(db *gorm.DB) error {
		return db.Where("slug = ?", slug).First(&article).Error
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticleForUpdate reads the article and, on dialects with row locks, holds
// the lock until the surrounding transaction ends.
func (s *Store) GetArticleForUpdate(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	err := s.run(ctx, "get_article_for_update", func(db *gorm.DB) error {
		if s.Dialect() != "sqlite" {
			db = db.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return db.Where("slug = ?", slug).First(&article).Error
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// CreateArticle inserts a new article if the slug is free. A taken slug is
// reported as ErrConflict; the existing row is left untouched.
func (s *Store) CreateArticle(ctx context.Context, slug, title, content, editor string) (*models.Article, error) {
	if slug == "" || title == "" {
		return nil, fmt.Errorf("%w: slug and title are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(slug) > models.MaxSlugLen {
		return nil, fmt.Errorf("%w: slug longer than %d characters", ErrInvalidInput, models.MaxSlugLen)
	}
	article := models.Article{
		Slug:       slug,
		Title:      title,
		Content:    content,
		LastEdited: s.now(),
		LastEditor: editor,
	}
	err := s.run(ctx, "create_article", func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(&article).Error
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// UpdateArticleContent overwrites the live body and edit metadata.
func (s *Store) UpdateArticleContent(ctx context.Context, id uint, content, editor string, at time.Time) error {
	return s.run(ctx, "update_article", func(db *gorm.DB) error {
		res := db.Model(&models.Article{}).Where("id = ?", id).Updates(map[string]interface{}{
			"content":     content,
			"last_edited": at,
			"last_editor": editor,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountArticles returns the number of articles.
func (s *Store) CountArticles(ctx context.Context) (int64, error) {
	var n int64
	err := s.run(ctx, "count_articles", func(db *gorm.DB) error {
		return db.Model(&models.Article{}).Count(&n).Error
	})
	return n, err
}

// RandomSlug picks a slug uniformly among all articles. ErrNotFound when there are none.
func (s *Store) RandomSlug(ctx context.Context) (string, error) {
	var slug string
	err := s.run(ctx, "random_slug", func(db *gorm.DB) error {
		// Articles are never deleted, but a concurrent insert can shift offsets; retry a few times
		for i := 0; i < 3; i++ {
			var n int64
			if err := db.Model(&models.Article{}).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			var slugs []string
			if err := db.Model(&models.Article{}).Order("id").Offset(s.intn(int(n))).Limit(1).Pluck("slug", &slugs).Error; err != nil {
				return err
			}
			if len(slugs) == 1 {
				slug = slugs[0]
				return nil
			}
		}
		return ErrNotFound
	})
	return slug, err
}

// FindByTitleSubstring returns the first article, by id, whose title contains needle.
// The match is case-sensitive regardless of the database collation.
func (s *Store) FindByTitleSubstring(ctx context.Context, needle string) (*models.Article, error) {
	if needle == "" {
		return nil, ErrNotFound
	}
	var found *models.Article
	err := s.run(ctx, "find_by_title", func(db *gorm.DB) error {
		const page = 200
		// LIKE only narrows, its case rules depend on the dialect; the exact check below decides
		pattern := "%" + escapeLike(needle) + "%"
		for offset := 0; ; offset += page {
			var batch []models.Article
			if err := db.Where("title LIKE ? ESCAPE '!'", pattern).Order("id").Offset(offset).Limit(page).Find(&batch).Error; err != nil {
				return err
			}
			for i := range batch {
				if strings.Contains(batch[i].Title, needle) {
					found = &batch[i]
					return nil
				}
			}
			if len(batch) < page {
				return ErrNotFound
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Search matches q against titles and bodies, at most limit rows.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]models.Article, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Article{}, nil
	}
	pattern := "%" + escapeLike(q) + "%"
	var results []models.Article
	err := s.run(ctx, "search", func(db *gorm.DB) error {
		// LOWER keeps search case-insensitive under the binary collation used on MySQL
		return db.Where("LOWER(title) LIKE LOWER(?) ESCAPE '!' OR LOWER(content) LIKE LOWER(?) ESCAPE '!'", pattern, pattern).
			Order("title").
			Limit(clampLimit(limit, 50)).
			Find(&results).Error
	})
	return results, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
