package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/awe/models"
)

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordPageView bumps the counter for path on the current day.
func (s *Store) RecordPageView(ctx context.Context, path string) error {
	now := s.now()
	return s.run(ctx, "record_page_view", func(db *gorm.DB) error {
		// Atomic upsert to avoid duplicate key errors under concurrency
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
		}).Create(&models.PageView{Date: dayOf(now), Path: path, Count: 1, UpdatedAt: now}).Error
	})
}

// PageViews returns the total views recorded for path, all days.
func (s *Store) PageViews(ctx context.Context, path string) (int64, error) {
	var total int64
	err := s.run(ctx, "page_views", func(db *gorm.DB) error {
		return db.Model(&models.PageView{}).Where("path = ?", path).Select("COALESCE(SUM(count),0)").Scan(&total).Error
	})
	return total, err
}

// PageViewsToday sums today's views across all paths.
func (s *Store) PageViewsToday(ctx context.Context) (int64, error) {
	var total int64
	err := s.run(ctx, "page_views_today", func(db *gorm.DB) error {
		return db.Model(&models.PageView{}).Where("date = ?", dayOf(s.now())).Select("COALESCE(SUM(count),0)").Scan(&total).Error
	})
	return total, err
}
