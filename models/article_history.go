package models

import "time"

// ArticleHistory is an immutable snapshot of an article body, appended on every edit.
type ArticleHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:255;index:idx_history_slug_ts;not null" json:"slug"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"column:ts;index:idx_history_slug_ts;index:idx_history_ts;not null" json:"ts"`
	User      string    `gorm:"size:64;index" json:"user"`
	Summary   *string   `gorm:"size:512" json:"summary,omitempty"`
}

func (ArticleHistory) TableName() string {
	return "article_history"
}
