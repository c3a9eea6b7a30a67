package models

import "time"

// Discussion is either a topic (ParentID nil) or a reply to a topic of the same article.
type Discussion struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ArticleID  uint         `gorm:"index;not null" json:"article_id"`
	ParentID   *uint        `gorm:"index" json:"parent_id,omitempty"`
	TopicTitle *string      `gorm:"size:255" json:"topic_title,omitempty"`
	Comment    string       `gorm:"column:comment_text;type:text;not null" json:"comment_text"`
	User       string       `gorm:"size:64" json:"user"`
	ReplyTo    *string      `gorm:"size:255" json:"reply_to,omitempty"`
	Timestamp  time.Time    `gorm:"column:ts;index;not null" json:"ts"`
	Replies    []Discussion `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"replies,omitempty"`
}

// IsTopic reports whether d is a top-level entry.
func (d Discussion) IsTopic() bool {
	return d.ParentID == nil
}
