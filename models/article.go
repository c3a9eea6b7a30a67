package models

import (
	"strings"
	"time"
)

const (
	// ProfilePrefix marks the pseudo-articles that hold user profiles.
	ProfilePrefix = "user:"
	// MaxSlugLen bounds slugs in runes on every dialect, matching the column size.
	MaxSlugLen = 255
)

// Article is the live state of a wiki page. Slug never changes after creation.
type Article struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slug       string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	LastEdited time.Time `gorm:"index" json:"last_edited"`
	// LastEditor is a plain username, the account may no longer exist
	LastEditor  string           `gorm:"size:64" json:"last_editor"`
	History     []ArticleHistory `gorm:"foreignKey:Slug;references:Slug;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Discussions []Discussion     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// ProfileSlug returns the slug of a user's profile article.
func ProfileSlug(username string) string {
	return ProfilePrefix + username
}

// ProfileOwner returns the username a profile slug belongs to.
func ProfileOwner(slug string) (string, bool) {
	if !strings.HasPrefix(slug, ProfilePrefix) {
		return "", false
	}
	name := strings.TrimPrefix(slug, ProfilePrefix)
	return name, name != ""
}
