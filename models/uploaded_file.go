package models

import "time"

// UploadedFile records a file stored under the upload directory and its description.
type UploadedFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoredName   string    `gorm:"size:64;uniqueIndex;not null" json:"stored_name"` // uuid hex + extension
	OriginalName string    `gorm:"size:255" json:"original_name"`
	DisplayName  string    `gorm:"size:255;not null" json:"display_name"`
	Description  string    `gorm:"type:text" json:"description"`
	ContentType  string    `gorm:"size:128" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Uploader     string    `gorm:"size:64;index" json:"uploader"`
	URL          string    `gorm:"size:1024;not null" json:"url"` // public URL like /uploads/<stored_name>
	CreatedAt    time.Time `json:"created_at"`
}
