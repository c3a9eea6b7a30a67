package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/awe/models"
)

// CreateUpload records a stored file.
func (s *Store) CreateUpload(ctx context.Context, f *models.UploadedFile) error {
	if f.StoredName == "" || f.DisplayName == "" {
		return fmt.Errorf("%w: stored name and display name are required", ErrInvalidInput)
	}
	return s.run(ctx, "create_upload", func(db *gorm.DB) error {
		return db.Create(f).Error
	})
}

// ListUploads returns the newest uploads, at most limit.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := s.run(ctx, "list_uploads", func(db *gorm.DB) error {
		return db.Order("created_at DESC, id DESC").Limit(clampLimit(limit, 100)).Find(&files).Error
	})
	return files, err
}

// GetUpload finds an upload by its stored name.
func (s *Store) GetUpload(ctx context.Context, storedName string) (*models.UploadedFile, error) {
	var f models.UploadedFile
	err := s.run(ctx, "get_upload", func(db *gorm.DB) error {
		return db.Where("stored_name = ?", storedName).First(&f).Error
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}
