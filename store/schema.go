package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/awe/models"
)

// mysqlTableOptions makes slugs and usernames compare byte for byte, as they do on SQLite.
const mysqlTableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

// Migrate creates missing tables, columns and indexes. Safe to run on every boot.
// Tables created earlier keep their collation.
func (s *Store) Migrate(ctx context.Context) error {
	return s.run(ctx, "migrate", func(db *gorm.DB) error {
		if s.Dialect() == "mysql" {
			db = db.Set("gorm:table_options", mysqlTableOptions)
		}
		return db.AutoMigrate(models.All()...)
	})
}

// SeedData is what an empty database is initialized with.
type SeedData struct {
	AdminUsername     string
	AdminPasswordHash string
	WelcomeSlug       string
	WelcomeTitle      string
	WelcomeContent    string
}

// Seed inserts the admin account and the welcome article when the database
// holds no users and no articles. The check and the inserts share one
// transaction, so concurrent boots seed at most once. The welcome article
// gets no history row.
func (s *Store) Seed(ctx context.Context, data SeedData) (bool, error) {
	if data.AdminUsername == "" || data.AdminPasswordHash == "" || data.WelcomeSlug == "" {
		return false, fmt.Errorf("%w: incomplete seed data", ErrInvalidInput)
	}
	seeded := false
	err := s.WithTx(ctx, func(tx *Store) error {
		var users, articles int64
		if err := tx.db.Model(&models.User{}).Count(&users).Error; err != nil {
			return err
		}
		if err := tx.db.Model(&models.Article{}).Count(&articles).Error; err != nil {
			return err
		}
		if users > 0 || articles > 0 {
			return nil
		}

		admin := models.User{Username: data.AdminUsername, PasswordHash: data.AdminPasswordHash, IsAdmin: true}
		if err := tx.db.Create(&admin).Error; err != nil {
			return classify(err)
		}
		title := data.WelcomeTitle
		if title == "" {
			title = data.WelcomeSlug
		}
		welcome := models.Article{
			Slug:       data.WelcomeSlug,
			Title:      title,
			Content:    data.WelcomeContent,
			LastEdited: tx.now(),
			LastEditor: data.AdminUsername,
		}
		if err := tx.db.Omit(clause.Associations).Create(&welcome).Error; err != nil {
			return classify(err)
		}
		seeded = true
		return nil
	})
	if errors.Is(err, ErrConflict) {
		// another process seeded between our count and insert
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if seeded {
		s.log.Info("database seeded", zap.String("admin", data.AdminUsername), zap.String("welcome", data.WelcomeSlug))
	}
	return seeded, nil
}
