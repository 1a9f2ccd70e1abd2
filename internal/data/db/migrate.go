package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// EnsureCourseIndexes adds the indexes gorm tags cannot express. Both
// statements are idempotent.
func EnsureCourseIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_status_created_at
		ON course (status, created_at DESC)
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_status_created_at: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_lower_title
		ON course (LOWER(title))
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_lower_title: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_review_course_created_at
		ON course_review (course_id, created_at)
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_review_course_created_at: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCourseIndexes(s.db); err != nil {
		s.log.Error("Course index migration failed", "error", err)
		return err
	}
	return nil
}
