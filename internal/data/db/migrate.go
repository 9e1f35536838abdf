package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Content catalogue
		&types.Story{},
		&types.InfoCard{},
		&types.Keyword{},

		// Device view log
		&types.ViewRecord{},
	)
}

// EnsureFeedIndexes adds the composite indexes behind the paged story query.
// Both postgres and sqlite accept the statements.
func EnsureFeedIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_story_status_level_created
		ON story (story_status, level, created_at, id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_story_status_level_created: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_info_card_sort
		ON info_card (sort_order, id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_info_card_sort: %w", err)
	}
	return nil
}
