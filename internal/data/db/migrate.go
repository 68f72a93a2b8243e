package db

import (
	"fmt"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsurePersonalizationIndexes(db)
}

// EnsurePersonalizationIndexes creates the partial indexes gorm tags cannot express
// portably. The statements are valid on both PostgreSQL and SQLite.
func EnsurePersonalizationIndexes(db *gorm.DB) error {
	// At most one live recommendation per (student, content).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_recommendation_active_pair
		ON recommendation (student_id, content_id)
		WHERE is_active = true;
	`).Error; err != nil {
		return fmt.Errorf("create idx_recommendation_active_pair: %w", err)
	}

	// Expiry sweep scans.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recommendation_active_expires
		ON recommendation (expires_at)
		WHERE is_active = true;
	`).Error; err != nil {
		return fmt.Errorf("create idx_recommendation_active_expires: %w", err)
	}

	// Gated insight listing.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_adaptive_insight_presentable
		ON adaptive_insight (user_id, confidence)
		WHERE presented = false AND response = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_adaptive_insight_presentable: %w", err)
	}
	return nil
}
