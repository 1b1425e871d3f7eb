package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Decision{},
		&types.BinaryParameters{},
		&types.WeightedChoice{},
		&types.Roll{},
		&types.WeightHistory{},
	)
}

// EnsureRollIndexes adds the indexes gorm tags cannot express. The partial
// unique index allows at most one unconfirmed roll per decision; both
// Postgres and SQLite support it.
func EnsureRollIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_roll_one_pending
		ON roll (decision_id)
		WHERE followed IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_roll_one_pending: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_roll_decision_created
		ON roll (decision_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_roll_decision_created: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_decision_owner_order
		ON decision (owner_user_id, display_order, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_decision_owner_order: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_weight_history_decision_changed
		ON weight_history (decision_id, changed_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_weight_history_decision_changed: %w", err)
	}
	return nil
}
