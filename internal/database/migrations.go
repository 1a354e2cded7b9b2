package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/exiletally/deck-tracker/backend/internal/models"
)

// cleanupDuplicateSessionCards removes duplicate ledger rows before the
// unique (session_id, name) constraint is added. Runs BEFORE AutoMigrate to
// prevent constraint violations on databases written by older builds.
func cleanupDuplicateSessionCards(db *gorm.DB) error {
	if !db.Migrator().HasTable("session_cards") {
		return nil
	}

	// Fold duplicate rows into the newest one, keeping the summed count.
	result := db.Exec(`
		UPDATE session_cards SET count = (
			SELECT SUM(c.count) FROM session_cards c
			WHERE c.session_id = session_cards.session_id AND c.name = session_cards.name
		)
		WHERE id IN (
			SELECT MAX(id) FROM session_cards GROUP BY session_id, name HAVING COUNT(*) > 1
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	result = db.Exec(`
		DELETE FROM session_cards
		WHERE id NOT IN (
			SELECT MAX(id) FROM session_cards GROUP BY session_id, name
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate session_cards entries", result.RowsAffected)
	}

	return nil
}

// normalizeHideFlags backfills NULL visibility flags left by pre-flag
// schema versions.
func normalizeHideFlags(db *gorm.DB) error {
	if !db.Migrator().HasTable("session_cards") {
		return nil
	}
	if err := db.Exec(`UPDATE session_cards SET hide_from_exchange = 0 WHERE hide_from_exchange IS NULL`).Error; err != nil {
		return err
	}
	return db.Exec(`UPDATE session_cards SET hide_from_stash = 0 WHERE hide_from_stash IS NULL`).Error
}

// Migrate runs cleanup migrations followed by the schema auto-migration.
func Migrate(db *gorm.DB) error {
	if err := cleanupDuplicateSessionCards(db); err != nil {
		return err
	}
	if err := normalizeHideFlags(db); err != nil {
		return err
	}

	return db.AutoMigrate(
		&models.League{},
		&models.Session{},
		&models.SessionCard{},
		&models.PriceSnapshot{},
		&models.SnapshotPrice{},
		&models.SessionSummaryRow{},
		&models.DivinationCard{},
		&models.CardRarityOverride{},
	)
}
