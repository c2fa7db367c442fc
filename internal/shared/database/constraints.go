package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes AutoMigrate cannot express. The expiry
// watchdog scans only seats in checkout, and the holds listing filters by
// holder; both get partial indexes so the hot queries never touch sold rows.
func MigrateConstraints(db *gorm.DB) error {
	// Partial index for the expiry sweep: only live checkout holds carry a
	// deadline worth scanning.
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_checkout_locked_at
		ON seats_v2 (locked_at)
		WHERE status = 'CHECKOUT';
	`).Error
	if err != nil {
		return err
	}

	// Partial index for per-session hold listing.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_holder_status
		ON seats_v2 (locked_by, status)
		WHERE locked_by IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
