package database

import (
	"hallbook/internal/seats"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&seats.Seat{},
	)
}
