package database

import (
	"github.com/fleetline/fleetline-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Trip{},
		&models.Reservation{},
		&models.Message{},
	)
	if err != nil {
		return err
	}

	// Status check constraints
	if db.Migrator().HasTable(&models.Trip{}) {
		db.Exec(`ALTER TABLE trips DROP CONSTRAINT IF EXISTS trips_status_check`)
		if err := db.Exec(`ALTER TABLE trips ADD CONSTRAINT trips_status_check CHECK (status IN ('scheduled', 'in_progress', 'completed', 'cancelled'))`).Error; err != nil {
			return err
		}
	}

	if db.Migrator().HasTable(&models.Driver{}) {
		db.Exec(`ALTER TABLE drivers DROP CONSTRAINT IF EXISTS drivers_status_check`)
		if err := db.Exec(`ALTER TABLE drivers ADD CONSTRAINT drivers_status_check CHECK (status IN ('active', 'offline'))`).Error; err != nil {
			return err
		}
	}

	if db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`)
		if err := db.Exec(`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('passenger', 'driver'))`).Error; err != nil {
			return err
		}
	}

	// The sweep scans by expiry mark; make sure the partial case is cheap
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_expires_at_live ON messages (expires_at) WHERE expires_at IS NOT NULL`).Error; err != nil {
		return err
	}

	return nil
}
