package database

import (
	"log"

	"pinpoint-notes/pinpoint/models"

	"gorm.io/gorm"
)

// RunMigrations runs database migrations to ensure tables are up to date
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Add all models that should be migrated
	err := db.AutoMigrate(
		&models.User{},
		&models.EncryptedNote{},
		&models.NoteDeletion{},
		&models.SyncEvent{},
		&models.Device{},
		&models.Folder{},
		&models.Reminder{},
		&models.EncryptionKey{},
		&models.UsageTracking{},
		&models.SubscriptionEvent{},
	)

	if err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}

	return nil
}
