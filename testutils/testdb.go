package testutils

import (
	"fmt"
	"sync/atomic"
	"testing"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDBCounter gives every test its own in-memory database name so tests
// never share state.
var testDBCounter atomic.Int64

// SetupTestDB opens a fresh in-memory SQLite database with the full schema
// migrated. The pool is capped at one connection so transactions from
// concurrent goroutines serialize instead of tripping SQLite's writer lock.
func SetupTestDB(t testing.TB) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:pinpointtest%d?mode=memory&cache=shared&_busy_timeout=5000&_txlock=immediate", testDBCounter.Add(1))

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = gormDB.AutoMigrate(
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
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return &database.Database{DB: gormDB}
}
