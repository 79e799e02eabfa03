package services

import (
	"errors"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Free tier limits. The note limit is configurable and lives on the service.
const (
	FreeTierOCRScansPerMonth = 20
	FreeTierExportsPerMonth  = 10
)

// UsageStats is the per-account usage report. Limit fields are nil for
// premium accounts, meaning unlimited.
type UsageStats struct {
	Tier             models.SubscriptionTier `json:"tier"`
	SyncedNotesCount int                     `json:"synced_notes_count"`
	SyncedNotesLimit *int                    `json:"synced_notes_limit,omitempty"`
	OCRScansMonth    int                     `json:"ocr_scans_month"`
	OCRScansLimit    *int                    `json:"ocr_scans_limit,omitempty"`
	ExportsMonth     int                     `json:"exports_month"`
	ExportsLimit     *int                    `json:"exports_limit,omitempty"`
	PeriodStart      time.Time               `json:"period_start"`
}

type UsageServiceInterface interface {
	CheckPushAllowed(db *database.Database, user *models.User, clientNoteIDs []int64) error
	RefreshSyncedCount(db *database.Database, userID uuid.UUID) (models.UsageTracking, error)
	RecordOCRScan(db *database.Database, user *models.User) (models.UsageTracking, error)
	RecordExport(db *database.Database, user *models.User) (models.UsageTracking, error)
	Stats(db *database.Database, user *models.User) (UsageStats, error)
}

type UsageService struct {
	clock     clock.Clock
	noteLimit int
}

func NewUsageService(clk clock.Clock, noteLimit int) *UsageService {
	return &UsageService{clock: clk, noteLimit: noteLimit}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *UsageService) getOrCreate(tx *gorm.DB, userID uuid.UUID) (models.UsageTracking, error) {
	var tracking models.UsageTracking
	err := tx.Where("user_id = ?", userID).First(&tracking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := s.clock.Now()
		tracking = models.UsageTracking{
			UserID:      userID,
			PeriodStart: monthStart(now),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&tracking).Error; err != nil {
			return tracking, err
		}
		return tracking, nil
	}
	return tracking, err
}

// rollover resets the monthly counters when the tracking row belongs to a
// previous calendar month.
func (s *UsageService) rollover(tx *gorm.DB, tracking *models.UsageTracking) error {
	now := s.clock.Now()
	start := monthStart(now)
	if !start.After(tracking.PeriodStart) {
		return nil
	}

	tracking.OCRScansMonth = 0
	tracking.ExportsMonth = 0
	tracking.PeriodStart = start
	tracking.UpdatedAt = now
	return tx.Model(tracking).Updates(map[string]interface{}{
		"ocr_scans_month": 0,
		"exports_month":   0,
		"period_start":    start,
		"updated_at":      now,
	}).Error
}

// CheckPushAllowed rejects a push when accepting its new notes would take a
// free account over the note limit. Only notes with no server record count
// as new; replays and updates are always allowed through.
func (s *UsageService) CheckPushAllowed(db *database.Database, user *models.User, clientNoteIDs []int64) error {
	if user.IsPremium(s.clock.Now()) {
		return nil
	}

	unique := make(map[int64]struct{}, len(clientNoteIDs))
	for _, id := range clientNoteIDs {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}

	var known int64
	if err := db.DB.Model(&models.EncryptedNote{}).
		Where("user_id = ? AND client_note_id IN ?", user.ID, ids).
		Count(&known).Error; err != nil {
		return err
	}

	var active int64
	if err := db.DB.Model(&models.EncryptedNote{}).
		Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Count(&active).Error; err != nil {
		return err
	}

	prospective := int64(len(ids)) - known
	if active+prospective > int64(s.noteLimit) {
		return ErrQuotaExceeded
	}
	return nil
}

// RefreshSyncedCount recounts the account's live notes and stores the
// result. Counting the table directly keeps the counter honest no matter
// what mix of creates, deletes and revivals a sync applied.
func (s *UsageService) RefreshSyncedCount(db *database.Database, userID uuid.UUID) (models.UsageTracking, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.UsageTracking{}, tx.Error
	}

	tracking, err := s.getOrCreate(tx, userID)
	if err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	var active int64
	if err := tx.Model(&models.EncryptedNote{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&active).Error; err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	tracking.SyncedNotesCount = int(active)
	tracking.UpdatedAt = s.clock.Now()
	if err := tx.Model(&tracking).Updates(map[string]interface{}{
		"synced_notes_count": tracking.SyncedNotesCount,
		"updated_at":         tracking.UpdatedAt,
	}).Error; err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	return tracking, nil
}

func (s *UsageService) RecordOCRScan(db *database.Database, user *models.User) (models.UsageTracking, error) {
	return s.recordMonthly(db, user, "ocr_scans_month", FreeTierOCRScansPerMonth)
}

func (s *UsageService) RecordExport(db *database.Database, user *models.User) (models.UsageTracking, error) {
	return s.recordMonthly(db, user, "exports_month", FreeTierExportsPerMonth)
}

func (s *UsageService) recordMonthly(db *database.Database, user *models.User, column string, limit int) (models.UsageTracking, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.UsageTracking{}, tx.Error
	}

	tracking, err := s.getOrCreate(tx, user.ID)
	if err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	if err := s.rollover(tx, &tracking); err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	now := s.clock.Now()
	current := tracking.OCRScansMonth
	if column == "exports_month" {
		current = tracking.ExportsMonth
	}

	if !user.IsPremium(now) && current >= limit {
		tx.Rollback()
		return tracking, ErrQuotaExceeded
	}

	current++
	if column == "exports_month" {
		tracking.ExportsMonth = current
	} else {
		tracking.OCRScansMonth = current
	}
	tracking.UpdatedAt = now

	if err := tx.Model(&tracking).Updates(map[string]interface{}{
		column:       current,
		"updated_at": now,
	}).Error; err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.UsageTracking{}, err
	}

	return tracking, nil
}

func (s *UsageService) Stats(db *database.Database, user *models.User) (UsageStats, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return UsageStats{}, tx.Error
	}

	tracking, err := s.getOrCreate(tx, user.ID)
	if err != nil {
		tx.Rollback()
		return UsageStats{}, err
	}

	if err := s.rollover(tx, &tracking); err != nil {
		tx.Rollback()
		return UsageStats{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return UsageStats{}, err
	}

	stats := UsageStats{
		Tier:             user.SubscriptionTier,
		SyncedNotesCount: tracking.SyncedNotesCount,
		OCRScansMonth:    tracking.OCRScansMonth,
		ExportsMonth:     tracking.ExportsMonth,
		PeriodStart:      tracking.PeriodStart,
	}

	if !user.IsPremium(s.clock.Now()) {
		noteLimit := s.noteLimit
		ocrLimit := FreeTierOCRScansPerMonth
		exportLimit := FreeTierExportsPerMonth
		stats.SyncedNotesLimit = &noteLimit
		stats.OCRScansLimit = &ocrLimit
		stats.ExportsLimit = &exportLimit
	}

	return stats, nil
}

var UsageServiceInstance UsageServiceInterface
