package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageTracking holds per-user counters for free-tier limits. The synced
// notes counter is permanent; the OCR and export counters reset monthly
// (PeriodStart marks the current window).
type UsageTracking struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	SyncedNotesCount int       `gorm:"not null;default:0" json:"synced_notes_count"`
	OCRScansMonth    int       `gorm:"not null;default:0" json:"ocr_scans_month"`
	ExportsMonth     int       `gorm:"not null;default:0" json:"exports_month"`
	PeriodStart      time.Time `gorm:"not null" json:"period_start"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate is a GORM hook that assigns an id for a new tracking row
func (u *UsageTracking) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
