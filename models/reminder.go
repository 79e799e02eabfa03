package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder is a backend-scheduled notification. Title and description are
// stored in the clear because the server has to render the push notification;
// clients only put non-sensitive text here.
type Reminder struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_reminders_owner" json:"user_id"`
	ClientNoteID int64      `gorm:"not null;index" json:"client_note_id"`
	Title        string     `gorm:"size:500;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	RemindAt     time.Time  `gorm:"not null;index:idx_reminders_due" json:"remind_at"`
	IsTriggered  bool       `gorm:"not null;default:false;index:idx_reminders_due" json:"is_triggered"`
	TriggeredAt  *time.Time `json:"triggered_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// IsDue reports whether the reminder should fire at now.
func (r *Reminder) IsDue(now time.Time) bool {
	return !r.IsTriggered && !now.Before(r.RemindAt)
}

// BeforeCreate is a GORM hook that assigns an id for a new reminder
func (r *Reminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
