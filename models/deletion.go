package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteDeletion records a hard-deleted note identity. The note row itself is
// gone; this registry exists so a later create for the same identity can be
// rejected instead of silently resurrecting the note. Deletion rows are never
// returned by pull.
type NoteDeletion struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_deletions_owner_client" json:"user_id"`
	ClientNoteID int64     `gorm:"not null;uniqueIndex:idx_deletions_owner_client" json:"client_note_id"`
	NoteID       uuid.UUID `gorm:"type:uuid;not null" json:"note_id"`
	DeletedAt    time.Time `gorm:"not null" json:"deleted_at"`
}

// BeforeCreate is a GORM hook that assigns an id for a new deletion record
func (d *NoteDeletion) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
