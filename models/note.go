package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EncryptedNote is the server-side record of a client note. The payload is
// sealed on the device before upload, so the server only ever sees the
// ciphertext. Metadata is supplied by the client alongside the payload and is
// stored and returned as-is.
type EncryptedNote struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_notes_owner_client" json:"user_id"`
	ClientNoteID  int64           `gorm:"not null;uniqueIndex:idx_notes_owner_client" json:"client_note_id"`
	EncryptedData []byte          `gorm:"not null" json:"encrypted_data"`
	Metadata      json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Version       int64           `gorm:"not null;default:1" json:"version"`
	IsDeleted     bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;index" json:"updated_at"`
}

// BeforeCreate is a GORM hook that assigns the server id for a new note
func (n *EncryptedNote) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
