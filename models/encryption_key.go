package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EncryptionKey escrows the client's wrapped note key so an account can be
// restored on a new device. The blob is opaque to the server.
type EncryptionKey struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	KeyData   string    `gorm:"size:255;not null" json:"encryption_key"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate is a GORM hook that assigns an id for a new key record
func (k *EncryptionKey) BeforeCreate(tx *gorm.DB) (err error) {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
