package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder is a plaintext organizational container. Clients derive ClientUUID
// deterministically from the folder title so every device arrives at the same
// id without coordination.
type Folder struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_folders_owner_uuid" json:"user_id"`
	ClientUUID string    `gorm:"size:255;not null;uniqueIndex:idx_folders_owner_uuid" json:"uuid"`
	Title      string    `gorm:"not null" json:"title"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate is a GORM hook that assigns an id for a new folder
func (f *Folder) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
