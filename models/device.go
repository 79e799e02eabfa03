package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device is one installed client belonging to a user. The push token is the
// FCM registration token for that install and may be empty when the client
// declined notification permission.
type Device struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_devices_owner_device" json:"user_id"`
	DeviceID   string     `gorm:"size:255;not null;uniqueIndex:idx_devices_owner_device" json:"device_id"`
	Platform   string     `gorm:"size:20;not null;default:'android'" json:"platform"`
	PushToken  string     `gorm:"size:500" json:"-"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// BeforeCreate is a GORM hook that assigns an id for a new device
func (d *Device) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
