package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncOperation is the kind of change a sync event records.
type SyncOperation string

// Sync operations
const (
	SyncOpCreate SyncOperation = "create"
	SyncOpUpdate SyncOperation = "update"
	SyncOpDelete SyncOperation = "delete"
)

// SyncEvent is one accepted note mutation. Rows are appended in the same
// transaction as the mutation they describe, then picked up by the outbox
// dispatcher and published to the broker.
type SyncEvent struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	DeviceID      string        `gorm:"size:255;not null" json:"device_id"`
	NoteID        uuid.UUID     `gorm:"type:uuid;not null" json:"note_id"`
	ClientNoteID  int64         `gorm:"not null" json:"client_note_id"`
	Operation     SyncOperation `gorm:"type:varchar(20);not null" json:"operation"`
	ResultVersion int64         `gorm:"not null" json:"result_version"`
	Timestamp     time.Time     `gorm:"not null;index" json:"timestamp"`
	Dispatched    bool          `gorm:"not null;default:false;index" json:"dispatched"`
	DispatchedAt  *time.Time    `json:"dispatched_at,omitempty"`
}

// NewSyncEvent builds the journal row for an accepted mutation.
func NewSyncEvent(userID uuid.UUID, deviceID string, noteID uuid.UUID, clientNoteID int64, op SyncOperation, resultVersion int64, at time.Time) *SyncEvent {
	return &SyncEvent{
		ID:            uuid.New(),
		UserID:        userID,
		DeviceID:      deviceID,
		NoteID:        noteID,
		ClientNoteID:  clientNoteID,
		Operation:     op,
		ResultVersion: resultVersion,
		Timestamp:     at,
	}
}

func (e *SyncEvent) FromJSON(data []byte) error {
	return json.Unmarshal(data, e)
}

func (e *SyncEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BeforeCreate is a GORM hook that assigns an id for a new sync event
func (e *SyncEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
