package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PushRequest is one device's batch of locally-changed notes.
type PushRequest struct {
	DeviceID string          `json:"device_id" validate:"required"`
	Notes    []PushNoteEntry `json:"notes"`
}

// PushNoteEntry is one client note state inside a push batch. Version is the
// basis the client believes it is updating from and is omitted on creation.
// ServerID optionally echoes the id a previous response assigned.
type PushNoteEntry struct {
	ClientNoteID  int64           `json:"client_note_id" validate:"gt=0"`
	ServerID      string          `json:"server_id,omitempty" validate:"omitempty,uuid"`
	EncryptedData string          `json:"encrypted_data" validate:"required,base64"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Version       int64           `json:"version,omitempty" validate:"gte=0"`
}

// NoteConflict pairs a rejected client state with the server state that beat
// it, so the client can re-derive a merge locally.
type NoteConflict struct {
	ClientNoteID int64                 `json:"client_note_id"`
	ClientState  PushNoteEntry         `json:"client_state"`
	ServerState  *models.EncryptedNote `json:"server_state"`
}

// EntryRejection reports one batch entry that was not applied. Rejections
// never abort sibling entries.
type EntryRejection struct {
	ClientNoteID int64  `json:"client_note_id"`
	Reason       string `json:"reason"`
	Detail       string `json:"detail,omitempty"`
}

// Rejection reasons
const (
	RejectValidation   = "validation"
	RejectUnauthorized = "unauthorized"
	RejectIdentityGone = "identity_gone"
)

// PushResult aggregates the per-entry outcomes of one push batch.
type PushResult struct {
	SyncedCount  int                    `json:"synced_count"`
	UpdatedNotes []models.EncryptedNote `json:"updated_notes"`
	Conflicts    []NoteConflict         `json:"conflicts"`
	Rejected     []EntryRejection       `json:"rejected,omitempty"`
	Message      string                 `json:"message"`
}

type SyncServiceInterface interface {
	PushNotes(db *database.Database, userID uuid.UUID, req PushRequest) (PushResult, error)
}

// SyncService reconciles pushed note states against the store. Each entry is
// classified and applied inside its own transaction; entries for different
// notes never block each other and one entry's rejection or conflict leaves
// the rest of the batch untouched.
type SyncService struct {
	store    NoteStoreInterface
	clock    clock.Clock
	validate *validator.Validate
}

// maxPushAttempts bounds the re-read-and-reclassify loop for one entry when
// concurrent writers keep advancing the row between read and write.
const maxPushAttempts = 3

type entryOutcome struct {
	note      *models.EncryptedNote
	conflict  *NoteConflict
	rejection *EntryRejection
}

func rejectionOutcome(clientNoteID int64, reason, detail string) entryOutcome {
	return entryOutcome{rejection: &EntryRejection{ClientNoteID: clientNoteID, Reason: reason, Detail: detail}}
}

func (s *SyncService) PushNotes(db *database.Database, userID uuid.UUID, req PushRequest) (PushResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return PushResult{}, fmt.Errorf("%w: device_id is required", ErrValidation)
	}

	result := PushResult{
		UpdatedNotes: []models.EncryptedNote{},
		Conflicts:    []NoteConflict{},
	}

	for _, entry := range req.Notes {
		outcome, err := s.applyEntry(db, userID, req.DeviceID, entry)
		if err != nil {
			log.Printf("Push aborted for user %s: %v", userID, err)
			return PushResult{}, err
		}

		switch {
		case outcome.note != nil:
			result.SyncedCount++
			result.UpdatedNotes = append(result.UpdatedNotes, *outcome.note)
		case outcome.conflict != nil:
			result.Conflicts = append(result.Conflicts, *outcome.conflict)
		case outcome.rejection != nil:
			result.Rejected = append(result.Rejected, *outcome.rejection)
		}
	}

	result.Message = fmt.Sprintf("Successfully synced %d notes", result.SyncedCount)
	return result, nil
}

// applyEntry validates one entry and drives its classify-and-apply loop.
// Entry-scoped problems come back inside the outcome; only store-level
// failures return an error, which fails the whole request as retriable.
func (s *SyncService) applyEntry(db *database.Database, userID uuid.UUID, deviceID string, entry PushNoteEntry) (entryOutcome, error) {
	if err := s.validate.Struct(entry); err != nil {
		return rejectionOutcome(entry.ClientNoteID, RejectValidation, err.Error()), nil
	}

	payload, err := base64.StdEncoding.DecodeString(entry.EncryptedData)
	if err != nil {
		return rejectionOutcome(entry.ClientNoteID, RejectValidation, "invalid base64 encoding"), nil
	}

	incoming := IncomingNote{
		ClientNoteID: entry.ClientNoteID,
		Payload:      payload,
		Metadata:     entry.Metadata,
		BasisVersion: entry.Version,
	}

	if entry.ServerID != "" {
		serverID, err := uuid.Parse(entry.ServerID)
		if err != nil {
			return rejectionOutcome(entry.ClientNoteID, RejectValidation, "invalid server id"), nil
		}
		incoming.ServerID = serverID
	}

	for attempt := 0; attempt < maxPushAttempts; attempt++ {
		outcome, retry, err := s.applyOnce(db, userID, deviceID, entry, incoming)
		if err != nil {
			return entryOutcome{}, err
		}
		if !retry {
			return outcome, nil
		}
	}

	return entryOutcome{}, fmt.Errorf("%w: note %d contended past %d attempts", ErrStorageFailure, entry.ClientNoteID, maxPushAttempts)
}

// applyOnce runs one classify-and-apply pass in its own transaction. retry
// is true when a concurrent writer invalidated what this pass read, in which
// case the caller re-reads and re-classifies against the fresh row.
func (s *SyncService) applyOnce(db *database.Database, userID uuid.UUID, deviceID string, entry PushNoteEntry, incoming IncomingNote) (entryOutcome, bool, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, tx.Error)
	}

	stored, err := s.store.GetByClientNoteID(tx, userID, incoming.ClientNoteID)
	if err != nil {
		tx.Rollback()
		return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	// A server id echo that does not line up with the caller's own record
	// means the entry refers to someone else's note. Reject without leaking
	// whatever that id points at.
	if incoming.ServerID != uuid.Nil && (stored == nil || stored.ID != incoming.ServerID) {
		tx.Rollback()
		return rejectionOutcome(incoming.ClientNoteID, RejectUnauthorized, "server id does not match a note owned by this account"), false, nil
	}

	identityGone := false
	if stored == nil {
		identityGone, err = s.store.IsDeletionRecorded(tx, userID, incoming.ClientNoteID)
		if err != nil {
			tx.Rollback()
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
	}

	now := s.clock.Now().UTC().Truncate(time.Second)

	switch ClassifyChange(stored, identityGone, incoming) {
	case ChangeIdentityGone:
		tx.Rollback()
		return rejectionOutcome(incoming.ClientNoteID, RejectIdentityGone, "this note id was permanently deleted and cannot be recreated"), false, nil

	case ChangeNoop:
		tx.Rollback()
		return entryOutcome{note: stored}, false, nil

	case ChangeConflict:
		tx.Rollback()
		return entryOutcome{conflict: &NoteConflict{
			ClientNoteID: incoming.ClientNoteID,
			ClientState:  entry,
			ServerState:  stored,
		}}, false, nil

	case ChangeCreate:
		note := &models.EncryptedNote{
			ID:            uuid.New(),
			UserID:        userID,
			ClientNoteID:  incoming.ClientNoteID,
			EncryptedData: incoming.Payload,
			Metadata:      incoming.Metadata,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := s.store.Create(tx, note); err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return entryOutcome{}, true, nil
			}
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		event := models.NewSyncEvent(userID, deviceID, note.ID, note.ClientNoteID, models.SyncOpCreate, note.Version, now)
		if err := tx.Create(event).Error; err != nil {
			tx.Rollback()
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		if err := tx.Commit().Error; err != nil {
			tx.Rollback()
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		return entryOutcome{note: note}, false, nil

	case ChangeUpdate:
		next := *stored
		next.EncryptedData = incoming.Payload
		next.Metadata = incoming.Metadata
		next.Version = stored.Version + 1
		next.IsDeleted = false
		next.UpdatedAt = now

		applied, err := s.store.UpdateWithVersionCheck(tx, &next, stored.Version)
		if err != nil {
			tx.Rollback()
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		if !applied {
			tx.Rollback()
			return entryOutcome{}, true, nil
		}

		event := models.NewSyncEvent(userID, deviceID, next.ID, next.ClientNoteID, models.SyncOpUpdate, next.Version, now)
		if err := tx.Create(event).Error; err != nil {
			tx.Rollback()
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		if err := tx.Commit().Error; err != nil {
			tx.Rollback()
			return entryOutcome{}, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		return entryOutcome{note: &next}, false, nil
	}

	tx.Rollback()
	return entryOutcome{}, false, fmt.Errorf("%w: unknown change classification", ErrInternal)
}

// NewSyncService creates a new instance of SyncService
func NewSyncService(store NoteStoreInterface, clk clock.Clock) SyncServiceInterface {
	return &SyncService{
		store:    store,
		clock:    clk,
		validate: validator.New(),
	}
}

// Don't initialize here, will be set properly in main.go
var SyncServiceInstance SyncServiceInterface
