package services

import (
	"fmt"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
)

type DeleteServiceInterface interface {
	SoftDeleteNotes(db *database.Database, userID uuid.UUID, deviceID string, clientNoteIDs []int64) (int64, error)
	HardDeleteNotes(db *database.Database, userID uuid.UUID, deviceID string, clientNoteIDs []int64) (int64, error)
}

// DeleteService applies soft and hard deletes. Soft deletes leave a
// tombstone with a bumped version so other devices learn of the removal on
// their next pull; hard deletes drop the row entirely and only the deletion
// registry remembers the identity. Ids that do not exist, belong to another
// owner, or are already tombstoned are skipped and not counted.
type DeleteService struct {
	store        NoteStoreInterface
	clock        clock.Clock
	clearPayload bool
}

func (s *DeleteService) SoftDeleteNotes(db *database.Database, userID uuid.UUID, deviceID string, clientNoteIDs []int64) (int64, error) {
	var deleted int64

	for _, clientNoteID := range clientNoteIDs {
		applied, err := s.softDeleteOne(db, userID, deviceID, clientNoteID)
		if err != nil {
			return deleted, err
		}
		if applied {
			deleted++
		}
	}

	return deleted, nil
}

// softDeleteOne tombstones a single note in its own transaction. A lost
// version check means a push for the same note committed first; the fresh
// state is re-read and the delete retried against it.
func (s *DeleteService) softDeleteOne(db *database.Database, userID uuid.UUID, deviceID string, clientNoteID int64) (bool, error) {
	for attempt := 0; attempt < maxPushAttempts; attempt++ {
		tx := db.DB.Begin()
		if tx.Error != nil {
			return false, fmt.Errorf("%w: %v", ErrStorageFailure, tx.Error)
		}

		stored, err := s.store.GetByClientNoteID(tx, userID, clientNoteID)
		if err != nil {
			tx.Rollback()
			return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		if stored == nil || stored.IsDeleted {
			tx.Rollback()
			return false, nil
		}

		now := s.clock.Now().UTC().Truncate(time.Second)

		tombstone := *stored
		tombstone.Version = stored.Version + 1
		tombstone.IsDeleted = true
		tombstone.UpdatedAt = now
		if s.clearPayload {
			tombstone.EncryptedData = []byte{}
			tombstone.Metadata = nil
		}

		applied, err := s.store.UpdateWithVersionCheck(tx, &tombstone, stored.Version)
		if err != nil {
			tx.Rollback()
			return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		if !applied {
			tx.Rollback()
			continue
		}

		event := models.NewSyncEvent(userID, deviceID, tombstone.ID, clientNoteID, models.SyncOpDelete, tombstone.Version, now)
		if err := tx.Create(event).Error; err != nil {
			tx.Rollback()
			return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		if err := tx.Commit().Error; err != nil {
			tx.Rollback()
			return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		return true, nil
	}

	return false, fmt.Errorf("%w: note %d contended past %d attempts", ErrStorageFailure, clientNoteID, maxPushAttempts)
}

func (s *DeleteService) HardDeleteNotes(db *database.Database, userID uuid.UUID, deviceID string, clientNoteIDs []int64) (int64, error) {
	var deleted int64

	for _, clientNoteID := range clientNoteIDs {
		tx := db.DB.Begin()
		if tx.Error != nil {
			return deleted, fmt.Errorf("%w: %v", ErrStorageFailure, tx.Error)
		}

		removed, err := s.store.DeleteRow(tx, userID, clientNoteID)
		if err != nil {
			tx.Rollback()
			return deleted, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		if removed == nil {
			tx.Rollback()
			continue
		}

		now := s.clock.Now().UTC().Truncate(time.Second)

		deletion := &models.NoteDeletion{
			UserID:       userID,
			ClientNoteID: clientNoteID,
			NoteID:       removed.ID,
			DeletedAt:    now,
		}
		if err := s.store.RecordDeletion(tx, deletion); err != nil {
			tx.Rollback()
			return deleted, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		event := models.NewSyncEvent(userID, deviceID, removed.ID, clientNoteID, models.SyncOpDelete, removed.Version, now)
		if err := tx.Create(event).Error; err != nil {
			tx.Rollback()
			return deleted, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		if err := tx.Commit().Error; err != nil {
			tx.Rollback()
			return deleted, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		deleted++
	}

	return deleted, nil
}

// NewDeleteService creates a new instance of DeleteService. clearPayload
// controls whether soft deletes blank the stored ciphertext or retain it.
func NewDeleteService(store NoteStoreInterface, clk clock.Clock, clearPayload bool) DeleteServiceInterface {
	return &DeleteService{
		store:        store,
		clock:        clk,
		clearPayload: clearPayload,
	}
}

// Don't initialize here, will be set properly in main.go
var DeleteServiceInstance DeleteServiceInterface
