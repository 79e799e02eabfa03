package services

import (
	"errors"
	"time"

	"pinpoint-notes/pinpoint/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteStoreInterface is the persistence boundary for encrypted note records
// and the hard-delete registry. It carries no merge policy; callers pass in
// either a live transaction or a plain DB handle, so classify-and-apply
// sequences can run as one atomic unit.
type NoteStoreInterface interface {
	GetByClientNoteID(db *gorm.DB, userID uuid.UUID, clientNoteID int64) (*models.EncryptedNote, error)
	Create(db *gorm.DB, note *models.EncryptedNote) error
	UpdateWithVersionCheck(db *gorm.DB, note *models.EncryptedNote, basisVersion int64) (bool, error)
	ListChangedSince(db *gorm.DB, userID uuid.UUID, since time.Time, includeDeleted bool, limit int) ([]models.EncryptedNote, error)
	DeleteRow(db *gorm.DB, userID uuid.UUID, clientNoteID int64) (*models.EncryptedNote, error)
	RecordDeletion(db *gorm.DB, deletion *models.NoteDeletion) error
	IsDeletionRecorded(db *gorm.DB, userID uuid.UUID, clientNoteID int64) (bool, error)
	CountActive(db *gorm.DB, userID uuid.UUID) (int64, error)
}

type NoteStore struct{}

// GetByClientNoteID loads the record for one (owner, client note id)
// identity. A missing record returns (nil, nil); absence is a normal
// classification input, not an error.
func (s *NoteStore) GetByClientNoteID(db *gorm.DB, userID uuid.UUID, clientNoteID int64) (*models.EncryptedNote, error) {
	var note models.EncryptedNote
	err := db.Where("user_id = ? AND client_note_id = ?", userID, clientNoteID).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

// Create inserts a brand-new note record. A concurrent create for the same
// identity surfaces as gorm.ErrDuplicatedKey through the unique
// (user_id, client_note_id) index.
func (s *NoteStore) Create(db *gorm.DB, note *models.EncryptedNote) error {
	return db.Create(note).Error
}

// UpdateWithVersionCheck writes the new note state only if the stored version
// still equals basisVersion. It returns false when no row matched, meaning a
// concurrent writer advanced the version first and the caller must re-read
// and re-classify.
func (s *NoteStore) UpdateWithVersionCheck(db *gorm.DB, note *models.EncryptedNote, basisVersion int64) (bool, error) {
	result := db.Model(&models.EncryptedNote{}).
		Where("id = ? AND user_id = ? AND version = ?", note.ID, note.UserID, basisVersion).
		Updates(map[string]interface{}{
			"encrypted_data": note.EncryptedData,
			"metadata":       note.Metadata,
			"version":        note.Version,
			"is_deleted":     note.IsDeleted,
			"updated_at":     note.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListChangedSince returns the owner's records with updated_at strictly after
// since, ordered by updated_at then id so identical queries replay in the
// same order. A zero since returns the full set. limit <= 0 disables paging.
func (s *NoteStore) ListChangedSince(db *gorm.DB, userID uuid.UUID, since time.Time, includeDeleted bool, limit int) ([]models.EncryptedNote, error) {
	query := db.Where("user_id = ?", userID)

	if !since.IsZero() {
		query = query.Where("updated_at > ?", since)
	}

	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	var notes []models.EncryptedNote
	if err := query.Order("updated_at ASC, id ASC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// DeleteRow removes the record outright and returns the removed state, or
// (nil, nil) when the owner has no record for that client note id.
func (s *NoteStore) DeleteRow(db *gorm.DB, userID uuid.UUID, clientNoteID int64) (*models.EncryptedNote, error) {
	note, err := s.GetByClientNoteID(db, userID, clientNoteID)
	if err != nil || note == nil {
		return nil, err
	}

	if err := db.Where("id = ? AND user_id = ?", note.ID, userID).Delete(&models.EncryptedNote{}).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// RecordDeletion registers a hard-deleted identity.
func (s *NoteStore) RecordDeletion(db *gorm.DB, deletion *models.NoteDeletion) error {
	return db.Create(deletion).Error
}

// IsDeletionRecorded reports whether the identity was hard-deleted before.
func (s *NoteStore) IsDeletionRecorded(db *gorm.DB, userID uuid.UUID, clientNoteID int64) (bool, error) {
	var count int64
	err := db.Model(&models.NoteDeletion{}).
		Where("user_id = ? AND client_note_id = ?", userID, clientNoteID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActive counts the owner's non-tombstoned notes. Quota enforcement and
// usage reconciliation read this.
func (s *NoteStore) CountActive(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.EncryptedNote{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// NewNoteStore creates a new instance of NoteStore
func NewNoteStore() NoteStoreInterface {
	return &NoteStore{}
}

// Don't initialize here, will be set properly in main.go
var NoteStoreInstance NoteStoreInterface
