package services

import (
	"fmt"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"

	"github.com/google/uuid"
)

// PullResult is an ordered page of server note states. HasMore signals that
// the caller should pull again with the last note's updated_at as the next
// watermark.
type PullResult struct {
	Notes   []models.EncryptedNote `json:"notes"`
	HasMore bool                   `json:"has_more"`
}

type PullServiceInterface interface {
	ChangedNotes(db *database.Database, userID uuid.UUID, since int64, includeDeleted bool, limit int) (PullResult, error)
}

// PullService assembles incremental change sets. It reads committed state
// only and never writes, so a client that fails mid-consumption can reissue
// the same watermark and receive the same ordered result.
type PullService struct {
	store NoteStoreInterface
}

// ChangedNotes returns the owner's notes changed strictly after the since
// watermark (epoch seconds; zero or negative means a full bootstrap pull).
// Tombstones are included only when includeDeleted is set. limit <= 0
// returns everything.
func (s *PullService) ChangedNotes(db *database.Database, userID uuid.UUID, since int64, includeDeleted bool, limit int) (PullResult, error) {
	var sinceTime time.Time
	if since > 0 {
		sinceTime = time.Unix(since, 0).UTC()
	}

	fetch := limit
	if limit > 0 {
		fetch = limit + 1
	}

	notes, err := s.store.ListChangedSince(db.DB, userID, sinceTime, includeDeleted, fetch)
	if err != nil {
		return PullResult{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	result := PullResult{Notes: notes}
	if limit > 0 && len(notes) > limit {
		result.Notes = notes[:limit]
		result.HasMore = true
	}
	if result.Notes == nil {
		result.Notes = []models.EncryptedNote{}
	}

	return result, nil
}

// NewPullService creates a new instance of PullService
func NewPullService(store NoteStoreInterface) PullServiceInterface {
	return &PullService{store: store}
}

// Don't initialize here, will be set properly in main.go
var PullServiceInstance PullServiceInterface
