package services

import (
	"testing"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/testutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNoteAt(t *testing.T, db *database.Database, userID uuid.UUID, clientNoteID int64, updatedAt time.Time, isDeleted bool) models.EncryptedNote {
	t.Helper()
	note := models.EncryptedNote{
		ID:            uuid.New(),
		UserID:        userID,
		ClientNoteID:  clientNoteID,
		EncryptedData: []byte("payload"),
		Version:       1,
		IsDeleted:     isDeleted,
		CreatedAt:     updatedAt,
		UpdatedAt:     updatedAt,
	}
	require.NoError(t, db.DB.Create(&note).Error)
	return note
}

func TestChangedNotesBootstrapReturnsEverything(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPullService(NewNoteStore())
	userID := uuid.New()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seedNoteAt(t, db, userID, 1, base, false)
	seedNoteAt(t, db, userID, 2, base.Add(time.Minute), false)
	seedNoteAt(t, db, uuid.New(), 1, base, false)

	result, err := svc.ChangedNotes(db, userID, 0, true, 0)
	require.NoError(t, err)
	assert.False(t, result.HasMore)
	require.Len(t, result.Notes, 2)
	assert.Equal(t, int64(1), result.Notes[0].ClientNoteID)
	assert.Equal(t, int64(2), result.Notes[1].ClientNoteID)
}

func TestChangedNotesWatermarkIsStrict(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPullService(NewNoteStore())
	userID := uuid.New()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seedNoteAt(t, db, userID, 1, base, false)
	seedNoteAt(t, db, userID, 2, base.Add(time.Second), false)

	// A note stamped exactly at the watermark was already delivered by the
	// pull that produced that watermark.
	result, err := svc.ChangedNotes(db, userID, base.Unix(), true, 0)
	require.NoError(t, err)
	require.Len(t, result.Notes, 1)
	assert.Equal(t, int64(2), result.Notes[0].ClientNoteID)
}

func TestChangedNotesExcludesTombstonesOnRequest(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPullService(NewNoteStore())
	userID := uuid.New()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seedNoteAt(t, db, userID, 1, base, false)
	seedNoteAt(t, db, userID, 2, base.Add(time.Second), true)

	withDeleted, err := svc.ChangedNotes(db, userID, 0, true, 0)
	require.NoError(t, err)
	assert.Len(t, withDeleted.Notes, 2)

	withoutDeleted, err := svc.ChangedNotes(db, userID, 0, false, 0)
	require.NoError(t, err)
	require.Len(t, withoutDeleted.Notes, 1)
	assert.Equal(t, int64(1), withoutDeleted.Notes[0].ClientNoteID)
}

func TestChangedNotesPaging(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPullService(NewNoteStore())
	userID := uuid.New()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 5; i++ {
		seedNoteAt(t, db, userID, i, base.Add(time.Duration(i)*time.Second), false)
	}

	page1, err := svc.ChangedNotes(db, userID, 0, true, 2)
	require.NoError(t, err)
	assert.True(t, page1.HasMore)
	require.Len(t, page1.Notes, 2)

	// The client pulls again from the last note it saw.
	watermark := page1.Notes[1].UpdatedAt.Unix()
	page2, err := svc.ChangedNotes(db, userID, watermark, true, 2)
	require.NoError(t, err)
	assert.True(t, page2.HasMore)
	require.Len(t, page2.Notes, 2)
	assert.Equal(t, int64(3), page2.Notes[0].ClientNoteID)

	watermark = page2.Notes[1].UpdatedAt.Unix()
	page3, err := svc.ChangedNotes(db, userID, watermark, true, 2)
	require.NoError(t, err)
	assert.False(t, page3.HasMore)
	require.Len(t, page3.Notes, 1)
	assert.Equal(t, int64(5), page3.Notes[0].ClientNoteID)
}

func TestChangedNotesExactLimitHasNoMore(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPullService(NewNoteStore())
	userID := uuid.New()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seedNoteAt(t, db, userID, 1, base, false)
	seedNoteAt(t, db, userID, 2, base.Add(time.Second), false)

	result, err := svc.ChangedNotes(db, userID, 0, true, 2)
	require.NoError(t, err)
	assert.False(t, result.HasMore)
	assert.Len(t, result.Notes, 2)
}

func TestChangedNotesEmptyResultIsNotNil(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPullService(NewNoteStore())

	result, err := svc.ChangedNotes(db, uuid.New(), 0, true, 10)
	require.NoError(t, err)
	assert.NotNil(t, result.Notes)
	assert.Empty(t, result.Notes)
	assert.False(t, result.HasMore)
}
