package testutils

import (
	"database/sql/driver"
	"time"

	"pinpoint-notes/pinpoint/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

// MockSyncEventRows creates mock SQL rows for sync event testing
func MockSyncEventRows(events []models.SyncEvent) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "device_id", "note_id", "client_note_id",
		"operation", "result_version", "timestamp", "dispatched", "dispatched_at",
	})

	for _, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}

		rows.AddRow(
			event.ID,
			event.UserID,
			event.DeviceID,
			event.NoteID,
			event.ClientNoteID,
			event.Operation,
			event.ResultVersion,
			event.Timestamp,
			event.Dispatched,
			event.DispatchedAt,
		)
	}

	return rows
}

// MockNoteRows creates mock SQL rows for encrypted note testing
func MockNoteRows(notes []models.EncryptedNote) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "client_note_id", "encrypted_data", "metadata",
		"version", "is_deleted", "created_at", "updated_at",
	})

	for _, note := range notes {
		if note.ID == uuid.Nil {
			note.ID = uuid.New()
		}

		rows.AddRow(
			note.ID,
			note.UserID,
			note.ClientNoteID,
			note.EncryptedData,
			[]byte(note.Metadata),
			note.Version,
			note.IsDeleted,
			note.CreatedAt,
			note.UpdatedAt,
		)
	}

	return rows
}

func NewResult(lastInsertID, rowsAffected int64) driver.Result {
	return sqlmock.NewResult(lastInsertID, rowsAffected)
}
