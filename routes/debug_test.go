package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/testutils"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupDebugRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, cleanup := testutils.SetupMockDB()
	t.Cleanup(cleanup)

	router := gin.New()
	SetupDebugRoutes(router, db)
	return router, mock
}

func TestDebugNoteExists_Found(t *testing.T) {
	router, mock := setupDebugRouter(t)

	noteID := uuid.New()
	note := models.EncryptedNote{
		ID:            noteID,
		UserID:        uuid.New(),
		ClientNoteID:  17,
		EncryptedData: []byte{0xde, 0xad},
		Version:       4,
		IsDeleted:     true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	mock.ExpectQuery(`SELECT (.+) FROM "encrypted_notes" WHERE id = \$1 ORDER BY "encrypted_notes"."id" LIMIT \$2`).
		WithArgs(noteID.String(), 1).
		WillReturnRows(testutils.MockNoteRows([]models.EncryptedNote{note}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/debug/note-exists/"+noteID.String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, noteID.String(), body["id"])
	assert.Equal(t, float64(17), body["client_note_id"])
	assert.Equal(t, float64(4), body["version"])
	assert.Equal(t, true, body["is_deleted"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugNoteExists_Missing(t *testing.T) {
	router, mock := setupDebugRouter(t)

	noteID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "encrypted_notes" WHERE id = \$1 ORDER BY "encrypted_notes"."id" LIMIT \$2`).
		WithArgs(noteID.String(), 1).
		WillReturnRows(testutils.MockNoteRows(nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/debug/note-exists/"+noteID.String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["exists"])
	assert.Contains(t, body, "error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugEventQueue(t *testing.T) {
	router, mock := setupDebugRouter(t)

	userID := uuid.New()
	pending := []models.SyncEvent{
		*models.NewSyncEvent(userID, "device-a", uuid.New(), 5, models.SyncOpCreate, 1, time.Now().UTC()),
		*models.NewSyncEvent(userID, "device-a", uuid.New(), 6, models.SyncOpUpdate, 2, time.Now().UTC()),
	}

	mock.ExpectQuery(`SELECT (.+) FROM "sync_events" WHERE dispatched = \$1`).
		WithArgs(false).
		WillReturnRows(testutils.MockSyncEventRows(pending))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/debug/event-queue", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["pending_events"])
	assert.Len(t, body["events"], 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
