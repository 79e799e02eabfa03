package routes

import (
	"net/http"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"

	"github.com/gin-gonic/gin"
)

// SetupDebugRoutes sets up routes for debugging. Only registered in
// development.
func SetupDebugRoutes(router *gin.Engine, db *database.Database) {
	debugGroup := router.Group("/api/v1/debug")
	{
		debugGroup.GET("/note-exists/:id", func(c *gin.Context) {
			id := c.Param("id")

			var note models.EncryptedNote
			result := db.DB.Where("id = ?", id).First(&note)

			if result.Error != nil {
				c.JSON(http.StatusOK, gin.H{
					"exists": false,
					"error":  result.Error.Error(),
					"time":   time.Now(),
				})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"exists":         true,
				"id":             note.ID,
				"client_note_id": note.ClientNoteID,
				"version":        note.Version,
				"is_deleted":     note.IsDeleted,
				"time":           time.Now(),
			})
		})

		// Route to inspect the outbox backlog
		debugGroup.GET("/event-queue", func(c *gin.Context) {
			var events []models.SyncEvent
			db.DB.Where("dispatched = ?", false).Find(&events)

			c.JSON(http.StatusOK, gin.H{
				"pending_events": len(events),
				"events":         events,
				"time":           time.Now(),
			})
		})
	}
}
