package routes

import (
	"errors"
	"net/http"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createReminderRequest struct {
	ClientNoteID int64     `json:"client_note_id" binding:"required,gt=0"`
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	RemindAt     time.Time `json:"remind_at" binding:"required"`
}

type updateReminderRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	RemindAt    time.Time `json:"remind_at" binding:"required"`
}

func RegisterReminderRoutes(group *gin.RouterGroup, db *database.Database, reminderService services.ReminderServiceInterface) {
	group.POST("/reminders", func(c *gin.Context) { CreateReminder(c, db, reminderService) })
	group.GET("/reminders", func(c *gin.Context) { ListReminders(c, db, reminderService) })
	group.PUT("/reminders/:id", func(c *gin.Context) { UpdateReminder(c, db, reminderService) })
	group.DELETE("/reminders/:id", func(c *gin.Context) { DeleteReminder(c, db, reminderService) })
}

func CreateReminder(c *gin.Context, db *database.Database, reminderService services.ReminderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request createReminderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := reminderService.CreateReminder(db, userID, request.ClientNoteID, request.Title, request.Description, request.RemindAt)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

func ListReminders(c *gin.Context, db *database.Database, reminderService services.ReminderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reminders, err := reminderService.ListReminders(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reminders)
}

func UpdateReminder(c *gin.Context, db *database.Database, reminderService services.ReminderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reminderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder ID"})
		return
	}

	var request updateReminderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := reminderService.UpdateReminder(db, userID, reminderID, request.Title, request.Description, request.RemindAt)
	if err != nil {
		if errors.Is(err, services.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

func DeleteReminder(c *gin.Context, db *database.Database, reminderService services.ReminderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reminderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder ID"})
		return
	}

	if err := reminderService.DeleteReminder(db, userID, reminderID); err != nil {
		if errors.Is(err, services.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}
