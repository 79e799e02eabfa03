package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultPullLimit = 500
	maxPullLimit     = 1000
)

// pushResponse is a PushResult extended with the quota fields clients use to
// decide whether to show the upgrade prompt.
type pushResponse struct {
	services.PushResult
	LimitExceeded bool                 `json:"limit_exceeded,omitempty"`
	Usage         *services.UsageStats `json:"usage,omitempty"`
}

type deleteNotesRequest struct {
	DeviceID      string  `json:"device_id"`
	ClientNoteIDs []int64 `json:"client_note_ids" binding:"required,min=1"`
}

func RegisterSyncRoutes(group *gin.RouterGroup, db *database.Database, syncService services.SyncServiceInterface, pullService services.PullServiceInterface, deleteService services.DeleteServiceInterface, usageService services.UsageServiceInterface, userService services.UserServiceInterface, deviceService services.DeviceServiceInterface) {
	group.GET("/sync", func(c *gin.Context) {
		GetChangedNotes(c, db, pullService, deviceService)
	})
	group.POST("/sync", func(c *gin.Context) {
		PushNotes(c, db, syncService, usageService, userService, deviceService)
	})
	group.DELETE("/notes", func(c *gin.Context) {
		DeleteNotes(c, db, deleteService, usageService)
	})
}

func GetChangedNotes(c *gin.Context, db *database.Database, pullService services.PullServiceInterface, deviceService services.DeviceServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since parameter"})
		return
	}

	// Tombstones are opt-in; clients that track deletions ask for them.
	includeDeleted := c.Query("include_deleted") == "true"

	limit := defaultPullLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
	}
	if limit > maxPullLimit {
		limit = maxPullLimit
	}

	result, err := pullService.ChangedNotes(db, userID, since, includeDeleted, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if deviceID := c.Query("device_id"); deviceID != "" {
		if err := deviceService.TouchLastSeen(db, userID, deviceID); err != nil {
			log.Printf("Failed to update last seen for device %s: %v", deviceID, err)
		}
	}

	c.JSON(http.StatusOK, result)
}

func PushNotes(c *gin.Context, db *database.Database, syncService services.SyncServiceInterface, usageService services.UsageServiceInterface, userService services.UserServiceInterface, deviceService services.DeviceServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userService.GetUserById(db, userID.String())
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	clientNoteIDs := make([]int64, 0, len(req.Notes))
	for _, entry := range req.Notes {
		clientNoteIDs = append(clientNoteIDs, entry.ClientNoteID)
	}

	if err := usageService.CheckPushAllowed(db, &user, clientNoteIDs); err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			// The push is refused, not failed. Clients read limit_exceeded
			// off a 200 and keep the notes queued locally.
			resp := pushResponse{
				PushResult: services.PushResult{
					UpdatedNotes: []models.EncryptedNote{},
					Conflicts:    []services.NoteConflict{},
					Message:      "Note limit reached, upgrade to sync more notes",
				},
				LimitExceeded: true,
			}
			if stats, statsErr := usageService.Stats(db, &user); statsErr == nil {
				resp.Usage = &stats
			}
			c.JSON(http.StatusOK, resp)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := syncService.PushNotes(db, userID, req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Bookkeeping after the batch committed; failures here only log.
	if _, err := usageService.RefreshSyncedCount(db, userID); err != nil {
		log.Printf("Failed to refresh synced count for user %s: %v", userID, err)
	}
	if err := deviceService.TouchLastSeen(db, userID, req.DeviceID); err != nil {
		log.Printf("Failed to update last seen for device %s: %v", req.DeviceID, err)
	}

	resp := pushResponse{PushResult: result}
	if stats, statsErr := usageService.Stats(db, &user); statsErr == nil {
		resp.Usage = &stats
	}

	c.JSON(http.StatusOK, resp)
}

func DeleteNotes(c *gin.Context, db *database.Database, deleteService services.DeleteServiceInterface, usageService services.UsageServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req deleteNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hardDelete := c.Query("hard_delete") == "true"

	var deletedCount int64
	var err error
	if hardDelete {
		deletedCount, err = deleteService.HardDeleteNotes(db, userID, req.DeviceID, req.ClientNoteIDs)
	} else {
		deletedCount, err = deleteService.SoftDeleteNotes(db, userID, req.DeviceID, req.ClientNoteIDs)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if deletedCount > 0 {
		if _, err := usageService.RefreshSyncedCount(db, userID); err != nil {
			log.Printf("Failed to refresh synced count for user %s: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted_count": deletedCount,
		"hard_delete":   hardDelete,
	})
}
