package routes

import (
	"errors"
	"net/http"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

func RegisterUsageRoutes(group *gin.RouterGroup, db *database.Database, usageService services.UsageServiceInterface, userService services.UserServiceInterface) {
	group.GET("/usage/stats", func(c *gin.Context) { GetUsageStats(c, db, usageService, userService) })
	group.POST("/usage/reconcile", func(c *gin.Context) { ReconcileUsage(c, db, usageService, userService) })
	group.POST("/usage/ocr", func(c *gin.Context) { RecordOCRScan(c, db, usageService, userService) })
	group.POST("/usage/export", func(c *gin.Context) { RecordExport(c, db, usageService, userService) })
}

// currentUser loads the full account row for handlers that need the
// subscription tier, not just the id.
func currentUser(c *gin.Context, db *database.Database, userService services.UserServiceInterface) (models.User, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return models.User{}, false
	}

	user, err := userService.GetUserById(db, userID.String())
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return models.User{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return models.User{}, false
	}

	return user, true
}

func GetUsageStats(c *gin.Context, db *database.Database, usageService services.UsageServiceInterface, userService services.UserServiceInterface) {
	user, ok := currentUser(c, db, userService)
	if !ok {
		return
	}

	stats, err := usageService.Stats(db, &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ReconcileUsage recounts the stored notes and returns fresh stats. Clients
// call it when their local count disagrees with the server's.
func ReconcileUsage(c *gin.Context, db *database.Database, usageService services.UsageServiceInterface, userService services.UserServiceInterface) {
	user, ok := currentUser(c, db, userService)
	if !ok {
		return
	}

	if _, err := usageService.RefreshSyncedCount(db, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats, err := usageService.Stats(db, &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func RecordOCRScan(c *gin.Context, db *database.Database, usageService services.UsageServiceInterface, userService services.UserServiceInterface) {
	user, ok := currentUser(c, db, userService)
	if !ok {
		return
	}

	usage, err := usageService.RecordOCRScan(db, &user)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Monthly OCR scan limit reached"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, usage)
}

func RecordExport(c *gin.Context, db *database.Database, usageService services.UsageServiceInterface, userService services.UserServiceInterface) {
	user, ok := currentUser(c, db, userService)
	if !ok {
		return
	}

	usage, err := usageService.RecordExport(db, &user)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Monthly export limit reached"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, usage)
}
