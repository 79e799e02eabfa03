package routes

import (
	"net/http"
	"time"

	"pinpoint-notes/pinpoint/database"

	"github.com/gin-gonic/gin"
)

func RegisterHealthRoutes(router *gin.Engine, db *database.Database) {
	router.GET("/health", func(c *gin.Context) { HealthCheck(c, db) })
}

func HealthCheck(c *gin.Context, db *database.Database) {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  err.Error(),
			"time":   time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
