package routes

import (
	"errors"
	"net/http"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

type putKeyRequest struct {
	KeyData string `json:"key_data" binding:"required"`
}

func RegisterEncryptionRoutes(group *gin.RouterGroup, db *database.Database, keyService services.EncryptionKeyServiceInterface) {
	group.GET("/encryption/key", func(c *gin.Context) { GetEncryptionKey(c, db, keyService) })
	group.PUT("/encryption/key", func(c *gin.Context) { PutEncryptionKey(c, db, keyService) })
}

func GetEncryptionKey(c *gin.Context, db *database.Database, keyService services.EncryptionKeyServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	key, err := keyService.GetKey(db, userID)
	if err != nil {
		if errors.Is(err, services.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No encryption key stored"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, key)
}

func PutEncryptionKey(c *gin.Context, db *database.Database, keyService services.EncryptionKeyServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request putKeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := keyService.PutKey(db, userID, request.KeyData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, key)
}
