package routes

import (
	"errors"
	"net/http"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

type upsertFolderRequest struct {
	ClientUUID string `json:"client_uuid" binding:"required,uuid"`
	Title      string `json:"title" binding:"required"`
}

func RegisterFolderRoutes(group *gin.RouterGroup, db *database.Database, folderService services.FolderServiceInterface) {
	group.GET("/folders", func(c *gin.Context) { ListFolders(c, db, folderService) })
	group.PUT("/folders", func(c *gin.Context) { UpsertFolder(c, db, folderService) })
	group.DELETE("/folders/:client_uuid", func(c *gin.Context) { DeleteFolder(c, db, folderService) })
}

func ListFolders(c *gin.Context, db *database.Database, folderService services.FolderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	folders, err := folderService.ListFolders(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, folders)
}

func UpsertFolder(c *gin.Context, db *database.Database, folderService services.FolderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request upsertFolderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := folderService.UpsertFolder(db, userID, request.ClientUUID, request.Title)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, folder)
}

func DeleteFolder(c *gin.Context, db *database.Database, folderService services.FolderServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	clientUUID := c.Param("client_uuid")
	if err := folderService.DeleteFolder(db, userID, clientUUID); err != nil {
		if errors.Is(err, services.ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}
