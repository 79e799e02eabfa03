package routes

import (
	"errors"
	"net/http"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

type registerDeviceRequest struct {
	DeviceID  string `json:"device_id" binding:"required"`
	Platform  string `json:"platform"`
	PushToken string `json:"push_token"`
}

func RegisterDeviceRoutes(group *gin.RouterGroup, db *database.Database, deviceService services.DeviceServiceInterface) {
	group.POST("/devices", func(c *gin.Context) { RegisterDevice(c, db, deviceService) })
	group.GET("/devices", func(c *gin.Context) { ListDevices(c, db, deviceService) })
	group.DELETE("/devices/:device_id", func(c *gin.Context) { RemoveDevice(c, db, deviceService) })
}

func RegisterDevice(c *gin.Context, db *database.Database, deviceService services.DeviceServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request registerDeviceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := deviceService.RegisterDevice(db, userID, request.DeviceID, request.Platform, request.PushToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, device)
}

func ListDevices(c *gin.Context, db *database.Database, deviceService services.DeviceServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	devices, err := deviceService.ListDevices(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, devices)
}

func RemoveDevice(c *gin.Context, db *database.Database, deviceService services.DeviceServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deviceID := c.Param("device_id")
	if err := deviceService.RemoveDevice(db, userID, deviceID); err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device removed"})
}
