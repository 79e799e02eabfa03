package routes

import (
	"pinpoint-notes/pinpoint/middleware"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes sets up the WebSocket endpoint. Browsers cannot
// set headers on WebSocket upgrades, so this group runs the query-token
// variant of the auth middleware.
func RegisterWebSocketRoutes(router *gin.Engine, authService services.AuthServiceInterface, wsService services.WebSocketServiceInterface) {
	wsGroup := router.Group("/api/v1/ws")
	wsGroup.Use(middleware.WebSocketAuthMiddleware(authService))
	{
		wsGroup.GET("", func(c *gin.Context) {
			wsService.HandleConnection(c)
		})
	}
}
