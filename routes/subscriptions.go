package routes

import (
	"errors"
	"net/http"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/services"

	"github.com/gin-gonic/gin"
)

type verifyPurchaseRequest struct {
	PurchaseToken string `json:"purchase_token" binding:"required"`
	ProductID     string `json:"product_id" binding:"required"`
}

func RegisterSubscriptionRoutes(group *gin.RouterGroup, db *database.Database, subscriptionService services.SubscriptionServiceInterface) {
	group.POST("/subscriptions/verify", func(c *gin.Context) { VerifyPurchase(c, db, subscriptionService) })
}

// RegisterPlayWebhookRoutes wires the unauthenticated Pub/Sub push endpoint
// Google Play delivers real-time developer notifications to.
func RegisterPlayWebhookRoutes(router *gin.Engine, db *database.Database, subscriptionService services.SubscriptionServiceInterface) {
	router.POST("/webhooks/play", func(c *gin.Context) { HandlePlayNotification(c, db, subscriptionService) })
}

func VerifyPurchase(c *gin.Context, db *database.Database, subscriptionService services.SubscriptionServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request verifyPurchaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := subscriptionService.VerifyPurchase(db, userID, request.PurchaseToken, request.ProductID)
	if err != nil {
		if errors.Is(err, services.ErrPurchaseVerification) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Purchase could not be verified"})
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

// HandlePlayNotification accepts a Pub/Sub push envelope. A non-2xx response
// makes Pub/Sub redeliver, so only errors worth retrying return one.
func HandlePlayNotification(c *gin.Context, db *database.Database, subscriptionService services.SubscriptionServiceInterface) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	if err := subscriptionService.ProcessPlayNotification(db, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification processed"})
}
