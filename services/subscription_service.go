package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"pinpoint-notes/pinpoint/broker"
	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPlayAPIBase = "https://androidpublisher.googleapis.com/androidpublisher/v3/applications"

// Google Play real-time developer notification types, per the RTDN reference.
const (
	playNotificationRecovered = 1
	playNotificationRenewed   = 2
	playNotificationCanceled  = 3
	playNotificationPurchased = 4
	playNotificationOnHold    = 5
	playNotificationRestarted = 7
	playNotificationRevoked   = 12
	playNotificationExpired   = 13
)

type SubscriptionServiceInterface interface {
	VerifyPurchase(db *database.Database, userID uuid.UUID, purchaseToken, productID string) (models.User, error)
	ProcessPlayNotification(db *database.Database, body []byte) error
}

// SubscriptionService verifies Google Play purchases and keeps account tiers
// in line with what Play reports.
type SubscriptionService struct {
	client      *resty.Client
	clock       clock.Clock
	packageName string
	verifyURL   string
}

// NewSubscriptionService builds the service. An empty verifyURL disables the
// Play API round trip and trusts the client, which is only acceptable in
// development setups.
func NewSubscriptionService(clk clock.Clock, packageName, verifyURL string) *SubscriptionService {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2)

	return &SubscriptionService{
		client:      client,
		clock:       clk,
		packageName: packageName,
		verifyURL:   verifyURL,
	}
}

type playSubscription struct {
	ExpiryTimeMillis string `json:"expiryTimeMillis"`
	PaymentState     *int   `json:"paymentState"`
	AutoRenewing     bool   `json:"autoRenewing"`
}

type playNotificationEnvelope struct {
	Message struct {
		Data string `json:"data"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type playDeveloperNotification struct {
	Version                  string `json:"version"`
	PackageName              string `json:"packageName"`
	EventTimeMillis          string `json:"eventTimeMillis"`
	SubscriptionNotification *struct {
		Version          string `json:"version"`
		NotificationType int    `json:"notificationType"`
		PurchaseToken    string `json:"purchaseToken"`
		SubscriptionID   string `json:"subscriptionId"`
	} `json:"subscriptionNotification"`
	TestNotification *struct {
		Version string `json:"version"`
	} `json:"testNotification"`
}

func tierForProduct(productID string) models.SubscriptionTier {
	if strings.Contains(productID, "lifetime") {
		return models.TierLifetime
	}
	return models.TierPremium
}

// fetchPlaySubscription asks the Play API for the authoritative state of a
// purchase token.
func (s *SubscriptionService) fetchPlaySubscription(productID, purchaseToken string) (*playSubscription, error) {
	base := s.verifyURL
	if base == "" {
		base = defaultPlayAPIBase
	}

	url := fmt.Sprintf("%s/%s/purchases/subscriptions/%s/tokens/%s",
		base, s.packageName, productID, purchaseToken)

	var sub playSubscription
	resp, err := s.client.R().SetResult(&sub).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("play api returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return &sub, nil
}

func (s *SubscriptionService) expiryFromPlay(sub *playSubscription) (*time.Time, error) {
	if sub.ExpiryTimeMillis == "" {
		return nil, nil
	}
	millis, err := strconv.ParseInt(sub.ExpiryTimeMillis, 10, 64)
	if err != nil {
		return nil, err
	}
	expiry := time.UnixMilli(millis).UTC()
	return &expiry, nil
}

// VerifyPurchase upgrades the account after the client completed a purchase
// flow. The token is checked against the Play API unless verification is
// disabled.
func (s *SubscriptionService) VerifyPurchase(db *database.Database, userID uuid.UUID, purchaseToken, productID string) (models.User, error) {
	if purchaseToken == "" || productID == "" {
		return models.User{}, ErrInvalidInput
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	now := s.clock.Now()
	tier := tierForProduct(productID)
	var expiresAt *time.Time

	if s.verifyURL == "" {
		log.Printf("Purchase verification is disabled, accepting token for user %s unchecked", userID)
		if tier == models.TierPremium {
			expiry := now.AddDate(0, 1, 0)
			expiresAt = &expiry
		}
	} else {
		sub, err := s.fetchPlaySubscription(productID, purchaseToken)
		if err != nil {
			log.Printf("Purchase verification failed for user %s: %v", userID, err)
			return models.User{}, ErrPurchaseVerification
		}
		if tier == models.TierPremium {
			expiresAt, err = s.expiryFromPlay(sub)
			if err != nil {
				return models.User{}, ErrPurchaseVerification
			}
			if expiresAt == nil || expiresAt.Before(now) {
				return models.User{}, ErrPurchaseVerification
			}
		}
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.User{}, tx.Error
	}

	if err := tx.Model(&user).Updates(map[string]interface{}{
		"subscription_tier":       tier,
		"subscription_expires_at": expiresAt,
		"purchase_token":          purchaseToken,
		"updated_at":              now,
	}).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	event := models.SubscriptionEvent{
		UserID:        user.ID,
		EventType:     models.SubscriptionEventPurchase,
		PurchaseToken: purchaseToken,
		ProductID:     productID,
		Platform:      "android",
		VerifiedAt:    now,
		ExpiresAt:     expiresAt,
	}
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	user.SubscriptionTier = tier
	user.SubscriptionExpiresAt = expiresAt
	user.PurchaseToken = purchaseToken

	s.announceTierChange(&user)

	return user, nil
}

// ProcessPlayNotification handles a real-time developer notification
// delivered by Pub/Sub push. Unknown tokens are acknowledged rather than
// errored so Play stops redelivering notifications we cannot correlate.
func (s *SubscriptionService) ProcessPlayNotification(db *database.Database, body []byte) error {
	var envelope playNotificationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ErrInvalidInput
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return ErrInvalidInput
	}

	var notification playDeveloperNotification
	if err := json.Unmarshal(decoded, &notification); err != nil {
		return ErrInvalidInput
	}

	if notification.TestNotification != nil {
		log.Println("Received Play test notification")
		return nil
	}
	if notification.SubscriptionNotification == nil {
		log.Println("Play notification carries no subscription payload, ignoring")
		return nil
	}

	sub := notification.SubscriptionNotification

	var user models.User
	if err := db.DB.First(&user, "purchase_token = ?", sub.PurchaseToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Play notification for unknown purchase token, ignoring")
			return nil
		}
		return err
	}

	now := s.clock.Now()
	changes := map[string]interface{}{"updated_at": now}
	eventType := models.SubscriptionEventRenewal
	var expiresAt *time.Time

	switch sub.NotificationType {
	case playNotificationPurchased, playNotificationRenewed,
		playNotificationRecovered, playNotificationRestarted:
		tier := tierForProduct(sub.SubscriptionID)
		expiresAt = s.renewalExpiry(sub.SubscriptionID, sub.PurchaseToken, now)
		changes["subscription_tier"] = tier
		changes["subscription_expires_at"] = expiresAt
		if sub.NotificationType == playNotificationPurchased {
			eventType = models.SubscriptionEventPurchase
		}

	case playNotificationCanceled:
		// Access runs until the paid period ends, only auto-renew stops
		eventType = models.SubscriptionEventCancellation
		expiresAt = user.SubscriptionExpiresAt

	case playNotificationOnHold, playNotificationRevoked, playNotificationExpired:
		changes["subscription_tier"] = models.TierFree
		changes["subscription_expires_at"] = nil
		eventType = models.SubscriptionEventRefund
		if sub.NotificationType == playNotificationExpired {
			eventType = models.SubscriptionEventCancellation
		}

	default:
		log.Printf("Unhandled Play notification type %d, recording only", sub.NotificationType)
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if len(changes) > 1 {
		if err := tx.Model(&user).Updates(changes).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	event := models.SubscriptionEvent{
		UserID:        user.ID,
		EventType:     eventType,
		PurchaseToken: sub.PurchaseToken,
		ProductID:     sub.SubscriptionID,
		Platform:      "android",
		VerifiedAt:    now,
		ExpiresAt:     expiresAt,
		RawPayload:    string(decoded),
	}
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := db.DB.First(&user, "id = ?", user.ID).Error; err == nil {
		s.announceTierChange(&user)
	}

	return nil
}

// renewalExpiry re-checks the Play API for the real expiry after a renewal.
// Without verification configured it falls back to a month from now, which
// the next notification corrects.
func (s *SubscriptionService) renewalExpiry(productID, purchaseToken string, now time.Time) *time.Time {
	if tierForProduct(productID) == models.TierLifetime {
		return nil
	}

	if s.verifyURL != "" {
		if sub, err := s.fetchPlaySubscription(productID, purchaseToken); err == nil {
			if expiry, err := s.expiryFromPlay(sub); err == nil && expiry != nil {
				return expiry
			}
		} else {
			log.Printf("Failed to refresh expiry from Play: %v", err)
		}
	}

	expiry := now.AddDate(0, 1, 0)
	return &expiry
}

// announceTierChange tells the user's connected devices to refresh their
// entitlements. Delivery is best effort.
func (s *SubscriptionService) announceTierChange(user *models.User) {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id": user.ID.String(),
		"tier":    user.SubscriptionTier,
	})
	if err != nil {
		return
	}

	subject := broker.UserSyncSubject(user.ID.String())
	if err := broker.PublishMessage(subject, string(broker.SubscriptionUpdated), string(payload)); err != nil {
		log.Printf("Failed to announce tier change for user %s: %v", user.ID, err)
	}
}

var SubscriptionServiceInstance SubscriptionServiceInterface
