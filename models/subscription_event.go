package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionEvent is an audit row for a processed purchase, renewal,
// cancellation or refund. RawPayload keeps the notification body for
// debugging disputed purchases.
type SubscriptionEvent struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	EventType     string     `gorm:"size:50;not null" json:"event_type"`
	PurchaseToken string     `gorm:"size:500" json:"-"`
	ProductID     string     `gorm:"size:100" json:"product_id,omitempty"`
	Platform      string     `gorm:"size:20;not null;default:'android'" json:"platform"`
	VerifiedAt    time.Time  `gorm:"not null" json:"verified_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RawPayload    string     `gorm:"type:text" json:"-"`
}

// Subscription event types
const (
	SubscriptionEventPurchase     = "purchase"
	SubscriptionEventRenewal      = "renewal"
	SubscriptionEventCancellation = "cancellation"
	SubscriptionEventRefund       = "refund"
)

// BeforeCreate is a GORM hook that assigns an id for a new event row
func (s *SubscriptionEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
