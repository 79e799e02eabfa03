package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionTier is the account's paid plan.
type SubscriptionTier string

// Subscription tiers
const (
	TierFree     SubscriptionTier = "free"
	TierPremium  SubscriptionTier = "premium"
	TierLifetime SubscriptionTier = "lifetime"
)

type User struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Email                 string           `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash          string           `gorm:"size:255" json:"-"`
	DisplayName           string           `gorm:"size:255" json:"display_name,omitempty"`
	IsActive              bool             `gorm:"not null;default:true" json:"is_active"`
	SubscriptionTier      SubscriptionTier `gorm:"type:varchar(50);not null;default:'free'" json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time       `json:"subscription_expires_at,omitempty"`
	PurchaseToken         string           `gorm:"size:500" json:"-"`
	LastLogin             *time.Time       `json:"last_login,omitempty"`
	CreatedAt             time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"not null" json:"updated_at"`
}

// IsPremium reports whether the account has a paid tier active at now.
// Lifetime purchases carry no expiry.
func (u *User) IsPremium(now time.Time) bool {
	if u.SubscriptionTier == TierFree {
		return false
	}
	if u.SubscriptionExpiresAt == nil {
		return u.SubscriptionTier == TierPremium || u.SubscriptionTier == TierLifetime
	}
	return now.Before(*u.SubscriptionExpiresAt)
}

// BeforeCreate is a GORM hook that assigns an id for a new user
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
