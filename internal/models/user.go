package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription status values mirrored from the payment provider
const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionNone     = "none"
)

// User represents a loan officer account provisioned through checkout
type User struct {
	gorm.Model
	Email              string `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name               string `gorm:"not null;default:''"`
	AvatarURL          string `gorm:"column:avatar_url;not null;default:''"`
	Role               string `gorm:"not null;default:'user'"` // enum: 'user' or 'admin'
	SubscriptionStatus string `gorm:"column:subscription_status;not null;default:'none';index"`
	SubscriptionID     string `gorm:"column:subscription_id;not null;default:''"`
	StripeCustomerID   string `gorm:"column:stripe_customer_id;not null;default:''"`
	LastLoginAt        *time.Time

	// Associations
	AuthIdentities []AuthIdentity `gorm:"constraint:OnDelete:CASCADE;"`
	BrandVoice     *BrandVoice    `gorm:"constraint:OnDelete:CASCADE;"`
}

// HasActiveSubscription reports whether the user may generate content.
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionStatus == SubscriptionActive
}
