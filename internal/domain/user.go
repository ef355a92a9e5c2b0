package domain

import "time"

// Subscription states a user account can be in.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionCanceled = "canceled"
)

// User represents a registered platform user.
type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	StripeCustomerID   string
	SubscriptionStatus string
	PreferredLanguage  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
