package models

import "time"

// AgencySubscription is a denormalized, read-optimized copy of a
// Subscription for agency dashboards, written only when the subscriber is an
// agency-type user. It is not authoritative; the Subscription row is.
type AgencySubscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	AgencyID               uint       `gorm:"not null;index" json:"agency_id"`
	PlanType               string     `gorm:"type:varchar(50)" json:"plan_type"`
	Status                 string     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus          string     `gorm:"type:varchar(20)" json:"payment_status"`
	StartsAt               *time.Time `gorm:"type:timestamp;default:null" json:"starts_at,omitempty"`
	ExpiresAt              *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_agency_subscriptions_provider_sub_id" json:"provider_subscription_id"`
	ProviderCustomerID     string     `gorm:"type:varchar(191)" json:"provider_customer_id"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
