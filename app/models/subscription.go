package models

import (
	"fmt"
	"time"
)

// Internal subscription status vocabulary. Provider statuses are mapped into
// these four states; Cancelled is terminal.
const (
	SubscriptionStatusTrial     = "trial"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
)

const (
	BillingPeriodMonth = "month"
	BillingPeriodYear  = "year"
)

// Subscription is the primary persisted view of a provider subscription,
// one row per ProviderSubscriptionID. It is the source of truth; the
// agency-specific view is derived from it at write time.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	PlanID                 string     `gorm:"type:varchar(191)" json:"plan_id"`
	PlanType               string     `gorm:"type:varchar(50);index" json:"plan_type"`
	AmountCents            int64      `gorm:"default:0" json:"amount_cents"`
	Currency               string     `gorm:"type:varchar(8)" json:"currency"`
	BillingPeriod          string     `gorm:"type:varchar(16)" json:"billing_period"`
	Status                 string     `gorm:"type:varchar(20);not null;default:'trial';index" json:"status"`
	StartDate              *time.Time `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	EndDate                *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	TrialEndDate           *time.Time `gorm:"type:timestamp;default:null" json:"trial_end_date,omitempty"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscriptions_provider_sub_id" json:"provider_subscription_id"`
	ProviderCustomerID     string     `gorm:"type:varchar(191);index" json:"provider_customer_id"`
	Metadata               string     `gorm:"type:longtext" json:"metadata"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// AmountDisplay renders the minor-unit amount as a decimal string for
// billing views, e.g. 2999 -> "29.99".
func (s *Subscription) AmountDisplay() string {
	return fmt.Sprintf("%d.%02d", s.AmountCents/100, s.AmountCents%100)
}
