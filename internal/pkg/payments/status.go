package payments

import (
	"strings"
	"time"

	"github.com/DavidKellner/HireLink/app/models"
)

// ProviderStatusToSubscriptionStatus maps the provider's status vocabulary
// onto the internal four-state vocabulary. Cancelled is terminal; past_due
// may recover to active on a later successful invoice.
func ProviderStatusToSubscriptionStatus(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "trialing":
		return models.SubscriptionStatusTrial
	case "active":
		return models.SubscriptionStatusActive
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue
	case "canceled", "cancelled", "incomplete_expired":
		return models.SubscriptionStatusCancelled
	case "incomplete":
		// Initial payment still pending; entitlement-wise this is the trial
		// phase until the first invoice settles.
		return models.SubscriptionStatusTrial
	default:
		return models.SubscriptionStatusActive
	}
}

// epochToTime converts provider epoch seconds to a nullable timestamp.
// Absent dates (0 or negative) map to nil, never to "now".
func epochToTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func normalizeBillingPeriod(period string) string {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "month", "monthly":
		return models.BillingPeriodMonth
	case "year", "yearly", "annual":
		return models.BillingPeriodYear
	default:
		return strings.ToLower(strings.TrimSpace(period))
	}
}
