package repository

import (
	"time"

	"github.com/DavidKellner/HireLink/app/models"
	"gorm.io/gorm"
)

// WebhookEventOutcome carries the terminal state written to a ledger row at
// request end.
type WebhookEventOutcome struct {
	Status         string
	CompletedAt    time.Time
	DurationMs     int64
	ResponseStatus int
	ErrorCode      string
	ErrorMessage   string
}

// WebhookEventRepository persists the idempotency ledger. CreateIfNotExists
// relies on the store's unique index on event_id; it reports created=false
// when another delivery of the same event already holds the row.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.WebhookEvent) (created bool, stored *models.WebhookEvent, err error)
	Finalize(id uint, outcome WebhookEventOutcome) error
	GetByEventID(eventID string) (*models.WebhookEvent, error)
}

// SubscriptionRepository defines the primary subscription store operations.
// Create surfaces the raw store error so the caller can classify duplicate
// key violations and convert them into updates.
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	UpdateByProviderSubscriptionID(providerSubscriptionID string, fields map[string]interface{}) (rowsAffected int64, err error)
	GetByProviderSubscriptionID(providerSubscriptionID string) (*models.Subscription, error)
	ListByUserID(userID uint) ([]models.Subscription, error)
}

// AgencySubscriptionRepository writes the denormalized agency view.
type AgencySubscriptionRepository interface {
	Create(sub *models.AgencySubscription) error
	GetByProviderSubscriptionID(providerSubscriptionID string) (*models.AgencySubscription, error)
}

// Repositories holds all repository instances
type Repositories struct {
	WebhookEvents       WebhookEventRepository
	Subscriptions       SubscriptionRepository
	AgencySubscriptions AgencySubscriptionRepository
}

// NewRepositories creates all repositories with the given database connection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		WebhookEvents:       NewWebhookEventRepository(db),
		Subscriptions:       NewSubscriptionRepository(db),
		AgencySubscriptions: NewAgencySubscriptionRepository(db),
	}
}
