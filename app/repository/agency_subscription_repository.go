package repository

import (
	"github.com/DavidKellner/HireLink/app/models"
	"gorm.io/gorm"
)

type agencySubscriptionRepository struct {
	db *gorm.DB
}

// NewAgencySubscriptionRepository creates a GORM-backed store for the
// agency-facing subscription view.
func NewAgencySubscriptionRepository(db *gorm.DB) AgencySubscriptionRepository {
	return &agencySubscriptionRepository{db: db}
}

func (r *agencySubscriptionRepository) Create(sub *models.AgencySubscription) error {
	return r.db.Create(sub).Error
}

func (r *agencySubscriptionRepository) GetByProviderSubscriptionID(providerSubscriptionID string) (*models.AgencySubscription, error) {
	var sub models.AgencySubscription
	if err := r.db.Where("provider_subscription_id = ?", providerSubscriptionID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}
