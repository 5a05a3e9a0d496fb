package repository

import (
	"github.com/DavidKellner/HireLink/app/models"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a GORM-backed subscription store.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts a new subscription row. A unique-index violation on
// provider_subscription_id is returned untranslated so the caller can
// classify it and fall back to an update.
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) UpdateByProviderSubscriptionID(providerSubscriptionID string, fields map[string]interface{}) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}

func (r *subscriptionRepository) GetByProviderSubscriptionID(providerSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("provider_subscription_id = ?", providerSubscriptionID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUserID(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}
