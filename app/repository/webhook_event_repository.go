package repository

import (
	"github.com/DavidKellner/HireLink/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a GORM-backed ledger repository.
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// CreateIfNotExists inserts the ledger row with ON CONFLICT DO NOTHING on
// the event_id unique index. RowsAffected == 0 means another delivery of
// the same event won the insert; the stored row is returned either way.
// Concurrent duplicate deliveries race into this insert with no application
// lock; the index guarantees exactly one winner.
func (r *webhookEventRepository) CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *webhookEventRepository) Finalize(id uint, outcome WebhookEventOutcome) error {
	updates := map[string]interface{}{
		"status":                  outcome.Status,
		"processing_completed_at": outcome.CompletedAt,
		"processing_duration_ms":  outcome.DurationMs,
		"response_status":         outcome.ResponseStatus,
		"error_code":              outcome.ErrorCode,
		"error_message":           outcome.ErrorMessage,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *webhookEventRepository) GetByEventID(eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
