package models

import "time"

// Webhook processing lifecycle. A row is created with StatusProcessing when
// the delivery is accepted and updated exactly once at request end.
const (
	WebhookStatusProcessing = "processing"
	WebhookStatusSuccess    = "success"
	WebhookStatusFailed     = "failed"
)

// WebhookEvent is the audit ledger for provider webhook deliveries. The
// unique index on EventID is the sole deduplication mechanism for the
// provider's at-least-once delivery; a second insert for the same event id
// must not create a second row and must not re-run handlers.
type WebhookEvent struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	EventID               string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_event_id" json:"event_id"`
	EventType             string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ProviderCreatedAt     *time.Time `gorm:"type:timestamp;default:null" json:"provider_created_at,omitempty"`
	ReceivedAt            time.Time  `gorm:"type:timestamp;not null" json:"received_at"`
	ClientAddress         string     `gorm:"type:varchar(64)" json:"client_address"`
	RawPayload            string     `gorm:"type:longtext;not null" json:"raw_payload"`
	Status                string     `gorm:"type:varchar(20);not null;default:'processing';index" json:"status"`
	ProcessingStartedAt   time.Time  `gorm:"type:timestamp;not null" json:"processing_started_at"`
	ProcessingCompletedAt *time.Time `gorm:"type:timestamp;default:null" json:"processing_completed_at,omitempty"`
	ProcessingDurationMs  int64      `gorm:"default:0" json:"processing_duration_ms"`
	ResponseStatus        int        `gorm:"default:0" json:"response_status"`
	ErrorMessage          string     `gorm:"type:text" json:"error_message"`
	ErrorCode             string     `gorm:"type:varchar(64)" json:"error_code"`
	RetryCount            int        `gorm:"default:0" json:"retry_count"`
	CreatedAt             time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
