package models

import "time"

// Webhook lifecycle statuses. Every inbound webhook writes at least a
// "received" entry plus one terminal entry.
const (
	WebhookStatusReceived        = "received"
	WebhookStatusNoHandler       = "no_handler"
	WebhookStatusInvalidSig      = "invalid_signature"
	WebhookStatusParseError      = "parse_error"
	WebhookStatusProcessingError = "processing_error"
	WebhookStatusProcessed       = "processed"
)

// WebhookLog is the append-only audit trail of inbound webhook deliveries.
// Entries are never mutated or deleted by the payment core; retention is an
// external concern.
type WebhookLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProcessorType string    `gorm:"type:varchar(20);not null;index" json:"processor_type"`
	Payload       string    `gorm:"type:longtext;not null" json:"payload"`
	Status        string    `gorm:"type:varchar(20);not null;index" json:"status"`
	Details       string    `gorm:"type:text" json:"details"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
