package models

import "time"

// Processor type constants used across payment-related models.
const (
	ProcessorTypeStripe = "stripe"
	ProcessorTypePayPal = "paypal"
)

// PaymentProcessor is a configured external payment provider. Rows are owned
// by the admin configuration surface; the payment core only reads them.
type PaymentProcessor struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProcessorType      string    `gorm:"type:varchar(20);not null;index" json:"processor_type"`
	ProcessorName      string    `gorm:"type:varchar(100);not null" json:"processor_name"`
	CredentialsEnc     string    `gorm:"type:text" json:"-"`
	IsActive           bool      `gorm:"default:true;index" json:"is_active"`
	IsPreferred        bool      `gorm:"default:false" json:"is_preferred"`
	DisplayOrder       int       `gorm:"default:0;index" json:"display_order"`
	PaymentsProcessed  int64     `gorm:"default:0" json:"payments_processed"`
	WebhooksProcessed  int64     `gorm:"default:0" json:"webhooks_processed"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
