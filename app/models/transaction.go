package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionStatusCompleted = "completed"
	TransactionStatusPending   = "pending"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

const (
	TransactionTypeOneTime   = "one_time"
	TransactionTypeRecurring = "recurring"
)

// Transaction is one row of the append-only payment ledger. Rows are created
// exactly once per successful charge and never edited afterwards.
type Transaction struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	Reference              string          `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"reference"`
	ProcessorID            uint            `gorm:"not null;index;index:ux_transactions_processor_tx,unique,priority:1" json:"processor_id"`
	ProcessorTransactionID string          `gorm:"type:varchar(191);not null;index:ux_transactions_processor_tx,unique,priority:2" json:"processor_transaction_id"`
	DonorID                *uint           `gorm:"index" json:"donor_id,omitempty"`
	DonorName              string          `gorm:"type:varchar(200)" json:"donor_name"`
	Email                  string          `gorm:"type:varchar(200);index" json:"email"`
	Amount                 decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	FeeAmount              decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"fee_amount"`
	NetAmount              decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"net_amount"`
	Currency               string          `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	FeePaidBy              string          `gorm:"type:varchar(10);not null;default:'org'" json:"fee_paid_by"`
	Status                 string          `gorm:"type:varchar(20);not null;default:'completed';index" json:"status"`
	PaymentType            string          `gorm:"type:varchar(20);not null;default:'donation';index" json:"payment_type"`
	TransactionType        string          `gorm:"type:varchar(20);not null;default:'one_time'" json:"transaction_type"`
	PledgeID               *uint           `gorm:"index" json:"pledge_id,omitempty"`
	RecurringDonationID    *uint           `gorm:"index" json:"recurring_donation_id,omitempty"`
	FundRestriction        string          `gorm:"type:varchar(100)" json:"fund_restriction"`
	CampaignID             *uint           `gorm:"index" json:"campaign_id,omitempty"`
	ProcessorMetadata      string          `gorm:"type:longtext" json:"-"`
	TransactionDate        time.Time       `gorm:"type:timestamp;not null;index" json:"transaction_date"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.Reference == "" {
		t.Reference = uuid.New().String()
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now()
	}
	return nil
}
