package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PledgeStatusActive    = "active"
	PledgeStatusFulfilled = "fulfilled"
	PledgeStatusCanceled  = "canceled"
)

// Pledge tracks a promised donation and how much of it has been paid.
// AmountPaid is only moved through atomic single-row updates so that
// concurrent payments against the same pledge cannot lose increments.
type Pledge struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	DonorID        *uint           `gorm:"index" json:"donor_id,omitempty"`
	DonorName      string          `gorm:"type:varchar(200)" json:"donor_name"`
	Email          string          `gorm:"type:varchar(200);index" json:"email"`
	AmountPledged  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount_pledged"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount_paid"`
	CampaignID     *uint           `gorm:"index" json:"campaign_id,omitempty"`
	FundRestriction string         `gorm:"type:varchar(100)" json:"fund_restriction"`
	Status         string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
