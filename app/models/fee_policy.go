package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentTypeDonation   = "donation"
	PaymentTypeMembership = "membership"
	PaymentTypeEvent      = "event"
	PaymentTypeAll        = "all"
)

const (
	PolicyOrgAbsorbs  = "org_absorbs"
	PolicyDonorPays   = "donor_pays"
	PolicyIncentivize = "incentivize"
	PolicyHybrid      = "hybrid"
)

const (
	FeePaidByOrg    = "org"
	FeePaidByDonor  = "donor"
	FeePaidByShared = "shared"
)

// FeePolicy controls how processing fees are split between the organization
// and the donor for one processor and payment type. payment_type "all" acts
// as the fallback when no exact match exists.
type FeePolicy struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ProcessorID      uint            `gorm:"not null;index:ux_fee_policies_processor_type,unique,priority:1" json:"processor_id"`
	PaymentType      string          `gorm:"type:varchar(20);not null;default:'all';index:ux_fee_policies_processor_type,unique,priority:2" json:"payment_type"`
	PolicyType       string          `gorm:"type:varchar(20);not null;default:'org_absorbs'" json:"policy_type"`
	FeePercentage    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"fee_percentage"`
	FeeFixedAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"fee_fixed_amount"`
	IncentiveType    string          `gorm:"type:varchar(50)" json:"incentive_type"`
	IncentiveMessage string          `gorm:"type:text" json:"incentive_message"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	IsActive         bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsKnownPaymentType reports whether t is one of the configurable payment types.
func IsKnownPaymentType(t string) bool {
	switch t {
	case PaymentTypeDonation, PaymentTypeMembership, PaymentTypeEvent, PaymentTypeAll:
		return true
	default:
		return false
	}
}
