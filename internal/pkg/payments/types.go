package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentRequest is the per-call input to the payment manager. It is built
// from the inbound API request and discarded after the call.
type PaymentRequest struct {
	Amount              decimal.Decimal `json:"amount"`
	PaymentType         string          `json:"payment_type" validate:"required,oneof=donation membership event"`
	DonorID             *uint           `json:"donor_id,omitempty"`
	DonorName           string          `json:"donor_name" validate:"omitempty,max=200"`
	Email               string          `json:"email" validate:"omitempty,email"`
	Currency            string          `json:"currency" validate:"omitempty,len=3"`
	PledgeID            *uint           `json:"pledge_id,omitempty"`
	RecurringDonationID *uint           `json:"recurring_donation_id,omitempty"`
	FundRestriction     string          `json:"fund_restriction" validate:"omitempty,max=100"`
	CampaignID          *uint           `json:"campaign_id,omitempty"`
	TransactionType     string          `json:"transaction_type" validate:"omitempty,oneof=one_time recurring"`
	PaymentMethod       string          `json:"payment_method" validate:"required"`
	Description         string          `json:"description" validate:"omitempty,max=500"`
}

// ChargeRequest is what an adapter actually sends to the external processor.
// The amount may differ from the requested amount when the donor covers fees.
type ChargeRequest struct {
	Amount        decimal.Decimal
	Currency      string
	Description   string
	DonorName     string
	Email         string
	PaymentMethod string
	Metadata      map[string]string
}

// ChargeResult is the adapter's report of a successful external charge.
type ChargeResult struct {
	TransactionID string
	Status        string
	RawResponse   string
}

// PaymentAdapter executes charges against one external processor. Adapters
// apply their own network timeouts and surface failures as plain errors;
// retries are a caller concern.
type PaymentAdapter interface {
	Name() string
	ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

// FeeResult is the computed fee breakdown for one payment. It is derived,
// never persisted on its own.
type FeeResult struct {
	Amount           decimal.Decimal `json:"amount"`
	FeeAmount        decimal.Decimal `json:"fee_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	FeePaidBy        string          `json:"fee_paid_by"`
	IncentiveMessage string          `json:"incentive_message,omitempty"`
}

// FeeComparisonRow projects a FeeResult for one processor so the org can see
// which processor leaves it the most money.
type FeeComparisonRow struct {
	ProcessorID      uint            `json:"processor_id"`
	ProcessorName    string          `json:"processor_name"`
	ProcessorType    string          `json:"processor_type"`
	PolicyType       string          `json:"policy_type"`
	FeeAmount        decimal.Decimal `json:"fee_amount"`
	NetToOrg         decimal.Decimal `json:"net_to_org"`
	DonorPays        decimal.Decimal `json:"donor_pays"`
	FeePaidBy        string          `json:"fee_paid_by"`
	IncentiveMessage string          `json:"incentive_message,omitempty"`
}
