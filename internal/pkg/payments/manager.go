package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PledgeRecorder is the pledge subsystem contract: record that a payment was
// made against a pledge. Pledge-state invariants live behind this interface.
type PledgeRecorder interface {
	RecordPayment(pledgeID uint, amount decimal.Decimal) error
}

// ReceiptSender delivers a donor-facing receipt for a completed transaction.
type ReceiptSender interface {
	SendReceipt(tx *models.Transaction) error
}

// Manager orchestrates one payment: resolve processor and adapter, apply the
// fee policy, execute exactly one charge, persist exactly one ledger row, and
// notify the pledge subsystem.
type Manager struct {
	processors   repository.ProcessorRepository
	transactions repository.TransactionRepository
	fees         *FeeEngine
	registry     *AdapterRegistry
	pledges      PledgeRecorder
	receipts     ReceiptSender
	validate     *validator.Validate
}

// NewManager wires a payment manager. pledges and receipts may be nil when
// the deployment has no pledge tracking or mailer configured.
func NewManager(
	processors repository.ProcessorRepository,
	transactions repository.TransactionRepository,
	fees *FeeEngine,
	registry *AdapterRegistry,
	pledges PledgeRecorder,
	receipts ReceiptSender,
) *Manager {
	return &Manager{
		processors:   processors,
		transactions: transactions,
		fees:         fees,
		registry:     registry,
		pledges:      pledges,
		receipts:     receipts,
		validate:     validator.New(),
	}
}

// ProcessPayment executes one payment against the given processor.
//
// Side effects per invocation: exactly one external charge attempt, at most
// one ledger row, at most one pledge update. Adapter errors propagate
// unchanged and leave no partial state. A storage failure after a successful
// charge surfaces as ErrStorageAfterCharge so operators can tell "charge
// failed" from "charge succeeded, bookkeeping failed".
func (m *Manager) ProcessPayment(ctx context.Context, processorID uint, req *PaymentRequest) (*models.Transaction, error) {
	if req == nil {
		return nil, errors.New("payment request is required")
	}
	if err := m.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, errors.New("payment amount must be positive")
	}

	processor, err := m.processors.GetByID(processorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProcessorNotFound, processorID)
		}
		return nil, err
	}
	if !processor.IsActive {
		return nil, fmt.Errorf("%w: processor %d is inactive", ErrProcessorNotFound, processorID)
	}

	adapter, err := m.registry.Resolve(processor.ProcessorType, processor.ID)
	if err != nil {
		return nil, err
	}

	fee, err := m.fees.CalculateFee(processor.ID, req.Amount, req.PaymentType)
	if err != nil {
		return nil, err
	}

	// When the donor covers the fee, the outbound charge is fee-inclusive.
	chargeAmount := fee.Amount
	if fee.FeePaidBy == models.FeePaidByDonor {
		chargeAmount = fee.TotalAmount
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	charge := &ChargeRequest{
		Amount:        chargeAmount,
		Currency:      currency,
		Description:   req.Description,
		DonorName:     req.DonorName,
		Email:         req.Email,
		PaymentMethod: req.PaymentMethod,
		Metadata:      chargeMetadata(req),
	}

	result, err := adapter.ProcessPayment(ctx, charge)
	if err != nil {
		// Adapter errors go back verbatim; nothing was persisted.
		return nil, err
	}

	tx := &models.Transaction{
		ProcessorID:            processor.ID,
		ProcessorTransactionID: result.TransactionID,
		DonorID:                req.DonorID,
		DonorName:              req.DonorName,
		Email:                  req.Email,
		Amount:                 fee.Amount,
		FeeAmount:              fee.FeeAmount,
		NetAmount:              fee.NetAmount,
		Currency:               currency,
		FeePaidBy:              fee.FeePaidBy,
		Status:                 result.Status,
		PaymentType:            req.PaymentType,
		TransactionType:        transactionType(req),
		PledgeID:               req.PledgeID,
		RecurringDonationID:    req.RecurringDonationID,
		FundRestriction:        req.FundRestriction,
		CampaignID:             req.CampaignID,
		ProcessorMetadata:      result.RawResponse,
	}
	if err := m.transactions.Create(tx); err != nil {
		// The money already moved. This must never look like a charge failure.
		log.Printf("transaction bookkeeping failed after charge %s on processor %d: %v", result.TransactionID, processor.ID, err)
		return tx, fmt.Errorf("%w: %w", ErrStorageAfterCharge, err)
	}

	if req.PledgeID != nil && m.pledges != nil {
		if err := m.pledges.RecordPayment(*req.PledgeID, fee.Amount); err != nil {
			log.Printf("pledge %d update failed for transaction %s: %v", *req.PledgeID, tx.Reference, err)
		}
	}

	if m.receipts != nil && strings.TrimSpace(req.Email) != "" {
		if err := m.receipts.SendReceipt(tx); err != nil {
			log.Printf("receipt delivery failed for transaction %s: %v", tx.Reference, err)
		}
	}

	return tx, nil
}

func transactionType(req *PaymentRequest) string {
	if req.TransactionType != "" {
		return req.TransactionType
	}
	if req.RecurringDonationID != nil {
		return models.TransactionTypeRecurring
	}
	return models.TransactionTypeOneTime
}

func chargeMetadata(req *PaymentRequest) map[string]string {
	meta := map[string]string{
		"payment_type": req.PaymentType,
	}
	if req.PledgeID != nil {
		meta["pledge_id"] = strconv.FormatUint(uint64(*req.PledgeID), 10)
	}
	if req.CampaignID != nil {
		meta["campaign_id"] = strconv.FormatUint(uint64(*req.CampaignID), 10)
	}
	if req.FundRestriction != "" {
		meta["fund_restriction"] = req.FundRestriction
	}
	return meta
}
