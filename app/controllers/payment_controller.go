package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
	"github.com/donorops/donorops/internal/pkg/metrics/counter"
	"github.com/donorops/donorops/internal/pkg/payments"
	"github.com/donorops/donorops/internal/pkg/statistics"
)

// PaymentController exposes the payment API: charging, fee comparison, and
// read access to processors and the transaction ledger.
type PaymentController struct {
	manager      *payments.Manager
	fees         *payments.FeeEngine
	processors   repository.ProcessorRepository
	transactions repository.TransactionRepository
}

func NewPaymentController(
	manager *payments.Manager,
	fees *payments.FeeEngine,
	processors repository.ProcessorRepository,
	transactions repository.TransactionRepository,
) *PaymentController {
	return &PaymentController{
		manager:      manager,
		fees:         fees,
		processors:   processors,
		transactions: transactions,
	}
}

// paymentRequestBody is the JSON wire shape for POST /api/v1/payments.
type paymentRequestBody struct {
	ProcessorID         uint    `json:"processor_id"`
	Amount              float64 `json:"amount"`
	PaymentType         string  `json:"payment_type"`
	DonorID             *uint   `json:"donor_id"`
	DonorName           string  `json:"donor_name"`
	Email               string  `json:"email"`
	Currency            string  `json:"currency"`
	PledgeID            *uint   `json:"pledge_id"`
	RecurringDonationID *uint   `json:"recurring_donation_id"`
	FundRestriction     string  `json:"fund_restriction"`
	CampaignID          *uint   `json:"campaign_id"`
	TransactionType     string  `json:"transaction_type"`
	PaymentMethod       string  `json:"payment_method"`
	Description         string  `json:"description"`
}

// HandleProcessPayment serves POST /api/v1/payments.
func (pc *PaymentController) HandleProcessPayment(c *fiber.Ctx) error {
	var body paymentRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Request body could not be parsed"})
	}
	if body.ProcessorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "processor_id is required"})
	}
	if body.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "amount must be positive"})
	}

	req := &payments.PaymentRequest{
		Amount:              decimal.NewFromFloat(body.Amount).Round(2),
		PaymentType:         body.PaymentType,
		DonorID:             body.DonorID,
		DonorName:           body.DonorName,
		Email:               body.Email,
		Currency:            body.Currency,
		PledgeID:            body.PledgeID,
		RecurringDonationID: body.RecurringDonationID,
		FundRestriction:     body.FundRestriction,
		CampaignID:          body.CampaignID,
		TransactionType:     body.TransactionType,
		PaymentMethod:       body.PaymentMethod,
		Description:         body.Description,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := pc.manager.ProcessPayment(ctx, body.ProcessorID, req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
		case errors.Is(err, payments.ErrProcessorNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "processor_not_found", "message": err.Error()})
		case errors.Is(err, payments.ErrAdapterNotFound):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "adapter_not_found", "message": err.Error()})
		case errors.Is(err, payments.ErrStorageAfterCharge):
			// The charge went through. Callers must not retry this payment.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":       "charge_succeeded_bookkeeping_failed",
				"message":     err.Error(),
				"transaction": tx,
			})
		default:
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "charge_failed", "message": err.Error()})
		}
	}

	if err := counter.AddPaymentProcessed(tx.ProcessorID); err != nil {
		log.Printf("payment counter increment failed for processor %d: %v", tx.ProcessorID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "transaction": tx})
}

// HandleFeeComparison serves GET /api/v1/payments/fees/compare.
func (pc *PaymentController) HandleFeeComparison(c *fiber.Ctx) error {
	amountParam := c.Query("amount")
	amount, err := decimal.NewFromString(amountParam)
	if err != nil || !amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "amount must be a positive number"})
	}

	paymentType := c.Query("payment_type", models.PaymentTypeDonation)
	if !models.IsKnownPaymentType(paymentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "unknown payment_type"})
	}

	rows, err := pc.fees.GetFeeComparison(amount, paymentType)
	if err != nil {
		log.Printf("fee comparison failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "comparison_failed"})
	}
	return c.JSON(fiber.Map{"amount": amount, "payment_type": paymentType, "processors": rows})
}

// HandleListProcessors serves GET /api/v1/processors.
func (pc *PaymentController) HandleListProcessors(c *fiber.Ctx) error {
	paymentType := c.Query("payment_type", "")
	if paymentType != "" && !models.IsKnownPaymentType(paymentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "unknown payment_type"})
	}
	processors, err := pc.processors.GetActive(paymentType)
	if err != nil {
		log.Printf("processor listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}
	return c.JSON(fiber.Map{"processors": processors})
}

// HandleStats serves GET /api/v1/stats with cached ledger aggregates.
func (pc *PaymentController) HandleStats(c *fiber.Ctx) error {
	stats := statistics.GetStatistics()
	return c.JSON(fiber.Map{
		"transactions_total": stats.TotalTransactions,
		"transactions_today": stats.TodayTransactions,
		"amount_total":       stats.TotalAmount,
	})
}

// HandleListTransactions serves GET /api/v1/transactions.
func (pc *PaymentController) HandleListTransactions(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	txs, err := pc.transactions.List(offset, limit)
	if err != nil {
		log.Printf("transaction listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}
	total, err := pc.transactions.Count()
	if err != nil {
		log.Printf("transaction count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}
	return c.JSON(fiber.Map{"transactions": txs, "total": total, "offset": offset, "limit": limit})
}
