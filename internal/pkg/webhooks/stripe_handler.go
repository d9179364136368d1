package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StripeHandler processes Stripe webhook deliveries for one configured
// processor. Event application is idempotent on the payment intent id.
type StripeHandler struct {
	processorID   uint
	webhookSecret string
	transactions  repository.TransactionRepository
}

func NewStripeHandler(processorID uint, webhookSecret string, transactions repository.TransactionRepository) *StripeHandler {
	return &StripeHandler{
		processorID:   processorID,
		webhookSecret: webhookSecret,
		transactions:  transactions,
	}
}

func (h *StripeHandler) SignatureHeader() string {
	return "Stripe-Signature"
}

func (h *StripeHandler) VerifySignature(payload []byte, signature string) bool {
	return verifyStripeSignature(payload, signature, h.webhookSecret)
}

func (h *StripeHandler) ParsePayload(payload []byte) (*Event, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string `json:"id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Status   string `json:"status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Type) == "" {
		return nil, errors.New("stripe webhook payload missing event type")
	}
	if strings.TrimSpace(raw.Data.Object.ID) == "" {
		return nil, errors.New("stripe webhook payload missing object id")
	}

	return &Event{
		ProcessorType: models.ProcessorTypeStripe,
		EventID:       raw.ID,
		EventType:     raw.Type,
		TransactionID: raw.Data.Object.ID,
		Amount:        decimal.NewFromInt(raw.Data.Object.Amount).Div(decimal.NewFromInt(100)).Round(2),
		Currency:      strings.ToLower(raw.Data.Object.Currency),
		Status:        raw.Data.Object.Status,
		Raw:           append(json.RawMessage(nil), payload...),
	}, nil
}

// ProcessEvent records externally-confirmed charges. A payment intent already
// present in the ledger is a duplicate delivery and is acknowledged without a
// second row.
func (h *StripeHandler) ProcessEvent(ctx context.Context, event *Event) (*Result, error) {
	_ = ctx
	switch event.EventType {
	case "payment_intent.succeeded", "charge.succeeded":
	default:
		return &Result{Action: "ignored", TransactionID: event.TransactionID}, nil
	}

	existing, err := h.transactions.GetByProcessorTransactionID(event.TransactionID)
	if err == nil && existing != nil {
		return &Result{Action: "already_recorded", TransactionID: event.TransactionID, Duplicate: true}, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ledger lookup for %s: %w", event.TransactionID, err)
	}

	tx := &models.Transaction{
		ProcessorID:            h.processorID,
		ProcessorTransactionID: event.TransactionID,
		Amount:                 event.Amount,
		NetAmount:              event.Amount,
		Currency:               defaultCurrency(event.Currency),
		FeePaidBy:              models.FeePaidByOrg,
		Status:                 models.TransactionStatusCompleted,
		PaymentType:            models.PaymentTypeDonation,
		TransactionType:        models.TransactionTypeOneTime,
		ProcessorMetadata:      string(event.Raw),
	}
	if err := h.transactions.Create(tx); err != nil {
		return nil, fmt.Errorf("recording stripe transaction %s: %w", event.TransactionID, err)
	}
	return &Result{Action: "recorded", TransactionID: event.TransactionID}, nil
}

func defaultCurrency(currency string) string {
	if strings.TrimSpace(currency) == "" {
		return "usd"
	}
	return currency
}
