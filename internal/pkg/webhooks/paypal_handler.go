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

// PayPalHandler processes PayPal webhook deliveries for one configured
// processor. Deliveries are verified against a shared webhook secret via
// HMAC; event application is idempotent on the capture id.
type PayPalHandler struct {
	processorID   uint
	webhookSecret string
	transactions  repository.TransactionRepository
}

func NewPayPalHandler(processorID uint, webhookSecret string, transactions repository.TransactionRepository) *PayPalHandler {
	return &PayPalHandler{
		processorID:   processorID,
		webhookSecret: webhookSecret,
		transactions:  transactions,
	}
}

func (h *PayPalHandler) SignatureHeader() string {
	return "Paypal-Transmission-Sig"
}

func (h *PayPalHandler) VerifySignature(payload []byte, signature string) bool {
	if strings.TrimSpace(h.webhookSecret) == "" {
		return false
	}
	return verifyHMACHex(payload, signature, h.webhookSecret)
}

func (h *PayPalHandler) ParsePayload(payload []byte) (*Event, error) {
	var raw struct {
		ID        string `json:"id"`
		EventType string `json:"event_type"`
		Resource  struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Amount struct {
				Value        string `json:"value"`
				CurrencyCode string `json:"currency_code"`
			} `json:"amount"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.EventType) == "" {
		return nil, errors.New("paypal webhook payload missing event_type")
	}
	if strings.TrimSpace(raw.Resource.ID) == "" {
		return nil, errors.New("paypal webhook payload missing resource id")
	}

	amount := decimal.Zero
	if raw.Resource.Amount.Value != "" {
		parsed, err := decimal.NewFromString(raw.Resource.Amount.Value)
		if err != nil {
			return nil, fmt.Errorf("paypal webhook amount %q: %w", raw.Resource.Amount.Value, err)
		}
		amount = parsed.Round(2)
	}

	return &Event{
		ProcessorType: models.ProcessorTypePayPal,
		EventID:       raw.ID,
		EventType:     raw.EventType,
		TransactionID: raw.Resource.ID,
		Amount:        amount,
		Currency:      strings.ToLower(raw.Resource.Amount.CurrencyCode),
		Status:        raw.Resource.Status,
		Raw:           append(json.RawMessage(nil), payload...),
	}, nil
}

func (h *PayPalHandler) ProcessEvent(ctx context.Context, event *Event) (*Result, error) {
	_ = ctx
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
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
		return nil, fmt.Errorf("recording paypal transaction %s: %w", event.TransactionID, err)
	}
	return &Result{Action: "recorded", TransactionID: event.TransactionID}, nil
}
