package webhooks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

const paypalCapturePayload = `{
	"id": "WH-1",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"resource": {"id": "CAP-123", "status": "COMPLETED", "amount": {"value": "42.50", "currency_code": "USD"}}
}`

func TestPayPalHandlerParsePayload(t *testing.T) {
	h := NewPayPalHandler(2, "shared-secret", &fakeTxRepo{})

	event, err := h.ParsePayload([]byte(paypalCapturePayload))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if event.TransactionID != "CAP-123" {
		t.Fatalf("transaction id = %q", event.TransactionID)
	}
	if !event.Amount.Equal(decimal.NewFromFloat(42.50)) {
		t.Fatalf("amount = %s, want 42.50", event.Amount)
	}
	if event.Currency != "usd" {
		t.Fatalf("currency = %q, want lowercased usd", event.Currency)
	}
}

func TestPayPalHandlerParsePayloadRejectsBadAmount(t *testing.T) {
	h := NewPayPalHandler(2, "shared-secret", &fakeTxRepo{})

	_, err := h.ParsePayload([]byte(`{
		"id": "WH-2",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {"id": "CAP-2", "amount": {"value": "forty-two"}}
	}`))
	if err == nil {
		t.Fatal("unparseable amount accepted")
	}
}

func TestPayPalHandlerProcessEventIsIdempotent(t *testing.T) {
	repo := &fakeTxRepo{}
	h := NewPayPalHandler(2, "shared-secret", repo)

	event, err := h.ParsePayload([]byte(paypalCapturePayload))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if _, err := h.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("first ProcessEvent: %v", err)
	}
	result, err := h.ProcessEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("second ProcessEvent: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("redelivery not acknowledged as duplicate")
	}
	if len(repo.created) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(repo.created))
	}
}

func TestPayPalHandlerIgnoresUnrelatedEvents(t *testing.T) {
	repo := &fakeTxRepo{}
	h := NewPayPalHandler(2, "shared-secret", repo)

	event, err := h.ParsePayload([]byte(`{
		"id": "WH-3",
		"event_type": "BILLING.SUBSCRIPTION.CREATED",
		"resource": {"id": "SUB-1"}
	}`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	result, err := h.ProcessEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if result.Action != "ignored" || len(repo.created) != 0 {
		t.Fatalf("unrelated event result = %+v with %d rows", result, len(repo.created))
	}
}

func TestPayPalHandlerVerifySignature(t *testing.T) {
	payload := []byte(paypalCapturePayload)
	h := NewPayPalHandler(2, "shared-secret", &fakeTxRepo{})

	if !h.VerifySignature(payload, hmacHex(payload, "shared-secret")) {
		t.Fatal("valid hmac rejected")
	}
	if h.VerifySignature(payload, hmacHex(payload, "other")) {
		t.Fatal("hmac under another secret accepted")
	}

	unconfigured := NewPayPalHandler(2, "", &fakeTxRepo{})
	if unconfigured.VerifySignature(payload, hmacHex(payload, "")) {
		t.Fatal("empty webhook secret must never verify")
	}
}
