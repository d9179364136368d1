package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/donorops/donorops/app/models"
	"github.com/shopspring/decimal"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// StripeAdapter charges cards through the Stripe PaymentIntents API.
type StripeAdapter struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewStripeAdapter builds a Stripe adapter from decrypted processor
// credentials. Required field: secret_key.
func NewStripeAdapter(creds map[string]string) (PaymentAdapter, error) {
	secretKey := strings.TrimSpace(creds["secret_key"])
	if secretKey == "" {
		return nil, errors.New("stripe credentials missing secret_key")
	}
	baseURL := strings.TrimSpace(creds["api_base_url"])
	if baseURL == "" {
		baseURL = defaultStripeAPIBaseURL
	}
	return &StripeAdapter{
		SecretKey:  secretKey,
		APIBaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (a *StripeAdapter) Name() string {
	return models.ProcessorTypeStripe
}

func (a *StripeAdapter) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req == nil || !req.Amount.IsPositive() {
		return nil, errors.New("charge amount must be positive")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, errors.New("stripe charge requires a payment_method")
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", amountToMinorUnits(req.Amount)))
	form.Set("currency", currency)
	form.Set("payment_method", strings.TrimSpace(req.PaymentMethod))
	form.Set("confirm", "true")
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	if req.Email != "" {
		form.Set("receipt_email", req.Email)
	}
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBaseURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+a.SecretKey)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, stripeErrorFromBody(resp.StatusCode, body)
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("stripe response missing payment intent id")
	}

	status := models.TransactionStatusCompleted
	if out.Status != "succeeded" {
		status = models.TransactionStatusPending
	}
	return &ChargeResult{
		TransactionID: out.ID,
		Status:        status,
		RawResponse:   string(body),
	}, nil
}

func stripeErrorFromBody(statusCode int, body []byte) error {
	var out struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err == nil && out.Error.Message != "" {
		return fmt.Errorf("stripe charge failed: %s (%s)", out.Error.Message, out.Error.Code)
	}
	return fmt.Errorf("stripe charge failed: status=%d body=%s", statusCode, string(body))
}

// amountToMinorUnits converts a 2-decimal amount to integer cents.
func amountToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}
