package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/donorops/donorops/app/models"
)

const defaultPayPalAPIBaseURL = "https://api-m.paypal.com"

// PayPalAdapter captures approved PayPal orders through the Orders v2 API.
// The order id is handed over as the request's payment method.
type PayPalAdapter struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string

	HTTPClient *http.Client
}

// NewPayPalAdapter builds a PayPal adapter from decrypted processor
// credentials. Required fields: client_id, client_secret.
func NewPayPalAdapter(creds map[string]string) (PaymentAdapter, error) {
	clientID := strings.TrimSpace(creds["client_id"])
	clientSecret := strings.TrimSpace(creds["client_secret"])
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("paypal credentials missing client_id/client_secret")
	}
	baseURL := strings.TrimSpace(creds["api_base_url"])
	if baseURL == "" {
		baseURL = defaultPayPalAPIBaseURL
	}
	return &PayPalAdapter{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		APIBaseURL:   strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (a *PayPalAdapter) Name() string {
	return models.ProcessorTypePayPal
}

func (a *PayPalAdapter) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req == nil || !req.Amount.IsPositive() {
		return nil, errors.New("charge amount must be positive")
	}
	orderID := strings.TrimSpace(req.PaymentMethod)
	if orderID == "" {
		return nil, errors.New("paypal charge requires an approved order id")
	}

	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v2/checkout/orders/%s/capture", a.APIBaseURL, orderID), strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypal capture failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID string `json:"id"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}

	captureID := out.ID
	if len(out.PurchaseUnits) > 0 && len(out.PurchaseUnits[0].Payments.Captures) > 0 {
		captureID = out.PurchaseUnits[0].Payments.Captures[0].ID
	}
	if strings.TrimSpace(captureID) == "" {
		return nil, errors.New("paypal capture response missing id")
	}

	status := models.TransactionStatusCompleted
	if out.Status != "COMPLETED" {
		status = models.TransactionStatusPending
	}
	return &ChargeResult{
		TransactionID: captureID,
		Status:        status,
		RawResponse:   string(body),
	}, nil
}

func (a *PayPalAdapter) accessToken(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.APIBaseURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(a.ClientID, a.ClientSecret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("paypal token response missing access_token")
	}
	return out.AccessToken, nil
}
