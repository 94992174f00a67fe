package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pressrank/pressrank/internal/config"
)

// PaymentGateway starts checkout sessions with the external payment provider.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, reference string, amountCents int64, currency string) (checkoutURL string, err error)
}

// remotePaymentGateway calls the provider's checkout endpoint.
type remotePaymentGateway struct {
	checkoutURL string
	apiKey      string
	client      *http.Client
}

// NewPaymentGateway creates a gateway client for the configured provider.
func NewPaymentGateway(cfg config.PaymentConfig) PaymentGateway {
	return &remotePaymentGateway{
		checkoutURL: cfg.CheckoutURL,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

type checkoutAPIRequest struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type checkoutAPIResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

func (g *remotePaymentGateway) CreateCheckout(ctx context.Context, reference string, amountCents int64, currency string) (string, error) {
	body, err := json.Marshal(checkoutAPIRequest{
		Reference:   reference,
		AmountCents: amountCents,
		Currency:    currency,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.checkoutURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("checkout endpoint returned status %d", resp.StatusCode)
	}

	var result checkoutAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode checkout response: %w", err)
	}
	if result.CheckoutURL == "" {
		return "", fmt.Errorf("checkout response is missing the checkout URL")
	}

	return result.CheckoutURL, nil
}
