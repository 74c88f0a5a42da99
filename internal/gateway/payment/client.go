// Package payment talks to the external payment gateway. Only two contracts
// matter to this service: order creation and callback signature verification.
// The gateway's hosted checkout UI is out of scope.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/clubhub-io/event-registration/internal/config"
)

// Order is the gateway's handle for a pending payment.
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// Gateway abstracts the external provider so services can run against a fake.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type client struct {
	cfg  config.PaymentConfig
	http *http.Client
}

// NewClient builds a gateway client from config.
func NewClient(cfg config.PaymentConfig) Gateway {
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout()},
	}
}

type createOrderRequest struct {
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// CreateOrder registers an order with the gateway. Failures here are
// retryable by the caller; nothing local has changed yet.
func (c *client) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*Order, error) {
	payload, err := json.Marshal(createOrderRequest{
		AmountMinor: amountMinor,
		Currency:    c.cfg.Currency,
		Receipt:     receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.Secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway create order: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway create order: status %d: %s", resp.StatusCode, body)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("gateway decode order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("gateway returned empty order id")
	}
	return &order, nil
}

// VerifySignature recomputes the callback signature locally; no network call.
func (c *client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.cfg.Secret, orderID, paymentID, signature)
}
