// Package payment integrates with the external payment gateway and records
// payment state around gateway calls.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/campusworks/eventhub/internal/conf"
	"github.com/campusworks/eventhub/internal/errors"
)

const (
	defaultTimeout             = 30 * time.Second
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	defaultUserAgent           = "EventHub"
)

// ChargeRequest describes one charge attempt against the gateway.
type ChargeRequest struct {
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`   // our payment public ID
	Description string `json:"description"` // shown on the payer's statement
}

// ChargeResult is the gateway's answer to a charge.
type ChargeResult struct {
	GatewayRef string `json:"id"`
	Status     string `json:"status"` // "succeeded" or "failed"
	Message    string `json:"message,omitempty"`
}

// Succeeded reports whether the gateway accepted the charge.
func (r *ChargeResult) Succeeded() bool {
	return r.Status == "succeeded"
}

// Client talks to the payment gateway over HTTP with a pooled transport.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a gateway client from settings.
func NewClient(settings *conf.PaymentSettings) *Client {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
	return &Client{
		baseURL: settings.GatewayURL,
		apiKey:  settings.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Charge submits a charge to the gateway.
func (c *Client) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.post(ctx, "/v1/charges", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refund asks the gateway to refund a previous charge.
func (c *Client) Refund(ctx context.Context, gatewayRef string) (*ChargeResult, error) {
	var result ChargeResult
	body := map[string]string{"charge": gatewayRef}
	if err := c.post(ctx, "/v1/refunds", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.baseURL == "" {
		return errors.Newf("payment gateway not configured").
			Component("payment").
			Category(errors.CategoryConfiguration).
			Build()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.New(err).
			Component("payment").
			Category(errors.CategoryPayment).
			Context("operation", "marshal_request").
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.New(err).
			Component("payment").
			Category(errors.CategoryPayment).
			Context("operation", "build_request").
			Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New(err).
			Component("payment").
			Category(errors.CategoryHTTP).
			Context("path", path).
			Timing("gateway_request", time.Since(started)).
			Build()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.New(err).
			Component("payment").
			Category(errors.CategoryHTTP).
			Context("path", path).
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, truncate(raw, 200))).
			Component("payment").
			Category(errors.CategoryPayment).
			Context("path", path).
			Context("status_code", resp.StatusCode).
			Build()
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.New(err).
			Component("payment").
			Category(errors.CategoryPayment).
			Context("operation", "decode_response").
			Build()
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
