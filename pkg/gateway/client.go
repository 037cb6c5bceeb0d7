// Package gateway talks to the Razorpay-style online payment gateway.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	json "github.com/goccy/go-json"
)

const (
	// StatusPaid is the gateway order status once it has captured a payment.
	StatusPaid = "paid"

	errorBodyReadLimit int64 = 1024
	defaultTimeout           = 10 * time.Second
)

var errCredentialsRequired = errors.New("gateway key id and secret are required")

// Client is a thin REST client for the gateway's orders API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	timeout    time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errCredentialsRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		keyID:      strings.TrimSpace(cfg.KeyID),
		keySecret:  strings.TrimSpace(cfg.KeySecret),
		timeout:    timeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		return nil, errors.New("gateway base url is required")
	}
	return client, nil
}

// KeyID is the public key handed to the browser checkout widget.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrderRequest is the payload for opening a gateway order.
type CreateOrderRequest struct {
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Order is the gateway's view of an order.
type Order struct {
	ID          string            `json:"id"`
	AmountMinor int64             `json:"amount"`
	AmountPaid  int64             `json:"amount_paid"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Status      string            `json:"status"`
	Notes       map[string]string `json:"notes"`
}

// IsPaid reports whether the order has captured its payment.
func (o Order) IsPaid() bool {
	return strings.EqualFold(o.Status, StatusPaid)
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a gateway order for the given amount in minor units.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if c == nil {
		return Order{}, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}
	if req.AmountMinor <= 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "gateway amount must be positive")
	}
	if strings.TrimSpace(req.Currency) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "gateway currency is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal gateway order request")
	}
	var out Order
	if err := c.do(ctx, http.MethodPost, "orders", payload, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

// FetchOrder loads the current state of a gateway order.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	if c == nil {
		return Order{}, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}
	var out Order
	if err := c.do(ctx, http.MethodGet, "orders/"+url.PathEscape(trimmed), nil, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway request")
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, describeError(raw)), "gateway request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func describeError(raw []byte) string {
	var parsed apiError
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Description != "" {
		if parsed.Error.Code != "" {
			return parsed.Error.Code + ": " + parsed.Error.Description
		}
		return parsed.Error.Description
	}
	return strings.TrimSpace(string(raw))
}
