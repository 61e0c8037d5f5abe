// Package gateway implements the thin client for the external payment
// provider.  The provider is reached over two surfaces: a synchronous
// orders API used to create a payment order before the user is sent to
// the hosted checkout, and an asynchronous signed callback whose
// signature is verified with the shared secret.  Any provider could be
// substituted behind this contract; the wire shapes follow Razorpay's
// orders API because that is what the gym frontend integrates with.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is the result of a successful order creation.  The ID is the
// provider-issued order identifier that the checkout UI and the
// callback both reference.
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Error wraps a provider-side rejection or transport failure.  The
// StatusCode is zero for transport errors.  Callers must not redirect
// the user to checkout when an Error is returned.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway: %s (status %d)", e.Message, e.StatusCode)
	}
	return "payment gateway: " + e.Message
}

// Client talks to the provider's orders API using basic auth with the
// key id and secret.  The same secret signs callback payloads.
type Client struct {
	keyID   string
	secret  string
	baseURL string
	http    *http.Client
}

// NewClient constructs a gateway client.  baseURL should not end with
// a slash; httpClient may be nil, in which case a client with a ten
// second timeout is used.
func NewClient(keyID, secret, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		keyID:   keyID,
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// KeyID returns the public key identifier that the checkout UI needs.
func (c *Client) KeyID() string { return c.keyID }

// orderRequest mirrors the provider's order creation body.  Amounts
// are always integer minor units; payment_capture=1 asks the provider
// to auto-capture the payment on authorization.
type orderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// CreateOrder registers a payment order with the provider and returns
// its identifier.  amountMinor must be positive.  notes carry the
// correlation metadata (intent kind, subject description) so support
// staff can trace a payment back to what it bought.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (Order, error) {
	if amountMinor <= 0 {
		return Order{}, &Error{Message: "amount must be positive"}
	}
	body, err := json.Marshal(orderRequest{
		Amount:         amountMinor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
		Notes:          notes,
	})
	if err != nil {
		return Order{}, &Error{Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, &Error{Message: err.Error()}
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Order{}, &Error{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Order{}, &Error{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Order{}, &Error{StatusCode: resp.StatusCode, Message: providerMessage(raw)}
	}
	var ord Order
	if err := json.Unmarshal(raw, &ord); err != nil {
		return Order{}, &Error{StatusCode: resp.StatusCode, Message: "malformed order response"}
	}
	if ord.ID == "" {
		return Order{}, &Error{StatusCode: resp.StatusCode, Message: "order response missing id"}
	}
	return ord, nil
}

// providerMessage pulls a human readable message out of a provider
// error body, falling back to the raw body when the shape is unknown.
func providerMessage(raw []byte) string {
	var e struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Description != "" {
		return e.Error.Description
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = "order creation rejected"
	}
	return msg
}

// NewReceipt builds a unique receipt string for an order.  The prefix
// names what is being bought (e.g. "membership_basic", "course_yoga")
// and the uuid suffix keeps receipts unique across retries.
func NewReceipt(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// MinorUnits converts a whole-currency amount (rupees) to minor
// units (paise) using integer arithmetic only.  Monetary amounts are
// converted before any provider call; floating point never enters a
// money computation.
func MinorUnits(rupees int64) int64 {
	return rupees * 100
}
