package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal JSON/HTTP client for the hosted-payment provider.
// Payments are created with a POST and queried with a GET; the API key is
// sent as a bearer token.  The HTTP client carries a short timeout so a
// stalled provider surfaces as an error instead of holding the booking
// request open.
type Client struct {
	hc      *http.Client
	baseURL string
	apiKey  string
}

// NewClient builds a Client for the given API base URL and key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 3 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type createPayload struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	OrderRef    string `json:"order_ref"`
	ReturnURL   string `json:"return_url"`
	NotifyURL   string `json:"notify_url"`
}

type createResponse struct {
	PaymentID string `json:"payment_id"`
	PayURL    string `json:"pay_url"`
	Message   string `json:"message"`
}

// CreatePayment opens a hosted payment and returns its handle and page URL.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	body, err := json.Marshal(createPayload{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		OrderRef:    req.OrderRef,
		ReturnURL:   req.ReturnURL,
		NotifyURL:   req.NotifyURL,
	})
	if err != nil {
		return CreateResult{}, err
	}
	status, respBody, err := c.do(ctx, http.MethodPost, "/v1/payments", body)
	if err != nil {
		return CreateResult{}, err
	}
	var resp createResponse
	if status >= 400 {
		_ = json.Unmarshal(respBody, &resp)
		if resp.Message != "" {
			return CreateResult{}, fmt.Errorf("payment create rejected: %s (status=%d)", resp.Message, status)
		}
		return CreateResult{}, fmt.Errorf("payment create rejected (status=%d)", status)
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return CreateResult{}, fmt.Errorf("payment create: decode response: %w", err)
	}
	if resp.PaymentID == "" || resp.PayURL == "" {
		return CreateResult{}, fmt.Errorf("payment create: incomplete response")
	}
	return CreateResult{Ref: resp.PaymentID, PayURL: resp.PayURL}, nil
}

type stateResponse struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// FetchState queries the authoritative state of a payment by its handle.
func (c *Client) FetchState(ctx context.Context, ref string) (State, error) {
	status, respBody, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(ref), nil)
	if err != nil {
		return State{}, err
	}
	if status >= 400 {
		var resp stateResponse
		_ = json.Unmarshal(respBody, &resp)
		if resp.Message != "" {
			return State{}, fmt.Errorf("payment query failed: %s (status=%d)", resp.Message, status)
		}
		return State{}, fmt.Errorf("payment query failed (status=%d)", status)
	}
	var resp stateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return State{}, fmt.Errorf("payment query: decode response: %w", err)
	}
	return mapState(resp.State), nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}

// mapState folds the provider's state spellings into the closed variant.
// Spellings observed across provider API versions are accepted; anything
// else becomes KindUnknown with the raw string kept.
func mapState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "created", "prepared", "started":
		return State{Kind: KindCreated, Raw: raw}
	case "paid", "succeeded", "success":
		return State{Kind: KindPaid, Raw: raw}
	case "canceled", "cancelled":
		return State{Kind: KindCanceled, Raw: raw}
	case "timeout", "timed_out", "expired":
		return State{Kind: KindTimedOut, Raw: raw}
	case "failed", "rejected", "error":
		return State{Kind: KindFailed, Raw: raw}
	default:
		return State{Kind: KindUnknown, Raw: raw}
	}
}
