// Package captcha is the narrow boundary to the bot-verification
// collaborator.  The booking handler calls Verify before touching the
// ledger; everything about the provider (endpoint, protocol, scoring) is
// hidden behind the Verifier interface.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verifier checks a client-supplied challenge token.  A nil error means
// the request may proceed.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Disabled is the no-op verifier used when no provider secret is
// configured (development, tests).
type Disabled struct{}

// Verify always passes.
func (Disabled) Verify(ctx context.Context, token, remoteIP string) error { return nil }

// HTTPVerifier posts the token to a challenge-verification endpoint in
// the form-encoded style used by the common providers.
type HTTPVerifier struct {
	hc        *http.Client
	verifyURL string
	secret    string
}

// NewHTTPVerifier builds a verifier for the given endpoint and secret.
func NewHTTPVerifier(verifyURL, secret string) *HTTPVerifier {
	return &HTTPVerifier{
		hc:        &http.Client{Timeout: 3 * time.Second},
		verifyURL: verifyURL,
		secret:    secret,
	}
}

// Verify posts the token and rejects the request unless the provider
// answers success.
func (v *HTTPVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("missing captcha token")
	}
	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := v.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("captcha verify: decode response: %w", err)
	}
	if !body.Success {
		return fmt.Errorf("captcha verification failed")
	}
	return nil
}
