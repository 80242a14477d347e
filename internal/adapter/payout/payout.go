// Package payout sends pool withdrawals to the owner's payout endpoint.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature"

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RejectedError is returned when the endpoint answers with a non-2xx status.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("payout rejected with status %d: %s", e.StatusCode, e.Body)
}

// HTTPTransfer implements ports.ValueTransfer by POSTing a signed payout
// instruction. It makes exactly one attempt.
type HTTPTransfer struct {
	url        string
	secret     string
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewHTTPTransfer creates a payout client.
func NewHTTPTransfer(url, secret string, sigSvc ports.SignatureService, httpClient HTTPClient, log zerolog.Logger) *HTTPTransfer {
	return &HTTPTransfer{
		url:        url,
		secret:     secret,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		log:        log,
	}
}

// NewHTTPTransferWithTimeout creates a payout client with its own http.Client.
func NewHTTPTransferWithTimeout(url, secret string, sigSvc ports.SignatureService, timeout time.Duration, log zerolog.Logger) *HTTPTransfer {
	return NewHTTPTransfer(url, secret, sigSvc, &http.Client{Timeout: timeout}, log)
}

// Transfer delivers the payout. Only a 2xx answer counts as accepted.
func (t *HTTPTransfer) Transfer(ctx context.Context, p domain.Payout) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, t.sigSvc.Sign(t.secret, string(body)))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Warn().Err(err).Str("payout_id", p.ID.String()).Msg("payout: delivery failed")
		return fmt.Errorf("delivering payout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.log.Warn().Str("payout_id", p.ID.String()).Int("status", resp.StatusCode).Msg("payout: rejected")
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	t.log.Info().
		Str("payout_id", p.ID.String()).
		Str("recipient", p.Recipient.String()).
		Str("amount", p.Amount.String()).
		Int("status", resp.StatusCode).
		Msg("payout: delivered")
	return nil
}
