// Package oracle adapts external price feeds to ports.PriceSource.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"crowdfund-ledger/internal/core/domain"
)

// maxFeedBody caps how much of a feed response is read.
const maxFeedBody = 64 << 10

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// roundData is the feed's latest-answer document.
type roundData struct {
	Answer    json.Number `json:"answer"`
	Decimals  int32       `json:"decimals"`
	UpdatedAt int64       `json:"updated_at"`
}

// HTTPFeed reads quotes from a JSON price-feed endpoint.
type HTTPFeed struct {
	httpClient HTTPClient
	url        string
}

// NewHTTPFeed creates a feed client with its own timeout.
func NewHTTPFeed(url string, timeout time.Duration) *HTTPFeed {
	return NewHTTPFeedWithClient(&http.Client{Timeout: timeout}, url)
}

// NewHTTPFeedWithClient creates a feed client with a custom HTTP client.
func NewHTTPFeedWithClient(httpClient HTTPClient, url string) *HTTPFeed {
	return &HTTPFeed{httpClient: httpClient, url: url}
}

// Address returns the feed URL.
func (f *HTTPFeed) Address() string {
	return f.url
}

// LatestQuote fetches the current answer. A zero or negative answer is
// returned as-is.
func (f *HTTPFeed) LatestQuote(ctx context.Context) (domain.PriceQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var round roundData
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBody))
	dec.UseNumber()
	if err := dec.Decode(&round); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decoding response: %w", err)
	}

	rate, err := strconv.ParseInt(round.Answer.String(), 10, 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("parsing answer %q: %w", round.Answer, err)
	}

	quote := domain.PriceQuote{Rate: rate, Decimals: round.Decimals}
	if round.UpdatedAt > 0 {
		quote.UpdatedAt = time.Unix(round.UpdatedAt, 0).UTC()
	}
	return quote, nil
}
