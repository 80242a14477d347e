package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdfund-ledger/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFeed_LatestQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/eth-usd", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer":"200000000000","decimals":8,"updated_at":1772359200}`)
	}))
	defer server.Close()

	feed := NewHTTPFeedWithClient(server.Client(), server.URL+"/eth-usd")
	q, err := feed.LatestQuote(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(200000000000), q.Rate)
	assert.Equal(t, int32(8), q.Decimals)
	assert.Equal(t, time.Unix(1772359200, 0).UTC(), q.UpdatedAt)
	assert.Equal(t, server.URL+"/eth-usd", feed.Address())
}

func TestHTTPFeed_NumericAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"answer":200000000000,"decimals":8}`)
	}))
	defer server.Close()

	q, err := NewHTTPFeedWithClient(server.Client(), server.URL).LatestQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(200000000000), q.Rate)
	assert.True(t, q.UpdatedAt.IsZero())
}

func TestHTTPFeed_PassesThroughNonPositiveAnswers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"answer":"-1","decimals":8,"updated_at":1}`)
	}))
	defer server.Close()

	q, err := NewHTTPFeedWithClient(server.Client(), server.URL).LatestQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), q.Rate)
}

func TestHTTPFeed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{}`, "unexpected status code: 500"},
		{"bad json", http.StatusOK, `{"answer":`, "decoding response"},
		{"fractional answer", http.StatusOK, `{"answer":"2000.5","decimals":8}`, "parsing answer"},
		{"answer beyond int64", http.StatusOK, `{"answer":"99999999999999999999","decimals":8}`, "parsing answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewHTTPFeedWithClient(server.Client(), server.URL).LatestQuote(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestHTTPFeed_TransportError(t *testing.T) {
	_, err := NewHTTPFeedWithClient(failingClient{}, "http://feed.invalid").LatestQuote(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPFeed_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	feed := NewHTTPFeed(server.URL, 20*time.Millisecond)
	_, err := feed.LatestQuote(context.Background())
	assert.Error(t, err)
}

func TestStaticFeed(t *testing.T) {
	feed := NewStaticFeed(2000_00000000, 8)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return fixed }

	q, err := feed.LatestQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PriceQuote{Rate: 2000_00000000, Decimals: 8, UpdatedAt: fixed}, q)
	assert.Equal(t, StaticAddress, feed.Address())

	feed.SetRate(0)
	q, err = feed.LatestQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Rate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = feed.LatestQuote(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
