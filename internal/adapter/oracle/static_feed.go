package oracle

import (
	"context"
	"sync"
	"time"

	"crowdfund-ledger/internal/core/domain"
)

// StaticAddress is reported as the feed address for static feeds.
const StaticAddress = "static"

// StaticFeed is a stand-in price source for development and tests. Each
// quote is stamped with the current time.
type StaticFeed struct {
	mu       sync.RWMutex
	rate     int64
	decimals int32
	now      func() time.Time
}

// NewStaticFeed returns a feed that always answers rate with decimals places.
func NewStaticFeed(rate int64, decimals int32) *StaticFeed {
	return &StaticFeed{rate: rate, decimals: decimals, now: time.Now}
}

func (f *StaticFeed) Address() string {
	return StaticAddress
}

// SetRate changes the answer for subsequent quotes.
func (f *StaticFeed) SetRate(rate int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = rate
}

func (f *StaticFeed) LatestQuote(ctx context.Context) (domain.PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceQuote{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domain.PriceQuote{Rate: f.rate, Decimals: f.decimals, UpdatedAt: f.now().UTC()}, nil
}
